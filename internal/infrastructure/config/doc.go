// Package config handles loading and validating smart home configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with SMARTHOME_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// A missing configuration file is not an error; the defaults describe a
// working single-machine setup (JSON state files in the working directory).
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("smarthome.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Home.DataFile)
package config
