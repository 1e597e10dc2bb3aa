package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

var (
	//go:embed schema/snapshot.schema.json
	snapshotSchemaDoc []byte

	//go:embed schema/rules.schema.json
	rulesSchemaDoc []byte
)

const (
	snapshotSchemaURL = "https://smarthome.local/schema/snapshot.json"
	rulesSchemaURL    = "https://smarthome.local/schema/rules.json"
)

var (
	schemasOnce    sync.Once
	snapshotSchema *jsonschema.Schema
	rulesSchema    *jsonschema.Schema
	errSchemas     error
)

// compileSchemas compiles the embedded schemas once.
func compileSchemas() error {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for url, doc := range map[string][]byte{
			snapshotSchemaURL: snapshotSchemaDoc,
			rulesSchemaURL:    rulesSchemaDoc,
		} {
			parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
			if err != nil {
				errSchemas = fmt.Errorf("parsing schema %s: %w", url, err)
				return
			}
			if err := c.AddResource(url, parsed); err != nil {
				errSchemas = fmt.Errorf("adding schema %s: %w", url, err)
				return
			}
		}
		if snapshotSchema, errSchemas = c.Compile(snapshotSchemaURL); errSchemas != nil {
			return
		}
		rulesSchema, errSchemas = c.Compile(rulesSchemaURL)
	})
	return errSchemas
}

// validateDocument checks data against one of the embedded schemas.
func validateDocument(data []byte, schemaURL string) error {
	if err := compileSchemas(); err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	sch := snapshotSchema
	if schemaURL == rulesSchemaURL {
		sch = rulesSchema
	}
	if err := sch.Validate(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

// indentJSON marshals v with four-space indentation.
func indentJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
