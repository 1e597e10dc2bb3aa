package influxdb

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.InfluxDBConfig{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION") == "" {
		t.Skip("set RUN_INTEGRATION to attempt network connections")
	}
	_, err := Connect(config.InfluxDBConfig{Enabled: true, URL: "http://127.0.0.1:1", Token: "t"})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestBatchSettings(t *testing.T) {
	tests := []struct {
		name          string
		cfg           config.InfluxDBConfig
		wantBatch     int
		wantFlushSecs int
	}{
		{"configured", config.InfluxDBConfig{BatchSize: 50, FlushInterval: 2}, 50, 2},
		{"zero falls back", config.InfluxDBConfig{}, 100, 10},
		{"negative falls back", config.InfluxDBConfig{BatchSize: -1, FlushInterval: -5}, 100, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch, flush := batchSettings(tt.cfg)
			if batch != tt.wantBatch || flush != tt.wantFlushSecs {
				t.Errorf("batchSettings() = (%d, %d), want (%d, %d)", batch, flush, tt.wantBatch, tt.wantFlushSecs)
			}
		})
	}
}

func TestDeviceStatePoint(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	attrs := map[string]any{
		"brightness": 80,
		"color_temp": "warm",
		"nested":     map[string]any{"skipped": true},
	}

	p := DeviceStatePoint("light-1", "light", "on", attrs, ts)
	line := write.PointToLineProtocol(p, time.Second)

	for _, want := range []string{
		"device_state,device_id=light-1,kind=light ",
		"on=true",
		"brightness=80i",
		`color_temp="warm"`,
	} {
		if !strings.Contains(line, want) {
			t.Errorf("line protocol %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "nested") {
		t.Errorf("line protocol %q should skip non-scalar attributes", line)
	}
	if !strings.HasSuffix(strings.TrimSpace(line), "1772366400") {
		t.Errorf("line protocol %q has unexpected timestamp", line)
	}
}

func TestDeviceStatePoint_Off(t *testing.T) {
	p := DeviceStatePoint("lock-1", "doorlock", "off", nil, time.Now())
	line := write.PointToLineProtocol(p, time.Second)
	if !strings.Contains(line, "on=false") {
		t.Errorf("line protocol %q missing on=false", line)
	}
}

func TestDisconnectedClient(t *testing.T) {
	c := &Client{}

	if c.IsConnected() {
		t.Error("IsConnected() = true for zero client")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	// Writes and flushes on a disconnected client are dropped silently.
	c.WriteDeviceState("light-1", "light", "on", nil, time.Now())
	c.WriteSensorReading("temperature", 21.5, time.Now())
	c.Flush()

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
