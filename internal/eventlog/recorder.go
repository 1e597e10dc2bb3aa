package eventlog

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// Logger defines the logging interface used by the Recorder.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sink stores or forwards entries.
type Sink interface {
	WriteEntry(ctx context.Context, e Entry) error
}

// defaultSinkTimeout bounds each sink write.
const defaultSinkTimeout = 5 * time.Second

// Recorder stamps events and fans them out to every sink. A failing sink
// is logged and does not affect the others or the caller.
//
// Thread Safety: Recorder is safe for concurrent use as long as its sinks are.
type Recorder struct {
	sinks   []Sink
	logger  Logger
	timeout time.Duration
	now     func() time.Time
}

// NewRecorder creates a recorder writing to sinks in order.
func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{
		sinks:   sinks,
		logger:  noopLogger{},
		timeout: defaultSinkTimeout,
		now:     time.Now,
	}
}

// SetLogger sets the logger used to report sink failures.
func (r *Recorder) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.logger = logger
}

// AddSink appends a sink. Not safe to call concurrently with Record.
func (r *Recorder) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// Record builds an entry and writes it to every sink.
func (r *Recorder) Record(message string, dev *device.Device, username string, fields map[string]any) Entry {
	e := Entry{
		ID:       uuid.NewString(),
		Time:     r.now(),
		Message:  message,
		Device:   RefOf(dev),
		Username: username,
		Fields:   maps.Clone(fields),
	}

	for _, s := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := s.WriteEntry(ctx, e)
		cancel()
		if err != nil {
			r.logger.Error("event sink write failed",
				"sink", sinkName(s),
				"event_id", e.ID,
				"error", err,
			)
		}
	}
	return e
}

// RecordEvent is Record without the result; it satisfies home.Recorder.
func (r *Recorder) RecordEvent(message string, dev *device.Device, username string, fields map[string]any) {
	r.Record(message, dev, username, fields)
}

func sinkName(s Sink) string {
	switch s.(type) {
	case *TextFile:
		return "textfile"
	case *SQLiteSink:
		return "sqlite"
	case *MQTTSink:
		return "mqtt"
	case *InfluxSink:
		return "influxdb"
	case *LogSink:
		return "log"
	default:
		return "custom"
	}
}
