package eventlog

import (
	"context"
	"log/slog"
)

// LogSink writes entries to a structured logger at info level.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// WriteEntry logs e.
func (s *LogSink) WriteEntry(ctx context.Context, e Entry) error {
	attrs := []slog.Attr{
		slog.String("event_id", e.ID),
		slog.String("category", e.Category()),
	}
	if e.Username != "" {
		attrs = append(attrs, slog.String("username", e.Username))
	}
	if e.Device != nil {
		attrs = append(attrs,
			slog.String("device_id", e.Device.ID),
			slog.String("power", string(e.Device.Power)),
		)
	}
	for k, v := range e.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	level := slog.LevelInfo
	if e.IsAlert() {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, e.Message, attrs...)
	return nil
}
