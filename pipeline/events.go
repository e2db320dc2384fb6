package pipeline

import "log/slog"

// Level grades the severity of a crawl event.
type Level string

// Event severities.
const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event describes one observable occurrence during a crawl: a skipped
// product, a missing field, a completed category. Core code emits events
// instead of printing so presentation stays outside the pipeline.
type Event struct {
	Level    Level
	Category string
	URL      string
	Field    string
	Message  string
}

// Reporter consumes crawl events.
type Reporter interface {
	Report(ev Event)
}

// SlogReporter forwards events to a structured logger.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter wraps logger; nil falls back to slog.Default.
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{logger: logger}
}

// Report logs the event with its context as structured fields.
func (r *SlogReporter) Report(ev Event) {
	attrs := make([]any, 0, 6)
	if ev.Category != "" {
		attrs = append(attrs, slog.String("category", ev.Category))
	}
	if ev.URL != "" {
		attrs = append(attrs, slog.String("url", ev.URL))
	}
	if ev.Field != "" {
		attrs = append(attrs, slog.String("field", ev.Field))
	}

	switch ev.Level {
	case LevelError:
		r.logger.Error(ev.Message, attrs...)
	case LevelWarn:
		r.logger.Warn(ev.Message, attrs...)
	default:
		r.logger.Info(ev.Message, attrs...)
	}
}
