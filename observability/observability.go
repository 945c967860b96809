package observability

import "log/slog"

// Logger is the minimal structured logging contract used across the
// conversion pipeline. Components accept a Logger and default to NopLogger
// so library users pay nothing unless they opt in.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type int64Field struct {
	key string
	val int64
}

func (f int64Field) Key() string        { return f.key }
func (f int64Field) Value() interface{} { return f.val }

type boolField struct {
	key string
	val bool
}

func (f boolField) Key() string        { return f.key }
func (f boolField) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field      { return stringField{key, value} }
func Int(key string, value int) Field     { return intField{key, value} }
func Int64(key string, value int64) Field { return int64Field{key, value} }
func Bool(key string, value bool) Field   { return boolField{key, value} }
func Error(key string, err error) Field   { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// SlogLogger adapts a log/slog.Logger to the Logger interface.
type SlogLogger struct {
	base *slog.Logger
}

// NewSlogLogger wraps the provided slog logger; nil wraps slog.Default().
func NewSlogLogger(base *slog.Logger) SlogLogger {
	if base == nil {
		base = slog.Default()
	}
	return SlogLogger{base: base}
}

func (l SlogLogger) Debug(msg string, fields ...Field) { l.base.Debug(msg, slogArgs(fields)...) }
func (l SlogLogger) Info(msg string, fields ...Field)  { l.base.Info(msg, slogArgs(fields)...) }
func (l SlogLogger) Warn(msg string, fields ...Field)  { l.base.Warn(msg, slogArgs(fields)...) }
func (l SlogLogger) Error(msg string, fields ...Field) { l.base.Error(msg, slogArgs(fields)...) }

func (l SlogLogger) With(fields ...Field) Logger {
	return SlogLogger{base: l.base.With(slogArgs(fields)...)}
}

func slogArgs(fields []Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key(), f.Value())
	}
	return args
}

// Standard metric names emitted by the conversion pipeline.
const (
	MetricTaskDuration     = "convert.task.duration"
	MetricTaskCount        = "convert.tasks.count"
	MetricPageCount        = "convert.pages.count"
	MetricOCRDuration      = "convert.ocr.duration"
	MetricTablesRecovered  = "convert.tables.count"
	MetricRegionCandidates = "convert.table.regions"
)
