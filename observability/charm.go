package observability

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

type charmLogger struct {
	l *charmlog.Logger
}

// NewCharmLogger adapts a charmbracelet/log logger writing to w.
func NewCharmLogger(w io.Writer, level charmlog.Level) Logger {
	return charmLogger{l: charmlog.NewWithOptions(w, charmlog.Options{
		Prefix: "nitf",
		Level:  level,
	})}
}

// WrapCharm adapts an existing charmbracelet/log logger.
func WrapCharm(l *charmlog.Logger) Logger {
	return charmLogger{l: l}
}

func (c charmLogger) Debug(msg string, fields ...Field) { c.l.Debug(msg, keyvals(fields)...) }
func (c charmLogger) Info(msg string, fields ...Field)  { c.l.Info(msg, keyvals(fields)...) }
func (c charmLogger) Warn(msg string, fields ...Field)  { c.l.Warn(msg, keyvals(fields)...) }
func (c charmLogger) Error(msg string, fields ...Field) { c.l.Error(msg, keyvals(fields)...) }

func (c charmLogger) With(fields ...Field) Logger {
	return charmLogger{l: c.l.With(keyvals(fields)...)}
}

func keyvals(fields []Field) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	kv := make([]interface{}, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key(), f.Value())
	}
	return kv
}
