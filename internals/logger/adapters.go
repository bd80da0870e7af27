package logger

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/hashicorp/go-retryablehttp"
)

/* =========================================================
   watermill
========================================================= */

type watermillAdapter struct {
	l      *Logger
	fields watermill.LogFields
}

// Watermill exposes the logger as a watermill.LoggerAdapter.
func (l *Logger) Watermill() watermill.LoggerAdapter {
	return &watermillAdapter{l: l.Named("watermill")}
}

func (w *watermillAdapter) kv(fields watermill.LogFields) []interface{} {
	all := w.fields.Add(fields)
	out := make([]interface{}, 0, len(all)*2)
	for k, v := range all {
		out = append(out, k, v)
	}
	return out
}

func (w *watermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	w.l.Errorw(msg, append(w.kv(fields), "error", err)...)
}

func (w *watermillAdapter) Info(msg string, fields watermill.LogFields) {
	w.l.Infow(msg, w.kv(fields)...)
}

func (w *watermillAdapter) Debug(msg string, fields watermill.LogFields) {
	w.l.Debugw(msg, w.kv(fields)...)
}

// Trace is too chatty for zap's debug level, so it is dropped.
func (w *watermillAdapter) Trace(string, watermill.LogFields) {}

func (w *watermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &watermillAdapter{l: w.l, fields: w.fields.Add(fields)}
}

/* =========================================================
   retryablehttp
========================================================= */

type leveled struct{ l *Logger }

// Retryable exposes the logger as a retryablehttp.LeveledLogger.
func (l *Logger) Retryable() retryablehttp.LeveledLogger {
	return leveled{l: l.Named("http")}
}

func (r leveled) Error(msg string, kv ...interface{}) { r.l.Errorw(msg, kv...) }
func (r leveled) Info(msg string, kv ...interface{})  { r.l.Debugw(msg, kv...) }
func (r leveled) Debug(msg string, kv ...interface{}) { r.l.Debugw(msg, kv...) }
func (r leveled) Warn(msg string, kv ...interface{})  { r.l.Warnw(msg, kv...) }
