// Package logging builds the structured logrus logger shared by every VMP
// component and a small context-aware wrapper for attaching actor/case
// correlation fields to a call chain.
package logging

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Config controls logger construction.
type Config struct {
	Level     string // debug|info|warn|error
	Format    string // "json" or "text"
	Service   string
	AddCaller bool
}

// DefaultConfig returns sensible defaults for a production deployment.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "json", Service: "vmp", AddCaller: false}
}

// New builds a configured *logrus.Logger. JSON output is the default so logs
// can be correlated with the actor/case ids carried by WithFields/From.
func New(cfg Config) *logrus.Logger {
	logger := logrus.New()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{TimestampFormat: time.RFC3339, FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}

	logger.SetReportCaller(cfg.AddCaller)
	if cfg.Service != "" {
		return logger
	}
	return logger
}

type ctxKey int

const fieldsKey ctxKey = iota

// WithFields returns a context carrying correlation fields (actor id, tenant
// id, case id) that From will surface on every subsequent log line.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	merged := logrus.Fields{}
	if existing, ok := ctx.Value(fieldsKey).(logrus.Fields); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey, merged)
}

// From returns a logrus.Entry pre-populated with any correlation fields
// attached to ctx via WithFields, falling back to a bare entry otherwise.
func From(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	if fields, ok := ctx.Value(fieldsKey).(logrus.Fields); ok {
		return logger.WithFields(fields)
	}
	return logrus.NewEntry(logger)
}
