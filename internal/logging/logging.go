// Package logging configures logrus and carries request-scoped entries in a
// context.
package logging

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type contextKey int

const (
	entryKey contextKey = iota
	requestIDKey
)

// Setup sets the global level and formatter.
func Setup(level, format string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(lvl)

	switch format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		// Set the log format to include a leading timestamp in ISO8601 format
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}
	return nil
}

// WithEntry stores entry in ctx.
func WithEntry(ctx context.Context, entry *log.Entry) context.Context {
	return context.WithValue(ctx, entryKey, entry)
}

// FromContext returns the entry stored in ctx, or one on the standard logger.
func FromContext(ctx context.Context) *log.Entry {
	if ctx != nil {
		if entry, ok := ctx.Value(entryKey).(*log.Entry); ok && entry != nil {
			return entry
		}
	}
	return log.NewEntry(log.StandardLogger())
}

// WithRequestID tags ctx and its entry with a request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey, id)
	return WithEntry(ctx, FromContext(ctx).WithField("request_id", id))
}

// RequestID returns the request id of ctx, or "".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}
