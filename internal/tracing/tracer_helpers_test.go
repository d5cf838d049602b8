package tracing

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

func withAttrs(kvs ...attribute.KeyValue) trace.EventOption {
	return trace.WithAttributes(kvs...)
}

// gjsonEscape escapes the dots in attribute keys for gjson paths.
func gjsonEscape(key string) string {
	return strings.ReplaceAll(key, ".", `\.`)
}
