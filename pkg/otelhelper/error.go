package otelhelper

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks the span failed. When err names a form field, such as a duplicate email
// reported at commit, the field is recorded under ErrorFieldKey.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	var fieldErr interface{ Field() string }
	if errors.As(err, &fieldErr) {
		attrs = append(attrs, attribute.String(ErrorFieldKey, fieldErr.Field()))
	}

	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}
