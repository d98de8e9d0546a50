package contract

import "errors"

var (
	ErrModelInvoke         = errors.New("model invoke failed")
	ErrSchemaViolation     = errors.New("model response violates schema")
	ErrPromptMissing       = errors.New("required prompt is missing")
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("record not found")
	ErrCalendarUnavailable = errors.New("calendar unavailable")
	ErrUnknownTenant       = errors.New("unknown business")
)
