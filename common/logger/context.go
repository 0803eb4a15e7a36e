package logger

import "context"

type logFieldsKey struct{}

// LogFields carries request-scoped identifiers that every log line within the
// request should include. Populated by middleware and service entry points.
type LogFields struct {
	UserID     *int64
	Platform   *string
	NudgeJobID *int64
	Days       *int
	Component  string
}

// WithLogFields returns a context carrying the merged log fields.
// Non-nil fields in the argument override fields already present.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	existing := GetLogFields(ctx)

	if fields.UserID != nil {
		existing.UserID = fields.UserID
	}
	if fields.Platform != nil {
		existing.Platform = fields.Platform
	}
	if fields.NudgeJobID != nil {
		existing.NudgeJobID = fields.NudgeJobID
	}
	if fields.Days != nil {
		existing.Days = fields.Days
	}
	if fields.Component != "" {
		existing.Component = fields.Component
	}

	return context.WithValue(ctx, logFieldsKey{}, existing)
}

// GetLogFields extracts log fields from the context.
// Returns the zero value when none are set.
func GetLogFields(ctx context.Context) LogFields {
	fields, _ := ctx.Value(logFieldsKey{}).(LogFields)
	return fields
}
