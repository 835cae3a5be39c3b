package logging

import "log/slog"

// Common structured log field keys to keep logs searchable.
const (
	FieldService    = "service"
	FieldVersion    = "version"
	FieldRequestID  = "request_id"
	FieldPath       = "path"
	FieldMethod     = "method"
	FieldStatusCode = "status_code"
	FieldDurationMS = "duration_ms"
	FieldWeek       = "week"
	FieldSlotID     = "slot_id"
	FieldTeamID     = "team_id"
	FieldTaskID     = "task_id"
	FieldCount      = "count"
	FieldSource     = "source"
)

// WithCommon appends service/version fields when provided.
func WithCommon(attrs []slog.Attr, service, version string) []slog.Attr {
	if service != "" {
		attrs = append(attrs, slog.String(FieldService, service))
	}
	if version != "" {
		attrs = append(attrs, slog.String(FieldVersion, version))
	}
	return attrs
}
