package validate

import (
	"github.com/and161185/folio-admin/internal/model"
)

// Length bounds applied to audit-log fields.
const (
	MaxActionLen = 100
	MaxEntityLen = 80
	MaxUserLen   = 255
	MaxIPLen     = 64

	maxTimestampLen = 64
)

const opAuditLog = "validate.audit_log"

// AuditLogEntry decodes one audit-log row. Only id and action are required;
// the backend's actor and resourceType are renamed to UserEmail and Entity.
func AuditLogEntry(v any) (model.AuditLogEntry, error) {
	o, ok := object(v)
	if !ok {
		return model.AuditLogEntry{}, invalid(opAuditLog, "entry is not an object")
	}
	id, okID := str(o, "id")
	action, okAction := str(o, "action")
	if !okID || !okAction {
		return model.AuditLogEntry{}, invalid(opAuditLog, "id or action missing")
	}
	return model.AuditLogEntry{
		ID:        id,
		Action:    truncate(action, MaxActionLen),
		Entity:    clamp(o["resourceType"], MaxEntityLen),
		UserEmail: clamp(o["actor"], MaxUserLen),
		Timestamp: clamp(o["timestamp"], maxTimestampLen),
		IPAddress: clamp(o["ipAddress"], MaxIPLen),
	}, nil
}

// AuditLogsPage decodes GET /audit-logs.
func AuditLogsPage(v any) (model.Page[model.AuditLogEntry], error) {
	return Page(v, "validate.audit_logs", AuditLogEntry)
}
