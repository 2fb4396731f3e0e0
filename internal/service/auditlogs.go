package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/validate"
)

const opAuditList = "audit_logs.list"

// AuditLogService reads the audit trail. There is no write side.
type AuditLogService interface {
	List(ctx context.Context, q model.AuditLogQuery) (model.Page[model.AuditLogEntry], error)
}

// AuditLogServiceImpl implements AuditLogService over the admin API.
type AuditLogServiceImpl struct{ api Doer }

// NewAuditLogService constructs an AuditLogService.
func NewAuditLogService(api Doer) *AuditLogServiceImpl { return &AuditLogServiceImpl{api: api} }

// AuditQuery builds the query string: page clamped to 0, filters trimmed
// and omitted when blank.
func AuditQuery(q model.AuditLogQuery) url.Values {
	v := url.Values{"page": {strconv.Itoa(max(q.Page, 0))}}
	for key, val := range map[string]string{
		"action":    q.Action,
		"userEmail": q.UserEmail,
		"dateFrom":  q.DateFrom,
		"dateTo":    q.DateTo,
	} {
		if s := strings.TrimSpace(val); s != "" {
			v.Set(key, s)
		}
	}
	return v
}

// List implements AuditLogService.
func (s *AuditLogServiceImpl) List(ctx context.Context, q model.AuditLogQuery) (model.Page[model.AuditLogEntry], error) {
	resp, err := s.api.Do(ctx, gateway.Request{Path: "/audit-logs", Query: AuditQuery(q)})
	if err != nil {
		return model.Page[model.AuditLogEntry]{}, withOp(opAuditList, err)
	}
	defer gateway.Drain(resp)

	v, err := validate.Check(resp, opAuditList, validate.Options{RateLimit: true})
	if err != nil {
		return model.Page[model.AuditLogEntry]{}, err
	}
	return validate.AuditLogsPage(v)
}
