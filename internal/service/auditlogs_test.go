package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/folio-admin/internal/model"
)

func TestAuditQuery(t *testing.T) {
	t.Parallel()
	q := AuditQuery(model.AuditLogQuery{Page: -1, Action: " LOGIN_SUCCESS ", UserEmail: "  ", DateFrom: "2026-01-01"})
	require.Equal(t, "action=LOGIN_SUCCESS&dateFrom=2026-01-01&page=0", q.Encode())
}

func TestAuditLogService_List(t *testing.T) {
	t.Parallel()
	api := newFakeAPI(jsonReply(200, `{"content":[{"id":"1","action":"LOGIN","resourceType":"User","actor":"a@x.io",
"timestamp":"2026-01-01T10:00:00Z","ipAddress":"192.168.100.200"}],"totalPages":1,"totalElements":1,"number":0,"size":20,"first":true,"last":true}`))

	p, err := NewAuditLogService(api).List(context.Background(), model.AuditLogQuery{Page: 2, Action: "LOGIN"})
	require.NoError(t, err)
	require.Equal(t, "/audit-logs", api.last().Path)
	require.Equal(t, "2", api.last().Query.Get("page"))
	require.Equal(t, "a@x.io", p.Content[0].UserEmail)
	require.Equal(t, "User", p.Content[0].Entity)
	require.Equal(t, "192.168.…", p.Content[0].DisplayIP())
}
