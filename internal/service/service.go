// Package service wraps the backend endpoints consumed by the admin and the
// public site. Every call goes through the gateway and returns typed records
// or classified errors from internal/errs.
package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/gateway"
)

// Doer sends one backend request. *gateway.Client implements it.
type Doer interface {
	Do(ctx context.Context, r gateway.Request) (*http.Response, error)
}

var _ Doer = (*gateway.Client)(nil)

// pathID trims and escapes an id for use as a path segment.
func pathID(op, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errs.New(errs.KindInvalidID, op)
	}
	return url.PathEscape(id), nil
}

// withOp re-labels classified transport errors with the service operation.
func withOp(op string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) && e.Op != op {
		return &errs.Error{Kind: e.Kind, Op: op, Status: e.Status, Err: e.Err}
	}
	return err
}
