// Package validate turns untrusted backend responses into typed records.
//
// Every decoder is a pure function over a decoded JSON value (any). Decoders
// either return a fully typed value or a classified *errs.Error; they never
// panic on hostile input.
package validate

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/and161185/folio-admin/internal/errs"
)

// maxBody bounds how much of a response body is read before decoding.
const maxBody = 8 << 20

// Options enables the optional status classifications of a resource.
type Options struct {
	NotFound  bool // 404 -> NOT_FOUND
	Conflict  bool // 409 -> CONFLICT
	RateLimit bool // 429 -> RATE_LIMIT
}

// Status classifies an HTTP status code. It returns nil for 2xx.
// Precedence: 401, 403, 404, 409, 429, then any other non-2xx.
func Status(code int, op string, o Options) error {
	switch {
	case code == http.StatusUnauthorized:
		return errs.WithStatus(errs.KindUnauthorized, op, code)
	case code == http.StatusForbidden:
		return errs.WithStatus(errs.KindForbidden, op, code)
	case code == http.StatusNotFound && o.NotFound:
		return errs.WithStatus(errs.KindNotFound, op, code)
	case code == http.StatusConflict && o.Conflict:
		return errs.WithStatus(errs.KindConflict, op, code)
	case code == http.StatusTooManyRequests && o.RateLimit:
		return errs.WithStatus(errs.KindRateLimit, op, code)
	case code < 200 || code > 299:
		return errs.WithStatus(errs.KindFetchFailed, op, code)
	}
	return nil
}

// IsJSON reports whether a Content-Type header announces JSON.
func IsJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

// Check runs the shared pipeline: status, content type, then JSON parsing.
// The body is not read when the status or the content type is rejected.
// The caller still owns resp.Body.
func Check(resp *http.Response, op string, o Options) (any, error) {
	if err := Status(resp.StatusCode, op, o); err != nil {
		return nil, err
	}
	if !IsJSON(resp.Header.Get("Content-Type")) {
		return nil, errs.WithStatus(errs.KindInvalidResponse, op, resp.StatusCode)
	}
	return Parse(resp.Body, op)
}

// Parse decodes one JSON value from r.
func Parse(r io.Reader, op string) (any, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxBody))
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidJSON, op, err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errs.Wrap(errs.KindInvalidJSON, op, err)
	}
	return v, nil
}

func invalid(op, format string, args ...any) error {
	return errs.Wrap(errs.KindInvalidResponse, op, fmt.Errorf(format, args...))
}

func object(v any) (map[string]any, bool) {
	o, ok := v.(map[string]any)
	return o, ok && o != nil
}

func str(o map[string]any, key string) (string, bool) {
	s, ok := o[key].(string)
	return s, ok
}

func nonEmpty(o map[string]any, key string) (string, bool) {
	s, ok := str(o, key)
	return s, ok && s != ""
}

func integer(o map[string]any, key string) (int, bool) {
	f, ok := o[key].(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

func boolean(o map[string]any, key string) (bool, bool) {
	b, ok := o[key].(bool)
	return b, ok
}

// clamp renders v as text (null -> "") and keeps at most n runes.
func clamp(v any, n int) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}
	return truncate(s, n)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
