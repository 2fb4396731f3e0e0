package validate

import (
	"net/http"
	"time"

	"github.com/and161185/folio-admin/internal/errs"
)

const opNextRun = "scheduler.next_run"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseISO parses the ISO-8601 forms the backend emits.
func ParseISO(s string) (time.Time, bool) {
	for _, l := range isoLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NextRun reads GET /scheduler/data-retention-next-run. Only 401 and 403
// are errors; every other failure, a null nextRun or an unparseable date
// yields nil.
func NextRun(resp *http.Response) (*time.Time, error) {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return nil, errs.WithStatus(errs.KindUnauthorized, opNextRun, resp.StatusCode)
	case http.StatusForbidden:
		return nil, errs.WithStatus(errs.KindForbidden, opNextRun, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 || !IsJSON(resp.Header.Get("Content-Type")) {
		return nil, nil
	}
	v, err := Parse(resp.Body, opNextRun)
	if err != nil {
		return nil, nil
	}
	o, ok := object(v)
	if !ok {
		return nil, nil
	}
	s, ok := nonEmpty(o, "nextRun")
	if !ok {
		return nil, nil
	}
	t, ok := ParseISO(s)
	if !ok {
		return nil, nil
	}
	return &t, nil
}
