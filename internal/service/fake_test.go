package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/and161185/folio-admin/internal/gateway"
)

type canned struct {
	status      int
	contentType string
	body        string
	err         error
}

func jsonReply(status int, body string) canned {
	return canned{status: status, contentType: "application/json", body: body}
}

// fakeAPI records requests and answers from a queue of canned replies.
type fakeAPI struct {
	mu      sync.Mutex
	reqs    []gateway.Request
	replies []canned
}

var _ Doer = (*fakeAPI)(nil)

func newFakeAPI(replies ...canned) *fakeAPI { return &fakeAPI{replies: replies} }

func (f *fakeAPI) Do(ctx context.Context, r gateway.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, r)
	if len(f.replies) == 0 {
		return nil, io.ErrUnexpectedEOF
	}
	c := f.replies[0]
	f.replies = f.replies[1:]
	if c.err != nil {
		return nil, c.err
	}
	h := http.Header{}
	if c.contentType != "" {
		h.Set("Content-Type", c.contentType)
	}
	return &http.Response{StatusCode: c.status, Header: h, Body: io.NopCloser(strings.NewReader(c.body))}, nil
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func (f *fakeAPI) last() gateway.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

// bodyJSON re-encodes the last request body as a generic map.
func (f *fakeAPI) bodyJSON() map[string]any {
	raw, _ := json.Marshal(f.last().Body)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	return m
}
