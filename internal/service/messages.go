package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/model"
	"github.com/and161185/folio-admin/internal/validate"
)

const (
	opMessagesList   = "messages.list"
	opMessagesDelete = "messages.delete"
)

// MessageService reads and deletes contact-form messages.
type MessageService interface {
	// List returns one page; negative pages are clamped to 0.
	List(ctx context.Context, page int) (model.Page[model.Message], error)
	// Delete removes a message; the backend must answer 204.
	Delete(ctx context.Context, id string) error
}

// MessageServiceImpl implements MessageService over the admin API.
type MessageServiceImpl struct{ api Doer }

// NewMessageService constructs a MessageService.
func NewMessageService(api Doer) *MessageServiceImpl { return &MessageServiceImpl{api: api} }

// List implements MessageService.
func (s *MessageServiceImpl) List(ctx context.Context, page int) (model.Page[model.Message], error) {
	resp, err := s.api.Do(ctx, gateway.Request{
		Path:  "/messages",
		Query: url.Values{"page": {strconv.Itoa(max(page, 0))}},
	})
	if err != nil {
		return model.Page[model.Message]{}, withOp(opMessagesList, err)
	}
	defer gateway.Drain(resp)

	v, err := validate.Check(resp, opMessagesList, validate.Options{RateLimit: true})
	if err != nil {
		return model.Page[model.Message]{}, err
	}
	return validate.MessagesPage(v)
}

// Delete implements MessageService.
func (s *MessageServiceImpl) Delete(ctx context.Context, id string) error {
	pid, err := pathID(opMessagesDelete, id)
	if err != nil {
		return err
	}
	resp, err := s.api.Do(ctx, gateway.Request{Method: http.MethodDelete, Path: "/messages/" + pid})
	if err != nil {
		return withOp(opMessagesDelete, err)
	}
	defer gateway.Drain(resp)

	switch code := resp.StatusCode; code {
	case http.StatusNoContent:
		return nil
	case http.StatusUnauthorized:
		return errs.WithStatus(errs.KindUnauthorized, opMessagesDelete, code)
	case http.StatusForbidden:
		return errs.WithStatus(errs.KindForbidden, opMessagesDelete, code)
	case http.StatusNotFound:
		return errs.WithStatus(errs.KindNotFound, opMessagesDelete, code)
	default:
		return errs.WithStatus(errs.KindDeleteFailed, opMessagesDelete, code)
	}
}
