package validate

import (
	"github.com/and161185/folio-admin/internal/model"
)

const opMessage = "validate.message"

// Message decodes one contact message. id must be a non-empty string,
// name/email/message strings; receivedAt is a string or null.
func Message(v any) (model.Message, error) {
	o, ok := object(v)
	if !ok {
		return model.Message{}, invalid(opMessage, "message is not an object")
	}
	id, okID := nonEmpty(o, "id")
	name, okName := str(o, "name")
	email, okEmail := str(o, "email")
	text, okText := str(o, "message")
	if !okID || !okName || !okEmail || !okText {
		return model.Message{}, invalid(opMessage, "required message fields missing")
	}
	var received string
	switch r := o["receivedAt"].(type) {
	case nil:
	case string:
		received = r
	default:
		return model.Message{}, invalid(opMessage, "receivedAt is neither string nor null")
	}
	return model.Message{ID: id, Name: name, Email: email, Message: text, ReceivedAt: received}, nil
}

// MessagesPage decodes GET /messages.
func MessagesPage(v any) (model.Page[model.Message], error) {
	return Page(v, "validate.messages", Message)
}
