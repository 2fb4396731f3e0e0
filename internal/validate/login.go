package validate

import (
	"github.com/and161185/folio-admin/internal/model"
)

const opLogin = "validate.login"

// LoginReply is the decoded body of POST /login.
type LoginReply struct {
	Success bool
	Token   string
	User    model.User
	Message string
}

// LoginResponse decodes a login body. A successful reply must carry a token
// and a user with a numeric id and a username; a failed one may carry a
// message.
func LoginResponse(v any) (LoginReply, error) {
	o, ok := object(v)
	if !ok {
		return LoginReply{}, invalid(opLogin, "login body is not an object")
	}
	msg, _ := str(o, "message")
	if ok, _ := boolean(o, "success"); !ok {
		return LoginReply{Message: msg}, nil
	}
	token, ok := nonEmpty(o, "token")
	if !ok {
		return LoginReply{}, invalid(opLogin, "token missing")
	}
	u, ok := object(o["user"])
	if !ok {
		return LoginReply{}, invalid(opLogin, "user missing")
	}
	id, okID := integer(u, "id")
	name, okName := nonEmpty(u, "username")
	if !okID || !okName {
		return LoginReply{}, invalid(opLogin, "user id or username missing")
	}
	email, _ := str(u, "email")
	return LoginReply{
		Success: true,
		Token:   token,
		User:    model.User{ID: int64(id), Username: name, Email: email},
		Message: msg,
	}, nil
}

// Ack decodes the {success, message} acknowledgements used by logout,
// password reset and the contact form.
func Ack(v any) (success bool, message string) {
	o, ok := object(v)
	if !ok {
		return false, ""
	}
	success, _ = boolean(o, "success")
	message, _ = str(o, "message")
	return success, message
}
