package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/and161185/folio-admin/internal/errs"
	"github.com/and161185/folio-admin/internal/gateway"
	"github.com/and161185/folio-admin/internal/validate"
)

// User-facing messages of the password reset flow.
const (
	PasswordHint      = "Almeno 8 caratteri, con lettere, numeri e un simbolo (es. # . - _ @ $ !)"
	PasswordMismatch  = "Le due password non coincidono."
	MissingResetToken = "Link non valido: manca il token. Richiedi un nuovo link di recupero."
)

const (
	resetFailedMessage    = "Richiesta non riuscita. Riprova più tardi."
	resetRateLimitMessage = "Troppe richieste. Riprova tra poco."
	minPasswordLen        = 8

	pathResetEmail   = "/auth/password-reset-email"
	pathResetConfirm = "/auth/password-reset"
)

// errWeakPassword carries PasswordHint as its text.
var errWeakPassword = errors.New(PasswordHint)

// ValidatePassword applies the client-side policy: at least 8 characters
// with a letter, a digit and a symbol. It returns PasswordHint as an
// errs.KindValidation error.
func ValidatePassword(pw string) error {
	var letter, digit, symbol bool
	for _, r := range pw {
		switch {
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			symbol = true
		}
	}
	if len([]rune(pw)) < minPasswordLen || !letter || !digit || !symbol {
		return errs.Wrap(errs.KindValidation, "session.password", errWeakPassword)
	}
	return nil
}

// RequestPasswordReset asks the backend to mail a reset link. The backend
// answers the same way whether or not the address exists.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) Result {
	email = strings.TrimSpace(email)
	if email == "" {
		return Result{Message: resetFailedMessage}
	}
	return m.ack(ctx, pathResetEmail, map[string]string{"email": email})
}

// ConfirmPasswordReset sets a new password with a token from the reset mail.
// The password policy is checked before anything is sent.
func (m *Manager) ConfirmPasswordReset(ctx context.Context, token, newPassword string) Result {
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Message: MissingResetToken}
	}
	if err := ValidatePassword(newPassword); err != nil {
		return Result{Message: PasswordHint}
	}
	return m.ack(ctx, pathResetConfirm, map[string]string{"token": token, "newPassword": newPassword})
}

func (m *Manager) ack(ctx context.Context, path string, body any) Result {
	resp, err := m.gw.Do(ctx, gateway.Request{Method: http.MethodPost, Path: path, Body: body, Anonymous: true})
	if err != nil {
		if errs.IsAborted(err) {
			return Result{}
		}
		m.log.Warn("password reset transport failure", zap.String("path", path), zap.Error(err))
		return Result{Message: BackendUnreachableMessage}
	}
	defer gateway.Drain(resp)

	if resp.StatusCode == http.StatusTooManyRequests {
		return Result{Message: resetRateLimitMessage}
	}
	v, err := readLenient(resp.Body)
	if err != nil {
		return Result{Message: resetFailedMessage}
	}
	ok, msg := validate.Ack(v)
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 && ok {
		return Result{Success: true, Message: msg}
	}
	if strings.TrimSpace(msg) == "" {
		msg = resetFailedMessage
	}
	return Result{Message: msg}
}
