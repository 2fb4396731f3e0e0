package fakeapi

import (
	"encoding/hex"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/and161185/folio-admin/internal/crypto"
	"github.com/and161185/folio-admin/internal/limiter"
)

// Backend messages, as the real service words them.
const (
	msgBadCredentials = "Username/email o password non validi."
	msgTooManyLogins  = "Troppi tentativi di accesso. Riprova più tardi."
	msgLoggedOut      = "Logout effettuato."
	msgResetSent      = "Se l'email è registrata, riceverai un link per il reset della password."
	msgResetDone      = "Password aggiornata con successo. Tutti i dispositivi sono stati disconnessi."
	msgResetInvalid   = "Token non valido, scaduto o già utilizzato."
)

func (s *Server) issueToken(username string) (string, error) {
	now := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        newID(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return "", err
	}
	s.st.issued[claims.ID] = struct{}{}
	return tok, nil
}

// parseToken verifies an HS256 token and returns its claims. Revocation is
// checked by the caller.
func (s *Server) parseToken(tok string) (jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return jwt.RegisteredClaims{}, errors.New("invalid token")
	}
	v := jwt.NewValidator(jwt.WithLeeway(30*time.Second), jwt.WithTimeFunc(s.now))
	if err := v.Validate(&claims); err != nil {
		return jwt.RegisteredClaims{}, errors.New("token expired or not valid yet")
	}
	return claims, nil
}

// authenticate returns the admin username of a live bearer token.
func (s *Server) authenticate(r *http.Request) (string, error) {
	tok := bearer(r)
	if tok == "" {
		return "", errors.New("no bearer token")
	}
	claims, err := s.parseToken(tok)
	if err != nil {
		return "", err
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.issued[claims.ID]; !ok {
		return "", errors.New("token revoked")
	}
	if claims.Subject != s.st.admin.Username {
		return "", errors.New("unknown subject")
	}
	return claims.Subject, nil
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !readJSON(w, r, &req) {
		return
	}
	ctx := r.Context()
	ip := clientIP(r)
	login := limiter.NormalizeLogin(req.Login)
	client := limiter.HashClient(ip)

	allowed, wait, err := s.limiter.Allow(ctx, login, client)
	if err != nil {
		s.log.Error("limiter allow", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Errore interno.")
		return
	}
	if !allowed {
		tooMany(w, wait)
		return
	}

	s.st.mu.Lock()
	a := s.st.admin
	match := (login == strings.ToLower(a.Username) || login == strings.ToLower(a.Email)) &&
		a.Password.Matches(req.Password)
	if !match {
		s.st.audited(s.now(), req.Login, "LOGIN_FAILED", "AUTH", "", ip)
		s.st.mu.Unlock()

		blocked, wait, err := s.limiter.Failure(ctx, login, client)
		if err != nil {
			s.log.Error("limiter failure", zap.Error(err))
		}
		if blocked {
			tooMany(w, wait)
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": msgBadCredentials})
		return
	}
	tok, err := s.issueToken(a.Username)
	if err == nil {
		s.st.audited(s.now(), a.Email, "LOGIN_SUCCESS", "AUTH", "", ip)
	}
	s.st.mu.Unlock()
	if err != nil {
		s.log.Error("sign token", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Errore interno.")
		return
	}
	if err := s.limiter.Success(ctx, login, client); err != nil {
		s.log.Warn("limiter success", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   tok,
		"user":    map[string]any{"id": a.ID, "username": a.Username, "email": a.Email},
	})
}

// logout revokes the presented token. It always succeeds.
func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if tok := bearer(r); tok != "" {
		if claims, err := s.parseToken(tok); err == nil {
			s.st.mu.Lock()
			if _, ok := s.st.issued[claims.ID]; ok {
				delete(s.st.issued, claims.ID)
				s.st.audited(s.now(), s.st.admin.Email, "LOGOUT", "AUTH", "", clientIP(r))
			}
			s.st.mu.Unlock()
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgLoggedOut})
}

// requestReset answers the same way whether or not the email is known.
func (s *Server) requestReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.st.mu.Lock()
	if strings.EqualFold(strings.TrimSpace(req.Email), s.st.admin.Email) {
		if b, err := crypto.RandBytes(24); err == nil {
			s.st.resets[hex.EncodeToString(b)] = s.now().Add(s.resetTTL)
		} else {
			s.log.Error("reset token", zap.Error(err))
		}
	}
	s.st.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgResetSent})
}

// confirmReset consumes a reset token, sets the password and revokes every
// issued token.
func (s *Server) confirmReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	s.st.mu.Lock()
	exp, ok := s.st.resets[req.Token]
	if ok {
		delete(s.st.resets, req.Token)
	}
	if !ok || s.now().After(exp) {
		s.st.mu.Unlock()
		resetRejected(w)
		return
	}
	h, err := crypto.NewPasswordHash(req.NewPassword)
	if err != nil {
		s.st.mu.Unlock()
		resetRejected(w)
		return
	}
	s.st.admin.Password = h
	clear(s.st.issued)
	s.st.audited(s.now(), s.st.admin.Email, "PASSWORD_RESET", "AUTH", "", clientIP(r))
	s.st.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msgResetDone})
}

// ResetToken returns a pending reset token, as the reset mail would carry
// it. ok is false when none was requested.
func (s *Server) ResetToken() (token string, ok bool) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for t := range s.st.resets {
		return t, true
	}
	return "", false
}

func tooMany(w http.ResponseWriter, wait time.Duration) {
	if secs := int(wait.Round(time.Second) / time.Second); secs > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	writeJSON(w, http.StatusTooManyRequests, map[string]any{"success": false, "message": msgTooManyLogins})
}

func resetRejected(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"status": http.StatusBadRequest, "success": false, "message": msgResetInvalid,
	})
}
