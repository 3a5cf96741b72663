package main

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/store"
)

const (
	sessionCookieName = "foamdesk_session"
	defaultCompany    = "My Spray Foam Co"
)

var errCredentialsRequired = errors.New("username and password are required")

type authService struct {
	store         *store.Store
	sessionSecret []byte
}

// newAuthService signs cookies with sessionSecret, or with a random per-process key when
// it is empty.
func newAuthService(st *store.Store, sessionSecret string) (*authService, error) {
	secret := []byte(sessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
	}
	return &authService{store: st, sessionSecret: secret}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Company  string `json:"company"`
}

// login records the session. The password must be present but is not checked.
func (a *authService) login(ctx context.Context, req loginRequest, now time.Time) (model.Session, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return model.Session{}, errCredentialsRequired
	}
	company := strings.TrimSpace(req.Company)
	if company == "" {
		company = defaultCompany
	}

	session := model.Session{
		Username:        username,
		Company:         company,
		IsAuthenticated: true,
		LoggedInAt:      now.UTC(),
	}
	if err := a.store.SaveSession(ctx, session); err != nil {
		return model.Session{}, err
	}
	return session, nil
}

// current returns the stored session when the request carries a valid cookie for it.
func (a *authService) current(r *http.Request) (model.Session, bool) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return model.Session{}, false
	}
	username, ok := a.verifySessionValue(cookie.Value)
	if !ok {
		return model.Session{}, false
	}

	session, err := a.store.GetSession(r.Context())
	if err != nil || session.Username != username {
		return model.Session{}, false
	}
	return session, true
}

func (a *authService) createSessionValue(username string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(username))
	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	return payload + "." + signature
}

func (a *authService) verifySessionValue(value string) (string, bool) {
	payload, signature, found := strings.Cut(value, ".")
	if !found {
		return "", false
	}

	mac := hmac.New(sha256.New, a.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	expected := mac.Sum(nil)

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", false
	}

	return string(decoded), true
}

func (a *authService) setSessionCookie(w http.ResponseWriter, username string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    a.createSessionValue(username),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *authService) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type sessionKey struct{}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := s.auth.current(r)
		if !ok {
			writeJSONError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	})
}

func sessionFrom(ctx context.Context) (model.Session, bool) {
	session, ok := ctx.Value(sessionKey{}).(model.Session)
	return session, ok
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	session, err := s.auth.login(r.Context(), req, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.auth.setSessionCookie(w, session.Username)
	writeJSON(w, http.StatusOK, session)
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSession(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.auth.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleMe(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, session)
}
