package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "skinstric_visitor"
	devSecret         = "skinstric-dev-secret-change-in-production"
)

type contextKey string

const visitorContextKey contextKey = "visitor"

// SessionManager issues and verifies signed visitor cookies. The cookie only
// carries the visitor id; everything else lives in the visitor store.
type SessionManager struct {
	secret []byte
	secure bool
	maxAge time.Duration
}

// NewSessionManager creates a session manager. An empty secret falls back to
// a development secret.
func NewSessionManager(secret string, secure bool, maxAge time.Duration) *SessionManager {
	if secret == "" {
		secret = devSecret
	}
	return &SessionManager{secret: []byte(secret), secure: secure, maxAge: maxAge}
}

// NewVisitorID returns a fresh random visitor id.
func NewVisitorID() string {
	return uuid.NewString()
}

// SetVisitorCookie writes the signed cookie for id.
func (sm *SessionManager) SetVisitorCookie(w http.ResponseWriter, id string) {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    id + "." + sm.signData(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if sm.maxAge > 0 {
		cookie.MaxAge = int(sm.maxAge.Seconds())
	}
	http.SetCookie(w, cookie)
}

// VisitorFromRequest returns the visitor id carried by a validly signed
// cookie, or "".
func (sm *SessionManager) VisitorFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	id, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !sm.verifySignature(id, signature) {
		return ""
	}
	if _, err := uuid.Parse(id); err != nil {
		return ""
	}
	return id
}

// Visitor makes sure every request has a visitor id, issuing a new cookie
// when the request carries none (or a forged one).
func Visitor(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sm.VisitorFromRequest(r)
			if id == "" {
				id = NewVisitorID()
			}
			// Refresh so the cookie lives as long as the visitor is active.
			sm.SetVisitorCookie(w, id)
			next.ServeHTTP(w, r.WithContext(SetVisitorInContext(r.Context(), id)))
		})
	}
}

// VisitorFromContext returns the visitor id set by the Visitor middleware.
func VisitorFromContext(ctx context.Context) string {
	id, _ := ctx.Value(visitorContextKey).(string)
	return id
}

// SetVisitorInContext adds a visitor id to the context.
// This is primarily for testing - use the Visitor middleware in production.
func SetVisitorInContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, visitorContextKey, id)
}

// signData creates an HMAC signature for data
func (sm *SessionManager) signData(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (sm *SessionManager) verifySignature(data, signature string) bool {
	expected := sm.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
