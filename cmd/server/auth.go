package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	sessionCookieName = "bq_visitor"
	sessionMaxAge     = 365 * 24 * time.Hour
)

type visitorKey struct{}

// visitorService issues and verifies the signed cookie that identifies an
// anonymous visitor. The visitor id owns saved material packages.
type visitorService struct {
	sessionSecret []byte
	secure        bool
}

func newVisitorService(sessionSecret string, secure bool) *visitorService {
	return &visitorService{sessionSecret: []byte(sessionSecret), secure: secure}
}

func (v *visitorService) createSessionValue(visitorID string) string {
	payload := base64.RawURLEncoding.EncodeToString([]byte(visitorID))
	return payload + "." + v.sign(payload)
}

func (v *visitorService) verifySessionValue(value string) (string, bool) {
	payload, signature, ok := strings.Cut(value, ".")
	if !ok || strings.Contains(signature, ".") {
		return "", false
	}

	provided, err := hex.DecodeString(signature)
	if err != nil {
		return "", false
	}
	expected, _ := hex.DecodeString(v.sign(payload))
	if !hmac.Equal(provided, expected) {
		return "", false
	}

	decoded, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(string(decoded))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func (v *visitorService) sign(payload string) string {
	mac := hmac.New(sha256.New, v.sessionSecret)
	_, _ = mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *visitorService) setSessionCookie(w http.ResponseWriter, visitorID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    v.createSessionValue(visitorID),
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   v.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// middleware attaches the visitor id to the request context, issuing a new
// one when the cookie is missing or fails verification.
func (v *visitorService) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var visitorID string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			visitorID, _ = v.verifySessionValue(cookie.Value)
		}
		if visitorID == "" {
			visitorID = uuid.NewString()
			v.setSessionCookie(w, visitorID)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), visitorKey{}, visitorID)))
	})
}

func visitorFrom(ctx context.Context) string {
	id, _ := ctx.Value(visitorKey{}).(string)
	return id
}
