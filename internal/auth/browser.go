// internal/auth/browser.go
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
)

// BrowserCookieName is the cookie carrying the server-issued guest id.
const BrowserCookieName = "browser-id"

// browserIDBytes is the entropy of a generated browser id (hex-encoded to
// twice this length on the wire).
const browserIDBytes = 16

// NewBrowserID generates a fresh opaque guest id.
func NewBrowserID() (string, error) {
	buf := make([]byte, browserIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("browser id entropy: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// EnsureBrowserID returns the request's browser id, issuing and setting a new
// cookie when the request has none. The cookie must be written before the
// websocket upgrade response is sent.
func EnsureBrowserID(w http.ResponseWriter, r *http.Request) (string, error) {
	if c, err := r.Cookie(BrowserCookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	id, err := NewBrowserID()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     BrowserCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   60 * 60 * 24 * 365,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}
