// Package session reads and writes the storefront's session cookies.
// The auth token and cart ID are issued by the commerce backend; this
// package only carries them, it implements no session protocol.
package session

import (
	"net/http"
	"time"
)

const (
	AuthCookie = "_medusa_jwt"
	CartCookie = "_medusa_cart_id"

	cookieMaxAge = 7 * 24 * time.Hour
)

// Manager sets and clears session cookies with a consistent policy.
type Manager struct {
	secure bool
}

func NewManager(secure bool) *Manager {
	return &Manager{secure: secure}
}

// AuthToken returns the backend-issued JWT from the request, if present.
func AuthToken(r *http.Request) string {
	c, err := r.Cookie(AuthCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// CartID returns the active cart ID from the request, if present.
func CartID(r *http.Request) string {
	c, err := r.Cookie(CartCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (m *Manager) SetAuthToken(w http.ResponseWriter, token string) {
	http.SetCookie(w, m.cookie(AuthCookie, token, int(cookieMaxAge.Seconds())))
}

func (m *Manager) RemoveAuthToken(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie(AuthCookie, "", -1))
}

func (m *Manager) SetCartID(w http.ResponseWriter, cartID string) {
	http.SetCookie(w, m.cookie(CartCookie, cartID, int(cookieMaxAge.Seconds())))
}

func (m *Manager) RemoveCartID(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie(CartCookie, "", -1))
}

func (m *Manager) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   m.secure,
	}
}
