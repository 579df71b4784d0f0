package controllers

import (
	"net/http"
	"time"

	"go-storefront/middleware"

	"github.com/google/uuid"
)

// GuestCartCookie carries the opaque handle of an anonymous visitor's cart.
const GuestCartCookie = "guest_cart"

// CookieSettings controls the attributes of the cookies the API sets.
type CookieSettings struct {
	Secure     bool
	SessionTTL time.Duration
	GuestTTL   time.Duration
}

func (c CookieSettings) set(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieSettings) clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c CookieSettings) setSession(w http.ResponseWriter, token string) {
	c.set(w, middleware.SessionCookie, token, c.SessionTTL)
}

func (c CookieSettings) clearSession(w http.ResponseWriter) {
	c.clear(w, middleware.SessionCookie)
}

func guestHandle(r *http.Request) string {
	if ck, err := r.Cookie(GuestCartCookie); err == nil {
		if _, err := uuid.Parse(ck.Value); err == nil {
			return ck.Value
		}
	}
	return ""
}

// ensureGuestHandle returns the visitor's guest handle, issuing a new one
// when the request carries none.
func (c CookieSettings) ensureGuestHandle(w http.ResponseWriter, r *http.Request) string {
	if h := guestHandle(r); h != "" {
		return h
	}
	h := uuid.NewString()
	c.set(w, GuestCartCookie, h, c.GuestTTL)
	return h
}

func (c CookieSettings) clearGuest(w http.ResponseWriter) {
	c.clear(w, GuestCartCookie)
}
