package httpserver

import (
	"net/http"
	"time"
)

type Cookies struct {
	Enabled  bool
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// CreateCookie expires together with the token it carries, or earlier when MaxAge is shorter.
func (k Cookies) CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	if k.MaxAge > 0 {
		if limit := time.Now().Add(k.MaxAge); limit.Before(exp) {
			exp = limit
		}
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: k.SameSite,
	}
}

func (k Cookies) DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   k.Secure,
		SameSite: k.SameSite,
	}
}
