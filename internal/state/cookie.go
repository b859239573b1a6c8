package state

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// CookieStore keeps each value in one cookie on the client, URL-escaped
// so arbitrary JSON survives the cookie value grammar. It is scoped to
// a single request/response pair.
type CookieStore struct {
	w http.ResponseWriter
	r *http.Request
}

func NewCookieStore(w http.ResponseWriter, r *http.Request) *CookieStore {
	return &CookieStore{w: w, r: r}
}

func (s *CookieStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	cookie, err := s.r.Cookie(name)
	if err != nil {
		return nil, false, nil
	}
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		// A cookie we cannot decode is treated as absent rather than
		// poisoning the whole session.
		return nil, false, nil
	}
	return []byte(value), true, nil
}

func (s *CookieStore) Set(_ context.Context, name string, data []byte) error {
	http.SetCookie(s.w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(string(data)),
		Path:     "/",
		Expires:  time.Now().Add(TTL),
		MaxAge:   int(TTL / time.Second),
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
