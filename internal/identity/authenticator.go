package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated covers every way a request can fail to carry a
	// verified identity: no token, a bad signature, an expired token,
	// or a token without a subject.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUserNotFound means a verified subject has no internal user
	// row. Callers map it to the same response as ErrUnauthenticated
	// so account existence is not leaked.
	ErrUserNotFound = errors.New("user not found")
)

// TokenAuthenticator verifies HMAC-signed bearer tokens and extracts
// the subject claim.
type TokenAuthenticator struct {
	secret []byte
}

func NewTokenAuthenticator(secret []byte) *TokenAuthenticator {
	return &TokenAuthenticator{secret: secret}
}

// Authenticate returns the verified subject of the request's bearer
// token, or ErrUnauthenticated.
func (a *TokenAuthenticator) Authenticate(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return "", ErrUnauthenticated
	}

	token, err := jwt.Parse(raw,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil || !token.Valid {
		return "", ErrUnauthenticated
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrUnauthenticated
	}

	return subject, nil
}
