package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"shiprate/internal/requestctx"
)

var errMissingToken = errors.New("missing bearer token")

// authMiddleware puts the caller's user id into the request context. With a
// secret it requires an HS256 bearer token and uses its subject; without one
// it trusts the X-User-ID header, which is only suitable for local use.
func authMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			if len(secret) == 0 {
				userID = strings.TrimSpace(r.Header.Get("X-User-ID"))
			} else {
				sub, err := subjectFromBearer(r.Header.Get("Authorization"), secret)
				if err != nil {
					writeErrorJSON(w, http.StatusUnauthorized, "unauthorized", "valid bearer token required")
					return
				}
				userID = sub
			}
			if userID == "" {
				writeErrorJSON(w, http.StatusUnauthorized, "unauthorized", "user identity required")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithUserID(r.Context(), userID)))
		})
	}
}

func subjectFromBearer(header string, secret []byte) (string, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(header), "Bearer ")
	if !ok || strings.TrimSpace(raw) == "" {
		return "", errMissingToken
	}
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(claims.Subject), nil
}
