package middleware

import (
	"net/http"
	"strings"

	"github.com/campusnet/campus-api/api/responses"
	pkgerrors "github.com/campusnet/campus-api/pkg/errors"
	"github.com/campusnet/campus-api/pkg/security"
)

// RequireToken guards operational endpoints with a static bearer token. An
// empty token disables the check.
func RequireToken(token string, rs *responses.Responder) func(http.Handler) http.Handler {
	token = strings.TrimSpace(token)
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !security.ConstantTimeCompare(bearerToken(r), token) {
				rs.WriteError(w, r, pkgerrors.New(pkgerrors.CodeAuthRequired, "missing or invalid token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return ""
}
