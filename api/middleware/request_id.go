package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/campusnet/campus-api/pkg/logger"
	"github.com/campusnet/campus-api/pkg/requestid"
)

const maxRequestIDLen = 128

// RequestID keeps a caller supplied X-Request-Id or mints one, echoes it on
// the response and propagates it through the context.
func RequestID(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := strings.TrimSpace(r.Header.Get(requestid.Header))
			if reqID == "" || len(reqID) > maxRequestIDLen {
				reqID = uuid.NewString()
			}

			w.Header().Set(requestid.Header, reqID)

			ctx := requestid.WithContext(r.Context(), reqID)
			if logg != nil {
				ctx = logg.WithRequestID(ctx, reqID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
