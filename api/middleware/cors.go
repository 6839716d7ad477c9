package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/campusnet/campus-api/pkg/config"
	"github.com/campusnet/campus-api/pkg/requestid"
)

// CORS returns middleware that applies the configured allowed origin policy
// for the web client.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestid.Header, "X-Requested-With"},
		ExposedHeaders:   []string{requestid.Header},
		AllowCredentials: true,
		MaxAge:           cfg.MaxAgeSeconds,
	}).Handler
}
