package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/campusnet/campus-api/api/responses"
	pkgerrors "github.com/campusnet/campus-api/pkg/errors"
	"github.com/campusnet/campus-api/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is any dependency that can report its own liveness.
type Pinger interface {
	Ping(context.Context) error
}

func HealthLive() responses.HandlerFunc {
	return func(r *http.Request) (any, error) {
		return map[string]string{"status": "live"}, nil
	}
}

// HealthReady pings every named dependency; nil pingers are skipped.
func HealthReady(logg *logger.Logger, deps map[string]Pinger) responses.HandlerFunc {
	return func(r *http.Request) (any, error) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		var failed []string
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				checks[name] = "down"
				failed = append(failed, name)
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{"dependency": name, "error": err.Error()}), "health.dependency_down")
				}
				continue
			}
			checks[name] = "up"
		}

		if len(failed) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeServiceUnavailable, "dependencies unavailable").
				WithDetails(map[string]any{"checks": checks})
		}
		return map[string]any{"status": "ready", "checks": checks}, nil
	}
}
