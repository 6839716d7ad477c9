package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/campusnet/campus-api/api/responses"
	pkgerrors "github.com/campusnet/campus-api/pkg/errors"
	"github.com/campusnet/campus-api/pkg/logger"
)

const maxThrottleBody = 1 << 20

// rateLimiterStore counts one hit against scope and reports whether it is
// still within limit for the window. *redis.Client implements it.
type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ThrottlePolicy defines fixed-window limits for a traffic surface. Counters
// are kept per client IP and, when KeyField is set, per normalized value of
// that top-level JSON body field.
type ThrottlePolicy struct {
	name     string
	window   time.Duration
	ipLimit  int
	keyLimit int
	keyField string
}

// NewThrottlePolicy builds an IP-only policy.
func NewThrottlePolicy(name string, window time.Duration, ipLimit int) ThrottlePolicy {
	return ThrottlePolicy{
		name:    strings.ToLower(strings.TrimSpace(name)),
		window:  window,
		ipLimit: ipLimit,
	}
}

// WithBodyKey additionally limits requests sharing the same body field value,
// e.g. "email" on sign-in forms.
func (p ThrottlePolicy) WithBodyKey(field string, limit int) ThrottlePolicy {
	p.keyField = strings.TrimSpace(field)
	p.keyLimit = limit
	return p
}

func (p ThrottlePolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || (p.keyLimit > 0 && p.keyField != ""))
}

func (p ThrottlePolicy) normalizedName() string {
	if p.name == "" {
		return "default"
	}
	return p.name
}

func (p ThrottlePolicy) ipScope(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("ip:%s:%s", p.normalizedName(), ip)
}

func (p ThrottlePolicy) bodyScope(hash string) string {
	if hash == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s", p.keyField, p.normalizedName(), hash)
}

// Throttle enforces policy. Over-limit requests get a 429 envelope; a failing
// counter store yields 503.
func Throttle(policy ThrottlePolicy, store rateLimiterStore, rs *responses.Responder, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			if policy.ipLimit > 0 {
				if scope := policy.ipScope(ip); scope != "" {
					if allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.ipLimit), policy.window); err != nil {
						respondUnavailable(w, r, rs, logg, policy, err)
						return
					} else if !allowed {
						respondThrottled(w, r, rs, logg, policy, "ip", ip, count, policy.ipLimit)
						return
					}
				}
			}

			if policy.keyLimit > 0 && policy.keyField != "" && r.Body != nil {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxThrottleBody))
				if err != nil {
					rs.WriteError(w, r, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if value := normalizeKey(extractField(body, policy.keyField)); value != "" {
					hash := hashValue(value)
					if allowed, count, err := store.FixedWindowAllow(ctx, policy.bodyScope(hash), int64(policy.keyLimit), policy.window); err != nil {
						respondUnavailable(w, r, rs, logg, policy, err)
						return
					} else if !allowed {
						respondThrottled(w, r, rs, logg, policy, policy.keyField, hash, count, policy.keyLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// respondUnavailable fails closed. The 503 is classified and so never reaches
// the fault log; the warning here is the operator's signal.
func respondUnavailable(w http.ResponseWriter, r *http.Request, rs *responses.Responder, logg *logger.Logger, policy ThrottlePolicy, err error) {
	if logg != nil {
		logCtx := logg.WithFields(r.Context(), map[string]any{
			"policy": policy.normalizedName(),
			"error":  err.Error(),
		})
		logg.Warn(logCtx, "throttle.store_unavailable")
	}
	rs.WriteError(w, r, pkgerrors.Wrap(pkgerrors.CodeServiceUnavailable, err, "rate limiter unavailable"))
}

func respondThrottled(w http.ResponseWriter, r *http.Request, rs *responses.Responder, logg *logger.Logger, policy ThrottlePolicy, scope, subject string, count int64, limit int) {
	if logg != nil {
		logCtx := logg.WithFields(r.Context(), map[string]any{
			"scope":          scope,
			"subject":        subject,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		})
		logg.Warn(logCtx, "throttle.blocked")
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(policy.window.Seconds())))
	rs.WriteError(w, r, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
}

// clientIP assumes exactly one trusted proxy in front of the service that
// appends the peer address to X-Forwarded-For (and sets X-Real-IP). Only the
// right-most hop is trusted; earlier entries are client supplied.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		parts := strings.Split(header, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			if ip := strings.TrimSpace(parts[i]); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func extractField(payload []byte, field string) string {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return ""
	}
	if v, ok := body[field].(string); ok {
		return v
	}
	return ""
}

func normalizeKey(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func hashValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
