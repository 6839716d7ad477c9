package responses

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	pkgerrors "github.com/campusnet/campus-api/pkg/errors"
	"github.com/campusnet/campus-api/pkg/logger"
	"github.com/campusnet/campus-api/pkg/requestid"
	"github.com/campusnet/campus-api/pkg/types"
)

const DefaultVersion = "1.0"

// ErrorObserver receives one call per error envelope written.
type ErrorObserver interface {
	ObserveError(code string, status int, classified bool)
}

type Options struct {
	Logger  *logger.Logger
	Version string
	Metrics ErrorObserver
}

// Responder writes every response of the API as an envelope. It is safe for
// concurrent use.
type Responder struct {
	logg    *logger.Logger
	version string
	metrics ErrorObserver
}

func New(opts Options) *Responder {
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = DefaultVersion
	}
	return &Responder{
		logg:    opts.Logger,
		version: version,
		metrics: opts.Metrics,
	}
}

// HandlerFunc is a request handler that returns its result instead of
// writing it.
type HandlerFunc func(r *http.Request) (any, error)

type statusValue struct {
	status int
	value  any
}

// Status lets a HandlerFunc choose a success status other than 200.
func Status(status int, value any) any {
	return statusValue{status: status, value: value}
}

// Handle installs the envelope boundary around h: returned errors are
// translated, returned values are wrapped.
func (rs *Responder) Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value, err := h(r)
		if err != nil {
			rs.WriteError(w, r, err)
			return
		}
		status := http.StatusOK
		if sv, ok := value.(statusValue); ok {
			value = sv.value
			if sv.status != 0 {
				status = sv.status
			}
		}
		rs.WriteSuccess(w, r, status, value)
	}
}

func (rs *Responder) WriteSuccess(w http.ResponseWriter, r *http.Request, status int, value any) {
	if err := writeJSON(w, status, Wrap(value, rs.Meta(r))); err != nil {
		rs.WriteError(w, r, fmt.Errorf("encode response: %w", err))
	}
}

// WriteError is the terminal step for a failed request.
func (rs *Responder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	apiErr, classified := Translate(err)
	if !classified {
		rs.LogFault(r, err)
	}
	if rs.metrics != nil {
		rs.metrics.ObserveError(apiErr.Code, apiErr.StatusCode, classified)
	}

	env := types.Envelope{
		Success: false,
		Error:   &apiErr,
		Meta:    buildMeta(rs.Meta(r)),
	}
	if encErr := writeJSON(w, apiErr.StatusCode, env); encErr != nil {
		apiErr.Details = nil
		if encErr = writeJSON(w, apiErr.StatusCode, env); encErr != nil {
			log.Printf(`{"level":"error","msg":"failed to encode error envelope","err":"%v"}`, encErr)
		}
	}
}

// NotFound and MethodNotAllowed plug into the router's fallbacks.
func (rs *Responder) NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.WriteError(w, r, pkgerrors.NewHTTP(http.StatusNotFound, "route "+r.Method+" "+r.URL.Path+" not found"))
	}
}

func (rs *Responder) MethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rs.WriteError(w, r, pkgerrors.NewWithStatus("METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed, "method "+r.Method+" not allowed"))
	}
}

// Meta returns the per-request metadata every envelope carries: the API
// version and, when known, the request id.
func (rs *Responder) Meta(r *http.Request) types.Meta {
	meta := types.Meta{"version": rs.version}
	if id := requestid.FromRequest(r); id != "" {
		meta["requestId"] = id
	}
	return meta
}

// LogFault sends an unclassified fault to the operational log with its stack
// and route.
func (rs *Responder) LogFault(r *http.Request, err error) {
	if rs.logg == nil || r == nil {
		return
	}
	dump := pkgerrors.Dump(err)
	ctx := rs.logg.WithRoute(r.Context(), r.Method, r.URL.Path)
	ctx = rs.logg.WithFields(ctx, map[string]any{
		"error_chain": dump.Chain,
	})
	rs.logg.Error(ctx, "request.unhandled_fault", err)
}

// writeJSON encodes before touching w so an encoding failure can still be
// answered with an error envelope.
func writeJSON(w http.ResponseWriter, status int, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Printf(`{"level":"error","msg":"failed to write response","err":"%v"}`, err)
	}
	return nil
}
