package middleware

import (
	"fmt"
	"net/http"

	"github.com/campusnet/campus-api/api/responses"
)

// Recoverer turns a panic into an unclassified fault so the caller still gets
// an error envelope. The responder logs it.
//
// When the handler already started the response, no envelope can follow: the
// fault is logged and the connection aborted with http.ErrAbortHandler.
func Recoverer(rs *responses.Responder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &writeTracker{ResponseWriter: w}
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					var err error
					if e, ok := rec.(error); ok {
						err = fmt.Errorf("panic: %w", e)
					} else {
						err = fmt.Errorf("panic: %v", rec)
					}
					if tw.wrote {
						rs.LogFault(r, fmt.Errorf("after response started: %w", err))
						panic(http.ErrAbortHandler)
					}
					rs.WriteError(w, r, err)
				}
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

type writeTracker struct {
	http.ResponseWriter
	wrote bool
}

func (t *writeTracker) WriteHeader(code int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *writeTracker) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

func (t *writeTracker) Flush() {
	if f, ok := t.ResponseWriter.(http.Flusher); ok {
		t.wrote = true
		f.Flush()
	}
}

func (t *writeTracker) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}
