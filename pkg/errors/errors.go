package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error identifier, independent of the HTTP status.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeAuthRequired       Code = "AUTH_REQUIRED"
	CodeForbidden          Code = "AUTH_INSUFFICIENT_PERMISSIONS"
	CodeNotFound           Code = "RESOURCE_NOT_FOUND"
	CodeAlreadyExists      Code = "RESOURCE_ALREADY_EXISTS"
	CodeRateLimit          Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"
)

type Metadata struct {
	HTTPStatus    int
	PublicMessage string
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:    http.StatusBadRequest,
		PublicMessage: "Validation failed",
	},
	CodeAuthRequired: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "Authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "Insufficient permissions",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "Resource not found",
	},
	CodeAlreadyExists: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "Resource already exists",
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "Too many requests, please try again later",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		PublicMessage: "An unexpected error occurred",
	},
	CodeServiceUnavailable: {
		HTTPStatus:    http.StatusServiceUnavailable,
		PublicMessage: "Service temporarily unavailable",
	},
}

var codeByStatus = map[int]Code{
	http.StatusBadRequest:          CodeValidation,
	http.StatusUnauthorized:        CodeAuthRequired,
	http.StatusForbidden:           CodeForbidden,
	http.StatusNotFound:            CodeNotFound,
	http.StatusConflict:            CodeAlreadyExists,
	http.StatusTooManyRequests:     CodeRateLimit,
	http.StatusInternalServerError: CodeInternal,
	http.StatusServiceUnavailable:  CodeServiceUnavailable,
}

// metadataFor returns the table entry for code. Domain codes raised by business
// logic have no entry.
func metadataFor(code Code) (Metadata, bool) {
	meta, ok := metadataByCode[code]
	return meta, ok
}

// MessageFor returns the canonical user-facing message for code.
func MessageFor(code Code) (string, bool) {
	meta, ok := metadataFor(code)
	if !ok {
		return "", false
	}
	return meta.PublicMessage, true
}

// StatusFor returns the default HTTP status of code, 500 for unknown codes.
func StatusFor(code Code) int {
	if meta, ok := metadataFor(code); ok {
		return meta.HTTPStatus
	}
	return http.StatusInternalServerError
}

// CodeForStatus derives a code from an HTTP status. Unmapped statuses fall back
// to INTERNAL_SERVER_ERROR.
func CodeForStatus(status int) Code {
	if code, ok := codeByStatus[status]; ok {
		return code
	}
	return CodeInternal
}

// Payload is the structured body a classified fault may carry.
type Payload struct {
	Code    Code
	Message string
	Details any
}

// Error is a classified fault: raised on purpose by application code with an
// HTTP status and a payload. The payload is a string, a Payload, a
// map[string]any using the "code", "message" and "details" keys, or anything
// else (in which case only the status is meaningful).
type Error struct {
	status  int
	payload any
	cause   error
}

// NewHTTP builds a classified fault from an explicit status and payload.
func NewHTTP(status int, payload any) *Error {
	return &Error{status: status, payload: payload}
}

func New(code Code, message string) *Error {
	return NewWithStatus(code, StatusFor(code), message)
}

// NewWithStatus is used for domain codes that carry their own status.
func NewWithStatus(code Code, status int, message string) *Error {
	return &Error{status: status, payload: Payload{Code: code, Message: message}}
}

func Wrap(code Code, err error, message string) *Error {
	e := New(code, message)
	e.cause = err
	return e
}

func (e *Error) StatusCode() int {
	if e == nil {
		return http.StatusInternalServerError
	}
	return e.status
}

func (e *Error) Payload() any {
	if e == nil {
		return nil
	}
	return e.payload
}

// Code returns the explicit payload code, or the one derived from the status.
func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	switch p := e.payload.(type) {
	case Payload:
		if p.Code != "" {
			return p.Code
		}
	case *Payload:
		if p != nil && p.Code != "" {
			return p.Code
		}
	case map[string]any:
		if c := mapString(p, "code"); c != "" {
			return Code(c)
		}
	}
	return CodeForStatus(e.status)
}

// Message returns the text the fault itself carries. Structured payloads
// without a message and opaque payloads fall back to the status text.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	switch p := e.payload.(type) {
	case string:
		return p
	case Payload:
		if p.Message != "" {
			return p.Message
		}
	case *Payload:
		if p != nil && p.Message != "" {
			return p.Message
		}
	case map[string]any:
		if m := mapString(p, "message"); m != "" {
			return m
		}
	}
	return http.StatusText(e.status)
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	switch p := e.payload.(type) {
	case Payload:
		return p.Details
	case *Payload:
		if p != nil {
			return p.Details
		}
	case map[string]any:
		return p["details"]
	}
	return nil
}

// WithDetails attaches diagnostic details, promoting string and opaque
// payloads to a structured one.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	switch p := e.payload.(type) {
	case Payload:
		p.Details = details
		e.payload = p
	case *Payload:
		cp := Payload{Details: details}
		if p != nil {
			cp.Code, cp.Message = p.Code, p.Message
		}
		e.payload = cp
	case map[string]any:
		cp := make(map[string]any, len(p)+1)
		for k, v := range p {
			cp[k] = v
		}
		cp["details"] = details
		e.payload = cp
	default:
		e.payload = Payload{Message: e.Message(), Details: details}
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code(), e.Message())
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the first classified fault in err's chain.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

func mapString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
