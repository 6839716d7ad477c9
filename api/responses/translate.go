package responses

import (
	"net/http"

	pkgerrors "github.com/campusnet/campus-api/pkg/errors"
	"github.com/campusnet/campus-api/pkg/types"
)

// Translate classifies err into the public error shape. The boolean is false
// for unclassified faults, which always degrade to a generic 500 that carries
// none of the fault's own text.
func Translate(err error) (types.APIError, bool) {
	fault := pkgerrors.As(err)
	if fault == nil || !isErrorStatus(fault.StatusCode()) {
		return internalError(), false
	}

	status := fault.StatusCode()
	code := fault.Code()
	msg := fault.Message()
	// Canonical wording overrides whatever the raising code said.
	if canonical, ok := pkgerrors.MessageFor(code); ok {
		msg = canonical
	}

	return types.APIError{
		Code:       string(code),
		Message:    msg,
		StatusCode: status,
		Details:    fault.Details(),
		Timestamp:  timestamp(),
	}, true
}

func internalError() types.APIError {
	msg, _ := pkgerrors.MessageFor(pkgerrors.CodeInternal)
	return types.APIError{
		Code:       string(pkgerrors.CodeInternal),
		Message:    msg,
		StatusCode: http.StatusInternalServerError,
		Timestamp:  timestamp(),
	}
}

func isErrorStatus(status int) bool {
	return status >= http.StatusBadRequest && status <= 599
}
