package types

import "encoding/json"

// Meta carries envelope metadata. "timestamp" is always present; "version",
// "requestId" and any other key are optional.
type Meta map[string]any

// Envelope is the single wire shape returned for every request. Data is only
// emitted when Success is true and Error only when it is false.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    Meta      `json:"meta,omitempty"`
}

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
	Details    any    `json:"details,omitempty"`
	Timestamp  string `json:"timestamp"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type PaginatedData struct {
	Items      any        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    any  `json:"data"`
			Meta    Meta `json:"meta,omitempty"`
		}{Success: true, Data: e.Data, Meta: e.Meta})
	}
	return json.Marshal(struct {
		Success bool      `json:"success"`
		Error   *APIError `json:"error"`
		Meta    Meta      `json:"meta,omitempty"`
	}{Success: false, Error: e.Error, Meta: e.Meta})
}
