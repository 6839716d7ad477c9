package responses

import (
	"encoding/json"
	"time"

	"github.com/campusnet/campus-api/pkg/pagination"
	"github.com/campusnet/campus-api/pkg/types"
)

// ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var now = time.Now

func timestamp() string {
	return now().UTC().Format(timestampLayout)
}

// Success builds a success envelope. Override keys win over the generated
// timestamp.
func Success(data any, overrides types.Meta) types.Envelope {
	return types.Envelope{
		Success: true,
		Data:    data,
		Meta:    buildMeta(overrides),
	}
}

// Paginated nests items and their pagination block under data. params.Limit
// must be positive.
func Paginated(items any, params pagination.Params, total int, overrides types.Meta) types.Envelope {
	return Success(types.PaginatedData{
		Items: items,
		Pagination: types.Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: pagination.TotalPages(total, params.Limit),
		},
	}, overrides)
}

// Wrap returns value unchanged when it already has an envelope shape, and a
// success envelope around it otherwise.
func Wrap(value any, overrides types.Meta) any {
	if isEnvelope(value) {
		return value
	}
	return Success(value, overrides)
}

func buildMeta(overrides types.Meta) types.Meta {
	meta := types.Meta{"timestamp": timestamp()}
	for k, v := range overrides {
		meta[k] = v
	}
	return meta
}

// isEnvelope reports whether value serializes to an object with a top-level
// "success" key. Values without a fast path are judged by their actual JSON,
// so custom marshalers and nil embedded pointers are honored.
func isEnvelope(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case types.Envelope:
		return true
	case *types.Envelope:
		return v != nil
	case map[string]any:
		_, ok := v["success"]
		return ok
	case json.RawMessage:
		return rawHasSuccess(v)
	case string, bool, int, int64, float64:
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return false
	}
	return rawHasSuccess(raw)
}

func rawHasSuccess(raw json.RawMessage) bool {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return false
	}
	_, ok := top["success"]
	return ok
}
