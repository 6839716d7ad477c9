package controllers

import (
	"net/http"

	"github.com/campusnet/campus-api/api/responses"
	"github.com/campusnet/campus-api/api/validators"
)

// PublicValidateBody exercises the DTO rules used by the content endpoints.
type PublicValidateBody struct {
	Name  string   `json:"name" validate:"required,min=3,max=64"`
	Email string   `json:"email" validate:"required,email"`
	Tags  []string `json:"tags" validate:"max=100,dive,min=1,max=32"`
}

// PublicValidate validates the body and pages over its tags. The validated
// name and email come back under meta.echo.
func PublicValidate(rs *responses.Responder) responses.HandlerFunc {
	return func(r *http.Request) (any, error) {
		var body PublicValidateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			return nil, err
		}

		page, err := validators.ParsePage(r)
		if err != nil {
			return nil, err
		}

		tags := body.Tags
		if tags == nil {
			tags = []string{}
		}
		start := min(page.Offset(), len(tags))
		end := min(start+page.Limit, len(tags))

		meta := rs.Meta(r)
		meta["echo"] = map[string]string{
			"name":  validators.SanitizeString(body.Name, 64),
			"email": body.Email,
		}
		return responses.Paginated(tags[start:end], page, len(tags), meta), nil
	}
}
