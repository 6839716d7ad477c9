package controllers

import (
	"net/http"

	"github.com/campusnet/campus-api/api/responses"
)

func PublicPing() responses.HandlerFunc {
	return func(r *http.Request) (any, error) {
		return map[string]string{"scope": "public", "status": "ok"}, nil
	}
}
