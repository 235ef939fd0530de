package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchwatch/auth-backend/internal/common"
)

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Errors []string `json:"errors"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, dataResponse{Data: data})
}

func writeError(w http.ResponseWriter, status int, messages ...string) {
	writeJSON(w, status, errorResponse{Errors: messages})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFromError maps the service-layer sentinels onto HTTP status codes.
// Anything unrecognized is a server fault.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
