package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/ender-catalog-be/internal/apperr"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Responder writes JSON bodies and maps errors onto status codes.
type Responder struct {
	development bool
}

// NewResponder creates a Responder. In development, internal error details are included
// in 500 responses.
func NewResponder(development bool) *Responder {
	return &Responder{development: development}
}

type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Error   string `json:"error,omitempty"`
}

var fallbackMessages = map[int]string{
	http.StatusBadRequest:   "Invalid request",
	http.StatusUnauthorized: "Unauthorized",
	http.StatusForbidden:    "Forbidden",
	http.StatusNotFound:     "Not found",
	http.StatusConflict:     "Conflict",
}

// JSON writes v with the given status.
func (rs *Responder) JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Error writes the structured error body for err. Internal faults are logged and their
// details hidden outside development.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	body := errorBody{
		Message: apperr.Message(err, fallbackMessages[status]),
		Code:    apperr.Code(err),
		Field:   apperr.FieldOf(err),
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("Request failed")
		body.Message = "Internal server error"
		body.Field = ""
		if rs.development {
			body.Error = err.Error()
		}
	}
	rs.JSON(w, status, body)
}

// decodeJSON reads a single JSON object into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var sizeErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apperr.New(apperr.ErrValidation, "Request body is required")
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return apperr.New(apperr.ErrValidation, "Request body contains malformed JSON")
		case errors.As(err, &typeErr):
			return apperr.Validation(typeErr.Field, fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type))
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return apperr.Validation(field, field+" is not allowed")
		case errors.As(err, &sizeErr):
			return apperr.New(apperr.ErrValidation, "Request body is too large")
		default:
			return apperr.New(apperr.ErrValidation, "Invalid request body")
		}
	}
	if dec.More() {
		return apperr.New(apperr.ErrValidation, "Request body must contain a single JSON object")
	}
	return nil
}
