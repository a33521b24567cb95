package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/dshills/blockstorm/internal/app"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/document"
	"github.com/dshills/blockstorm/internal/manager"
	"github.com/dshills/blockstorm/internal/tool"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Response is the envelope for every api reply.
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeUnavailable   = "SERVICE_UNAVAILABLE"
	CodeInternalError = "INTERNAL_ERROR"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string, details ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Error: &ErrorInfo{Code: code, Message: message, Details: details},
	})
}

// respondErr maps an error from the editing core to a status code.
func respondErr(w http.ResponseWriter, err error) {
	var verr *document.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusUnprocessableEntity, CodeValidation, "invalid document", verr.Problems...)
	case errors.Is(err, manager.ErrNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, manager.ErrRange),
		errors.Is(err, tool.ErrToolNotFound),
		errors.Is(err, caret.ErrNoBlock),
		errors.Is(err, caret.ErrNoInput):
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
	case errors.Is(err, manager.ErrInvalidOperation),
		errors.Is(err, app.ErrNoDocumentPath):
		respondError(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, app.ErrClosed):
		respondError(w, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, CodeInternalError, err.Error())
	}
}

// decodeJSON reads a size limited JSON body into v and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fe.Field()+": failed "+fe.Tag())
			}
			respondError(w, http.StatusBadRequest, CodeValidation, "request validation failed", details...)
			return false
		}
		respondError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return false
	}
	return true
}
