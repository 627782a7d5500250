package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/blockprotocol/hub-api/internal/domain"
	"github.com/blockprotocol/hub-api/internal/pkg/validate"
)

// ErrorItem is one entry of an error response.
type ErrorItem struct {
	Msg   string      `json:"msg"`
	Param string      `json:"param,omitempty"`
	Value interface{} `json:"value,omitempty"`
	Code  string      `json:"code,omitempty"`
}

// ErrorEnvelope is the body of every non-2xx response.
type ErrorEnvelope struct {
	Errors []ErrorItem `json:"errors"`
}

type MessageEnvelope struct {
	Message string `json:"message"`
}

type UserEnvelope struct {
	User *domain.User `json:"user"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorEnvelope{Errors: []ErrorItem{{Msg: msg}}})
}

// statusFor maps a domain sentinel to its HTTP status. Conflicts are
// reported as 400 and told apart by the error code.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrConflict):
		return http.StatusBadRequest, true
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, true
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrRateLimited):
		return http.StatusForbidden, true
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, true
	}
	return 0, false
}

// writeServiceError renders err for the client. Errors that are not domain
// errors are logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve validate.Errors
	if errors.As(err, &ve) {
		items := make([]ErrorItem, len(ve))
		for i, fe := range ve {
			items[i] = ErrorItem{Msg: fe.Msg, Param: fe.Param, Value: fe.Value}
		}
		writeJSON(w, http.StatusBadRequest, ErrorEnvelope{Errors: items})
		return
	}

	status, ok := statusFor(err)
	if !ok {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	item := ErrorItem{Msg: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		item = ErrorItem{Msg: de.Msg, Param: de.Param, Code: de.Code}
	}
	writeJSON(w, status, ErrorEnvelope{Errors: []ErrorItem{item}})
}

// decodeJSON reads and validates the request body into dst. On failure the
// response has been written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeServiceError(w, r, err)
		return false
	}
	return true
}
