package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// apiError carries an HTTP status code alongside a client-facing message.
// Mirrors the error taxonomy: ModelUnavailable (503), InputMalformed (400),
// AnalyzerFailure/EncoderFailure (500).
type apiError struct {
	status  int
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(msg string) *apiError {
	return &apiError{status: http.StatusBadRequest, message: msg}
}

func modelUnavailable(msg string) *apiError {
	return &apiError{status: http.StatusServiceUnavailable, message: msg}
}

func computeFailure(msg string) *apiError {
	return &apiError{status: http.StatusInternalServerError, message: msg}
}

// errorBody is the JSON shape written for every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
}

// writeError logs compute failures (500s) with their full detail and writes
// a JSON error body. Validation errors (400/503) are surfaced verbatim per
// the documented policy; they are not logged as server-side failures.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		apiErr = computeFailure(err.Error())
	}

	if apiErr.status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "err", apiErr.message)
	}

	writeJSON(w, apiErr.status, errorBody{Error: apiErr.message})
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes the request body into v, wrapping decode failures as a
// 400 InputMalformed [apiError].
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("malformed request body: " + err.Error())
	}
	return nil
}
