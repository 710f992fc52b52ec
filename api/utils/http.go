// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/scalemarket/staking/log"
)

var logger = log.WithContext("pkg", "api")

type httpError struct {
	cause  error
	status int
	code   *uint32
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError create an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

// BadRequest convenience method to create http bad request error.
func BadRequest(cause error) error {
	return HTTPError(cause, http.StatusBadRequest)
}

// NotFound convenience method to create http not found error.
func NotFound(cause error) error {
	return HTTPError(cause, http.StatusNotFound)
}

// Conflict convenience method to create http conflict error.
func Conflict(cause error) error {
	return HTTPError(cause, http.StatusConflict)
}

// Unprocessable creates a http unprocessable entity error carrying a business error code.
func Unprocessable(cause error, code uint32) error {
	return &httpError{
		cause:  cause,
		status: http.StatusUnprocessableEntity,
		code:   &code,
	}
}

// HandlerFunc like http.HandlerFunc, bu it returns an error.
// If the returned error is httpError type, httpError.status will be responded,
// otherwise http.StatusInternalServerError responded.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		he, ok := err.(*httpError)
		if !ok {
			logger.Warn("request failed", "uri", r.URL.String(), "error", err)
			he = &httpError{cause: err, status: http.StatusInternalServerError}
		}
		body := ErrorBody{Error: he.cause.Error(), Code: he.code}
		if err := writeJSON(w, he.status, body); err != nil {
			logger.Debug("failed to write error response", "error", err)
		}
	}
}

// ErrorBody is the response body of a failed request.
type ErrorBody struct {
	Error string  `json:"error"`
	Code  *uint32 `json:"code,omitempty"`
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	return writeJSON(w, http.StatusOK, obj)
}

func writeJSON(w http.ResponseWriter, status int, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(obj)
}

// M shortcut for type map[string]any.
type M map[string]any
