// Copyright (c) 2025 The Scale Staking developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapHandlerFunc(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"ok", nil, http.StatusOK, `{"ok":true}`},
		{"bad request", BadRequest(errors.New("bad")), http.StatusBadRequest, `{"error":"bad"}`},
		{"not found", NotFound(errors.New("missing")), http.StatusNotFound, `{"error":"missing"}`},
		{"conflict", Conflict(errors.New("taken")), http.StatusConflict, `{"error":"taken"}`},
		{"revert", Unprocessable(errors.New("Invalid rate."), 6000), http.StatusUnprocessableEntity, `{"error":"Invalid rate.","code":6000}`},
		{"plain", errors.New("boom"), http.StatusInternalServerError, `{"error":"boom"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
				if tt.err != nil {
					return tt.err
				}
				return WriteJSON(w, M{"ok": true})
			})
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestParseJSON(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	require.NoError(t, ParseJSON(strings.NewReader(`{"a":1}`), &v))
	assert.Equal(t, 1, v.A)
	assert.Error(t, ParseJSON(strings.NewReader(`{"b":1}`), &v))
}
