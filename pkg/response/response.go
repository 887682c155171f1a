// Package response writes the JSON bodies of the public API.
//
// Success payloads are written as-is (orders, invoice views, login results);
// every failure is {"msg": "..."} with an optional "errors" field map.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/shashiranjanraj/fashioncraft/pkg/apperr"
)

// Message is the body of every error and of plain acknowledgements.
type Message struct {
	Msg    string            `json:"msg"`
	Errors map[string]string `json:"errors,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// OK sends a 200 with v as the body.
func OK(w http.ResponseWriter, v interface{}) {
	JSON(w, http.StatusOK, v)
}

// Msg sends {"msg": msg} with the given status.
func Msg(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Message{Msg: msg})
}

// Error renders err using its apperr classification.
func Error(w http.ResponseWriter, err error) {
	ae := apperr.From(err)
	JSON(w, ae.HTTPStatus, Message{Msg: ae.Message, Errors: ae.Fields})
}

// Fail is Error with a route-specific message for store failures, so that
// e.g. a failed insert reads "Error al guardar" instead of the generic text.
func Fail(w http.ResponseWriter, err error, storeMsg string) {
	ae := apperr.From(err)
	if ae.Code == apperr.ErrStore.Code && storeMsg != "" {
		ae = ae.WithMessage(storeMsg)
	}
	JSON(w, ae.HTTPStatus, Message{Msg: ae.Message, Errors: ae.Fields})
}
