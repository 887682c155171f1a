package bind_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/fashioncraft/pkg/bind"
)

type address struct {
	City string `json:"city" validate:"required"`
}

type signup struct {
	Email    string  `json:"email"    validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Address  address `json:"address"`
}

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestJSON_Valid(t *testing.T) {
	var in signup
	errs, err := bind.JSON(post(`{"email":"a@b.co","password":"secreto","address":{"city":"Cali"}}`), &in)
	require.NoError(t, err)
	assert.Nil(t, errs)
	assert.Equal(t, "Cali", in.Address.City)
}

func TestJSON_FieldErrorsUseJSONNames(t *testing.T) {
	var in signup
	errs, err := bind.JSON(post(`{"email":"nope","password":"x"}`), &in)
	require.NoError(t, err)
	assert.Equal(t, "debe ser un correo válido", errs["email"])
	assert.Contains(t, errs["password"], "6")
	assert.Equal(t, "es obligatorio", errs["address.city"])
}

func TestJSON_Malformed(t *testing.T) {
	var in signup
	_, err := bind.JSON(post(`{"email":`), &in)
	assert.Error(t, err)

	_, err = bind.JSON(post(``), &in)
	assert.EqualError(t, err, "request body is empty")
}

func TestJSON_TooLarge(t *testing.T) {
	var in signup
	rec := httptest.NewRecorder()
	req := post(`{"email":"` + strings.Repeat("a", 100) + `"}`)
	req.Body = http.MaxBytesReader(rec, req.Body, 16)

	_, err := bind.JSON(req, &in)
	assert.ErrorContains(t, err, "too large")
}
