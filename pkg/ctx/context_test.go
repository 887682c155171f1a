package ctx_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/fashioncraft/pkg/auth"
	appctx "github.com/shashiranjanraj/fashioncraft/pkg/ctx"
)

func TestWrapAndOK(t *testing.T) {
	rec := httptest.NewRecorder()
	appctx.Wrap(func(c *appctx.Context) {
		c.OK(map[string]any{"ok": true})
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

func TestParamAndQuery(t *testing.T) {
	r := chi.NewRouter()
	var id, q string
	r.Get("/orders/{id}", appctx.Wrap(func(c *appctx.Context) {
		id, q = c.Param("id"), c.Query("search")
	}))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/orders/abc?search=mar", nil))

	assert.Equal(t, "abc", id)
	assert.Equal(t, "mar", q)
}

func TestAccountID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{AccountID: "acc-1"}))

	var got string
	appctx.Wrap(func(c *appctx.Context) { got = c.AccountID() })(httptest.NewRecorder(), req)
	assert.Equal(t, "acc-1", got)
}

type payload struct {
	Email string `json:"email" validate:"required,email"`
}

func TestBindJSON(t *testing.T) {
	cases := []struct {
		name string
		body string
		ok   bool
		want string
	}{
		{"valid", `{"email":"a@b.co"}`, true, ""},
		{"malformed", `{`, false, `"msg":"Datos inválidos"`},
		{"invalid field", `{"email":"x"}`, false, `"errors":{"email":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			var ok bool
			appctx.Wrap(func(c *appctx.Context) {
				var p payload
				ok = c.BindJSON(&p)
			})(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body)))

			assert.Equal(t, tc.ok, ok)
			if !tc.ok {
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), tc.want)
			}
		})
	}
}

func TestFail(t *testing.T) {
	rec := httptest.NewRecorder()
	var status int
	appctx.Wrap(func(c *appctx.Context) {
		c.Fail(errors.New("connection reset"), "Error al obtener ordenes")
		status = c.WrittenStatus()
	})(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.JSONEq(t, `{"msg":"Error al obtener ordenes"}`, rec.Body.String())
}
