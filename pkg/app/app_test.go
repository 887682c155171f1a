package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shashiranjanraj/fashioncraft/app/models"
	"github.com/shashiranjanraj/fashioncraft/app/repositories"
	"github.com/shashiranjanraj/fashioncraft/config"
	"github.com/shashiranjanraj/fashioncraft/pkg/app"
	"github.com/shashiranjanraj/fashioncraft/pkg/ratelimit"
	"github.com/shashiranjanraj/fashioncraft/pkg/testkit"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:          "test",
		AppPort:         "0",
		LogLevel:        "error",
		JWTSecret:       "test-secret-do-not-use",
		TokenTTL:        time.Hour,
		StoreDriver:     "memory",
		HashWorkers:     2,
		BcryptCost:      bcrypt.MinCost,
		InvoiceLabel:    "Taller de pruebas",
		MaxBodyBytes:    1 << 20,
		MaxPreviewBytes: 4 << 10,
		Storage: config.Storage{
			Disk:      "local",
			LocalRoot: t.TempDir(),
			URL:       "/storage",
		},
		ShutdownTimeout: time.Second,
	}
}

func newApp(t *testing.T, opts ...app.Option) *app.Application {
	t.Helper()
	a, err := app.New(context.Background(), testConfig(t), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })
	return a
}

func TestScenarios(t *testing.T) {
	testkit.RunDir(t, "testdata", func(t *testing.T) http.Handler {
		return newApp(t).Handler()
	})
}

// ─── Access gate ──────────────────────────────────────────────────────────────

// countingStore counts every repository call.
type countingStore struct {
	repositories.Store
	calls *atomic.Int64
}

func (s countingStore) Accounts() repositories.AccountRepository {
	return countingAccounts{s.Store.Accounts(), s.calls}
}

func (s countingStore) Orders() repositories.OrderRepository {
	return countingOrders{s.Store.Orders(), s.calls}
}

type countingAccounts struct {
	next  repositories.AccountRepository
	calls *atomic.Int64
}

func (r countingAccounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.calls.Add(1)
	return r.next.FindByEmail(ctx, email)
}

func (r countingAccounts) FindByID(ctx context.Context, id string) (*models.Account, error) {
	r.calls.Add(1)
	return r.next.FindByID(ctx, id)
}

func (r countingAccounts) Create(ctx context.Context, acc models.Account) (*models.Account, error) {
	r.calls.Add(1)
	return r.next.Create(ctx, acc)
}

type countingOrders struct {
	next  repositories.OrderRepository
	calls *atomic.Int64
}

func (r countingOrders) List(ctx context.Context, owner, search string) ([]models.Order, error) {
	r.calls.Add(1)
	return r.next.List(ctx, owner, search)
}

func (r countingOrders) Create(ctx context.Context, o models.Order) (*models.Order, error) {
	r.calls.Add(1)
	return r.next.Create(ctx, o)
}

func (r countingOrders) Get(ctx context.Context, owner, id string) (*models.Order, error) {
	r.calls.Add(1)
	return r.next.Get(ctx, owner, id)
}

func (r countingOrders) Update(ctx context.Context, owner, id string, p models.OrderPatch) (*models.Order, error) {
	r.calls.Add(1)
	return r.next.Update(ctx, owner, id, p)
}

func (r countingOrders) Delete(ctx context.Context, owner, id string) (bool, error) {
	r.calls.Add(1)
	return r.next.Delete(ctx, owner, id)
}

func TestGate_RejectsBeforeStoreAccess(t *testing.T) {
	var calls atomic.Int64
	a := newApp(t, app.WithStore(countingStore{repositories.NewMemoryStore(), &calls}))
	h := a.Handler()

	requests := []struct{ method, path, body string }{
		{http.MethodGet, "/api/orders", ""},
		{http.MethodPost, "/api/orders", `{"client":{"name":"Ana"}}`},
		{http.MethodGet, "/api/orders/abc", ""},
		{http.MethodPut, "/api/orders/abc", `{"management":{"status":"Done"}}`},
		{http.MethodDelete, "/api/orders/abc", ""},
		{http.MethodGet, "/api/orders/abc/invoice", ""},
		{http.MethodPost, "/api/orders/abc/preview", "x"},
		{http.MethodGet, "/api/auth/me", ""},
	}

	for _, tc := range requests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body)))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"msg":"Acceso denegado. No hay token."}`, rec.Body.String())

			rec = httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("x-auth-token", "forged")
			h.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"msg":"Token no es válido"}`, rec.Body.String())
		})
	}

	assert.Zero(t, calls.Load(), "gate must short-circuit before any repository call")
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func do(t *testing.T, h http.Handler, method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("x-auth-token", token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	body := `{"email":"` + email + `","password":"secreto1","workshopName":"Taller"}`
	rec := do(t, h, http.MethodPost, "/api/auth/register", "", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/auth/login", "", strings.NewReader(body), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out models.LoginResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out.Token
}

func createOrder(t *testing.T, h http.Handler, token string) models.Order {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/orders", token, strings.NewReader(`{"client":{"name":"Ana"}}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var o models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	return o
}

var png = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

// ─── Preview ──────────────────────────────────────────────────────────────────

func TestPreview_MultipartUploadIsServed(t *testing.T) {
	h := newApp(t).Handler()
	token := login(t, h, "foto@taller.co")
	order := createOrder(t, h, token)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "ignored"))
	fw, err := mw.CreateFormFile("image", "boceto.png")
	require.NoError(t, err)
	_, _ = fw.Write(png)
	require.NoError(t, mw.Close())

	rec := do(t, h, http.MethodPost, "/api/orders/"+order.ID+"/preview", token, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	ref := updated.Garment.PreviewReference
	require.True(t, strings.HasPrefix(ref, "/storage/previews/"), ref)
	assert.Equal(t, "Ana", updated.Client.Name)

	rec = do(t, h, http.MethodGet, ref, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())
}

func TestPreview_RawBody(t *testing.T) {
	h := newApp(t).Handler()
	token := login(t, h, "raw@taller.co")
	order := createOrder(t, h, token)

	rec := do(t, h, http.MethodPost, "/api/orders/"+order.ID+"/preview", token, bytes.NewReader(png), "image/png")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestPreview_Rejections(t *testing.T) {
	h := newApp(t).Handler()
	token := login(t, h, "rechazo@taller.co")
	other := login(t, h, "otro@taller.co")
	order := createOrder(t, h, token)
	path := "/api/orders/" + order.ID + "/preview"

	rec := do(t, h, http.MethodPost, path, token, strings.NewReader("plain text"), "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := append(append([]byte{}, png...), bytes.Repeat([]byte{0}, 8<<10)...)
	rec = do(t, h, http.MethodPost, path, token, bytes.NewReader(big), "image/png")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())
	rec = do(t, h, http.MethodPost, path, token, &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, path, other, bytes.NewReader(png), "image/png")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ─── Rate limiting ────────────────────────────────────────────────────────────

func TestAuthRoutesAreRateLimited(t *testing.T) {
	h := newApp(t, app.WithLimiter(ratelimit.NewMemoryLimiter(2, time.Minute))).Handler()

	body := `{"email":"x@taller.co","password":"nope"}`
	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPost, "/api/auth/login", "", strings.NewReader(body), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/auth/login", "", strings.NewReader(body), "application/json")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"msg"`)
}

// ─── Infrastructure routes ────────────────────────────────────────────────────

type downStore struct{ repositories.Store }

func (downStore) Ping(context.Context) error { return assert.AnError }

func TestHealthz(t *testing.T) {
	rec := do(t, newApp(t).Handler(), http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	h := newApp(t, app.WithStore(downStore{repositories.NewMemoryStore()})).Handler()
	rec = do(t, h, http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newApp(t).Handler()
	do(t, h, http.MethodGet, "/api/orders", "", nil, "")

	rec := do(t, h, http.MethodGet, "/metrics", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "fashioncraft_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	rec := do(t, newApp(t).Handler(), http.MethodGet, "/api/nothing", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"msg":"Ruta no encontrada"}`, rec.Body.String())
}

func TestRequestIDEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	newApp(t).Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRoutes(t *testing.T) {
	var names []string
	for _, ri := range app.Routes() {
		names = append(names, ri.Name)
	}
	for _, want := range []string{
		"auth.register", "auth.login", "auth.me",
		"orders.index", "orders.store", "orders.show", "orders.update",
		"orders.destroy", "orders.invoice", "orders.preview",
		"healthz", "metrics",
	} {
		assert.Contains(t, names, want)
	}
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDriver = "cassandra"
	_, err := app.New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestMigrateMemory(t *testing.T) {
	assert.NoError(t, newApp(t).Migrate(context.Background()))
}
