package testkit_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/fashioncraft/pkg/testkit"
)

// echoHandler issues a ticket on POST /tickets and only answers
// GET /tickets/{id} when the x-ticket header matches it.
func echoHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /tickets", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "t-42", "echo": body})
	})
	mux.HandleFunc("GET /tickets/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("x-ticket") != r.PathValue("id") {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"msg":"forbidden"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": r.PathValue("id"), "ok": true})
	})
	return mux
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestRunFlow_CapturesAndExpands(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "req.json", `{"note":"hola"}`)
	flow := writeFile(t, dir, "flow.json", `[
	  {"name":"create","requestMethod":"POST","requestUrl":"/tickets","requestFileName":"req.json",
	   "expectedCode":200,"responseBody":{"id":"<any>","echo":{"note":"hola"}},"capture":{"ticket":"id"}},
	  {"name":"read","requestUrl":"/tickets/{{ticket}}","headers":{"x-ticket":"{{ticket}}"},
	   "expectedCode":200,"responseBody":{"id":"{{ticket}}","ok":true}},
	  {"name":"forbidden","requestUrl":"/tickets/{{ticket}}","expectedCode":403}
	]`)

	testkit.RunFlow(t, echoHandler(), flow)
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `[{"name":"create","requestMethod":"POST","requestUrl":"/tickets","requestBody":{},"expectedCode":200}]`)
	writeFile(t, dir, "b.json", `[{"name":"missing","requestUrl":"/nowhere","expectedCode":404}]`)

	handlers := 0
	testkit.RunDir(t, dir, func(t *testing.T) http.Handler {
		handlers++
		return echoHandler()
	})
	assert.Equal(t, 2, handlers)
}

func TestRunDir_BodyFilesInSubdirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bodies"), 0o755))
	writeFile(t, dir, "bodies/req.json", `{"note":"desde archivo"}`)
	writeFile(t, dir, "bodies/res.json", `{"echo":{"note":"desde archivo"}}`)
	writeFile(t, dir, "tickets_flow.json", `[{"name":"create","requestMethod":"POST","requestUrl":"/tickets",
	  "requestFileName":"bodies/req.json","expectedCode":200,"responseFileName":"bodies/res.json"}]`)

	handlers := 0
	testkit.RunDir(t, dir, func(t *testing.T) http.Handler {
		handlers++
		return echoHandler()
	})
	assert.Equal(t, 1, handlers, "only flow files at the top level are run")
}

func TestLoadFlow_Validation(t *testing.T) {
	dir := t.TempDir()

	_, err := testkit.LoadFlow(writeFile(t, dir, "empty.json", `[]`))
	assert.Error(t, err)

	_, err = testkit.LoadFlow(writeFile(t, dir, "noname.json", `[{"requestUrl":"/x","expectedCode":200}]`))
	assert.Error(t, err)

	_, err = testkit.LoadFlow(writeFile(t, dir, "nocode.json", `[{"name":"x","requestUrl":"/x"}]`))
	assert.Error(t, err)

	steps, err := testkit.LoadFlow(writeFile(t, dir, "ok.json", `[{"name":"x","requestUrl":"/x","expectedCode":200}]`))
	require.NoError(t, err)
	assert.Equal(t, "GET", steps[0].RequestMethod)
}

func TestLoadScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "res.json", `{"ok":true}`)
	s, err := testkit.LoadScenario(writeFile(t, dir, "one.json",
		`{"name":"one","requestUrl":"/x","expectedCode":200,"responseFileName":"res.json"}`))
	require.NoError(t, err)

	body, err := s.ExpectedPayload()
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	req, err := s.RequestPayload()
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestDiffJSON(t *testing.T) {
	decode := func(s string) interface{} {
		var v interface{}
		require.NoError(t, json.Unmarshal([]byte(s), &v))
		return v
	}

	assert.Empty(t, testkit.DiffJSON(decode(`{"a":1}`), decode(`{"a":1,"b":2}`)))
	assert.Empty(t, testkit.DiffJSON(decode(`{"id":"<any>"}`), decode(`{"id":"x"}`)))
	assert.Empty(t, testkit.DiffJSON(decode(`{"hash":"<absent>"}`), decode(`{"id":"x"}`)))
	assert.NotEmpty(t, testkit.DiffJSON(decode(`{"id":"<any>"}`), decode(`{"id":null}`)))
	assert.NotEmpty(t, testkit.DiffJSON(decode(`{"a":1}`), decode(`{"a":2}`)))
	assert.NotEmpty(t, testkit.DiffJSON(decode(`[1,2]`), decode(`[1]`)))
	assert.NotEmpty(t, testkit.DiffJSON(decode(`{"a":{"b":1}}`), decode(`{"a":[]}`)))

	diffs := testkit.DiffJSON(decode(`{"user":{"hash":"<absent>","id":"u1"}}`), decode(`{"user":{"hash":"x","id":"u2"}}`))
	require.Len(t, diffs, 2)
	assert.Equal(t, testkit.Mismatch{Path: "$.user.hash", Want: "no key", Got: `"x"`}, diffs[0])
	assert.Equal(t, `$.user.id: want "u1", got "u2"`, diffs[1].String())
}

func TestLookup(t *testing.T) {
	var doc interface{}
	require.NoError(t, json.Unmarshal([]byte(`[{"client":{"name":"Ana"}}]`), &doc))

	v, ok := testkit.Lookup(doc, "0.client.name")
	assert.True(t, ok)
	assert.Equal(t, "Ana", v)

	_, ok = testkit.Lookup(doc, "1.client")
	assert.False(t, ok)
	_, ok = testkit.Lookup(doc, "0.garment")
	assert.False(t, ok)
}
