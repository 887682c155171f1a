package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
)

// ─── Public API ───────────────────────────────────────────────────────────────

// Session carries captured variables between the steps of a flow.
type Session struct {
	Handler http.Handler
	Vars    map[string]string
}

// NewSession starts a session against handler.
func NewSession(handler http.Handler) *Session {
	return &Session{Handler: handler, Vars: map[string]string{}}
}

// RunFlow executes every step of the flow file at path, in order, as
// subtests. A failing step stops the flow.
func RunFlow(t *testing.T, handler http.Handler, path string) {
	t.Helper()

	steps, err := LoadFlow(path)
	if err != nil {
		t.Fatalf("%v", err)
	}

	sess := NewSession(handler)
	for _, s := range steps {
		if !t.Run(s.Name, func(t *testing.T) { sess.Step(t, s) }) {
			return
		}
	}
}

// RunDir runs every *.json flow in dir against a handler from newHandler,
// one fresh handler per file.
func RunDir(t *testing.T, dir string, newHandler func(t *testing.T) http.Handler) {
	t.Helper()

	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		t.Fatalf("testkit: no scenario files found in %q", dir)
	}

	for _, path := range entries {
		path := path
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		t.Run(name, func(t *testing.T) {
			RunFlow(t, newHandler(t), path)
		})
	}
}

// ─── Internal execution ───────────────────────────────────────────────────────

// Step fires one scenario and records its captures.
func (sess *Session) Step(t *testing.T, s *Scenario) *httptest.ResponseRecorder {
	t.Helper()

	// ── 1. Build request ──────────────────────────────────────────────────

	body, err := s.RequestPayload()
	if err != nil {
		t.Fatalf("[%s] read request body: %v", s.Name, err)
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader([]byte(sess.expand(string(body))))
	}

	req := httptest.NewRequest(strings.ToUpper(s.RequestMethod), sess.expand(s.RequestURL), reqBody)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, sess.expand(v))
	}

	// ── 2. Fire ───────────────────────────────────────────────────────────

	rec := httptest.NewRecorder()
	sess.Handler.ServeHTTP(rec, req)

	// ── 3. Assert ─────────────────────────────────────────────────────────

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())

	expected, err := s.ExpectedPayload()
	if err != nil {
		t.Fatalf("[%s] read expected body: %v", s.Name, err)
	}
	if expected != nil {
		AssertJSONBody(t, s, []byte(sess.expand(string(expected))), rec.Body.Bytes())
	}

	// ── 4. Capture ────────────────────────────────────────────────────────

	if len(s.Capture) > 0 {
		var doc interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
			t.Fatalf("[%s] capture: response is not JSON: %s", s.Name, rec.Body.String())
		}
		for name, path := range s.Capture {
			v, ok := Lookup(doc, path)
			if !ok {
				t.Fatalf("[%s] capture %q: path %q not in response %s", s.Name, name, path, rec.Body.String())
			}
			sess.Vars[name] = fmt.Sprint(v)
		}
	}
	return rec
}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// expand replaces {{name}} with captured values. Unknown names are kept.
func (sess *Session) expand(s string) string {
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := sess.Vars[name]; ok {
			return v
		}
		return m
	})
}

// Lookup follows a dotted path ("0.client.name") through decoded JSON.
func Lookup(doc interface{}, path string) (interface{}, bool) {
	cur := doc
	if path == "" {
		return cur, true
	}
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[part]
			if !ok {
				return nil, false
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}
