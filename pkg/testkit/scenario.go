// Package testkit drives REST API tests from JSON scenario files.
//
// A scenario file holds a flow: an array of steps fired in order against
// one handler. Each step describes
//   - The HTTP request to fire (method, URL, inline body or body file, headers)
//   - Expected HTTP status code
//   - Expected response body (inline or file), compared as a JSON subset
//   - Values to capture from the response for later steps
//
// Captured values are substituted wherever "{{name}}" appears in a later
// step's URL, headers, body or expected body:
//
//	[
//	  {"name": "login", "requestMethod": "POST", "requestUrl": "/api/auth/login",
//	   "requestBody": {"email": "ana@taller.co", "password": "secreto1"},
//	   "expectedCode": 200, "capture": {"token": "token"}},
//	  {"name": "list", "requestUrl": "/api/orders",
//	   "headers": {"x-auth-token": "{{token}}"}, "expectedCode": 200}
//	]
//
// Scenario files live next to the *_test.go files:
//
//	testdata/
//	  orders_flow.json
//	  create_order_req.json
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ─── Schema ───────────────────────────────────────────────────────────────────

// Scenario is one request/response step.
type Scenario struct {
	// Meta
	Name        string `json:"name"`
	Description string `json:"description"`

	// Request
	RequestMethod   string            `json:"requestMethod"`   // GET, POST, PUT, DELETE
	RequestURL      string            `json:"requestUrl"`      // e.g. /api/orders/{{orderId}}
	RequestFileName string            `json:"requestFileName"` // JSON body file, relative to the scenario file
	RequestBody     json.RawMessage   `json:"requestBody"`     // inline JSON body; wins over requestFileName
	Headers         map[string]string `json:"headers"`

	// Response assertions
	ExpectedCode     int             `json:"expectedCode"`
	ResponseFileName string          `json:"responseFileName"` // expected JSON body file
	ResponseBody     json.RawMessage `json:"responseBody"`     // inline expected body; wins over responseFileName

	// Capture maps a variable name to a dotted path into the response body,
	// e.g. {"orderId": "id"} or {"first": "0.client.name"}.
	Capture map[string]string `json:"capture"`

	// resolved at load time, not in JSON
	dir string // directory of the scenario file
}

// Placeholders usable as values in an expected body.
const (
	// Any matches any non-null value.
	Any = "<any>"
	// Absent requires the key to be missing from the response object.
	Absent = "<absent>"
)

// ─── Loading ──────────────────────────────────────────────────────────────────

// LoadScenario reads and validates a single-step scenario file.
func LoadScenario(path string) (*Scenario, error) {
	abs, data, err := read(path)
	if err != nil {
		return nil, err
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}
	s.dir = filepath.Dir(abs)

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}
	return &s, nil
}

// LoadFlow reads and validates a flow file: a JSON array of steps.
func LoadFlow(path string) ([]*Scenario, error) {
	abs, data, err := read(path)
	if err != nil {
		return nil, err
	}

	var steps []*Scenario
	if err := json.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("testkit: parse flow %q: %w", abs, err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("testkit: flow %q has no steps", abs)
	}

	dir := filepath.Dir(abs)
	for i, s := range steps {
		s.dir = dir
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("testkit: flow %q step %d: %w", abs, i, err)
		}
	}
	return steps, nil
}

func read(path string) (string, []byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}
	return abs, data, nil
}

// validate performs basic sanity checks on the loaded scenario.
func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET" // sensible default
	}
	return nil
}

// RequestPayload returns the raw request body, or nil when there is none.
func (s *Scenario) RequestPayload() ([]byte, error) {
	if len(s.RequestBody) > 0 {
		return s.RequestBody, nil
	}
	if s.RequestFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.RequestFileName))
}

// ExpectedPayload returns the expected response body, or nil when the body
// is not asserted.
func (s *Scenario) ExpectedPayload() ([]byte, error) {
	if len(s.ResponseBody) > 0 {
		return s.ResponseBody, nil
	}
	if s.ResponseFileName == "" {
		return nil, nil
	}
	return os.ReadFile(s.resolve(s.ResponseFileName))
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}
