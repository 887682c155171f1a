package testkit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code and prints the body on failure.
func AssertStatusCode(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got,
		"[%s] HTTP status code mismatch\nbody: %s", s.Name, string(body))
}

// AssertJSONBody checks that actual contains expected. See DiffJSON for the
// matching rules.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var want, got interface{}
	require.NoError(t, json.Unmarshal(expected, &want),
		"[%s] expected response is not valid JSON", s.Name)
	if !assert.NoError(t, json.Unmarshal(actual, &got),
		"[%s] actual response is not valid JSON\nbody: %s", s.Name, string(actual)) {
		return
	}

	if diffs := DiffJSON(want, got); len(diffs) > 0 {
		lines := make([]string, len(diffs))
		for i, d := range diffs {
			lines[i] = "  " + d.String()
		}
		t.Errorf("[%s] response body mismatch:\n%s\nbody: %s",
			s.Name, strings.Join(lines, "\n"), string(actual))
	}
}

// ─── Subset matching ─────────────────────────────────────────────────────────

// Mismatch is one difference found by DiffJSON.
type Mismatch struct {
	Path string
	Want string
	Got  string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: want %s, got %s", m.Path, m.Want, m.Got)
}

// DiffJSON compares decoded JSON values. Objects match when every expected
// key matches; extra actual keys are ignored. Arrays must match element by
// element. Any matches any non-null value and Absent requires the key to be
// missing. Mismatches are reported in key order.
func DiffJSON(expected, actual interface{}) []Mismatch {
	var out []Mismatch
	diffInto(&out, "$", expected, actual)
	return out
}

func diffInto(out *[]Mismatch, path string, want, got interface{}) {
	miss := func(w, g string) { *out = append(*out, Mismatch{Path: path, Want: w, Got: g}) }

	switch w := want.(type) {
	case map[string]interface{}:
		g, ok := got.(map[string]interface{})
		if !ok {
			miss("object", describe(got))
			return
		}
		keys := make([]string, 0, len(w))
		for k := range w {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := path + "." + k
			gv, present := g[k]
			switch {
			case w[k] == Absent && present:
				*out = append(*out, Mismatch{Path: child, Want: "no key", Got: describe(gv)})
			case w[k] == Absent:
			case !present:
				*out = append(*out, Mismatch{Path: child, Want: describe(w[k]), Got: "no key"})
			default:
				diffInto(out, child, w[k], gv)
			}
		}

	case []interface{}:
		g, ok := got.([]interface{})
		if !ok {
			miss("array", describe(got))
			return
		}
		if len(w) != len(g) {
			miss(strconv.Itoa(len(w))+" elements", strconv.Itoa(len(g))+" elements")
		}
		for i := 0; i < len(w) && i < len(g); i++ {
			diffInto(out, fmt.Sprintf("%s[%d]", path, i), w[i], g[i])
		}

	case string:
		if w == Any {
			if got == nil {
				miss("a value", "null")
			}
			return
		}
		if g, ok := got.(string); !ok || g != w {
			miss(describe(want), describe(got))
		}

	default:
		// numbers, booleans and null compare by value
		if want != got {
			miss(describe(want), describe(got))
		}
	}
}

func describe(v interface{}) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
