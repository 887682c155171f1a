package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the lifecycle state of an order. Any state may follow any other.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "InProgress"
	StatusDone       Status = "Done"
)

// legacy values written by the first version of the mobile client
var statusAliases = map[string]Status{
	"pending":    StatusPending,
	"pendiente":  StatusPending,
	"inprogress": StatusInProgress,
	"proceso":    StatusInProgress,
	"en proceso": StatusInProgress,
	"done":       StatusDone,
	"finalizado": StatusDone,
}

// ParseStatus normalises s to one of the three canonical values.
func ParseStatus(s string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("_", "", "-", "").Replace(key)
	if st, ok := statusAliases[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("invalid status %q (allowed: Pending, InProgress, Done)", s)
}

// Valid reports whether s is a canonical status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// UnmarshalJSON accepts canonical values and legacy aliases. An empty
// string decodes to the zero Status so that create can apply the default.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("status must be a string")
	}
	if strings.TrimSpace(raw) == "" {
		*s = ""
		return nil
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}
