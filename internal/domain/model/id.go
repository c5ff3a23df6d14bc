package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID identifies an event within a match. Source files use UUID strings but
// numeric identifiers are accepted too; both compare by their textual key and
// encode back in the form they were read in.
type ID struct {
	key     string
	numeric bool
}

// NewID returns a string identifier.
func NewID(key string) ID { return ID{key: key} }

// NewNumericID returns an identifier that encodes as a JSON number.
func NewNumericID(n int64) ID { return ID{key: fmt.Sprintf("%d", n), numeric: true} }

// String returns the join key.
func (id ID) String() string { return id.key }

// IsZero reports whether the identifier is absent, null, or empty.
func (id ID) IsZero() bool { return id.key == "" }

// MarshalJSON encodes the identifier in its original form.
func (id ID) MarshalJSON() ([]byte, error) {
	switch {
	case id.IsZero():
		return []byte("null"), nil
	case id.numeric:
		return []byte(id.key), nil
	default:
		return json.Marshal(id.key)
	}
}

// UnmarshalJSON accepts a string, a number, or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ID{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{key: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID{key: n.String(), numeric: true}
	return nil
}
