package sheet

import (
	"bytes"
	"encoding/json"
)

// SentinelTBD is how an Unknown field is written to persisted state and rendered.
const SentinelTBD = "TBD"

// Field is either Unknown or a concrete string value.
type Field struct {
	known bool
	value string
}

// Unknown returns a field that has not been determined yet.
func Unknown() Field { return Field{} }

// Value returns a field holding s.
func Value(s string) Field { return Field{known: true, value: s} }

// Known reports whether the field holds a concrete value.
func (f Field) Known() bool { return f.known }

// Get returns the value and whether it is known.
func (f Field) Get() (string, bool) { return f.value, f.known }

// String renders the field; Unknown renders as "TBD".
func (f Field) String() string {
	if !f.known {
		return SentinelTBD
	}
	return f.value
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON accepts a string or null. "TBD" and null both decode to Unknown.
func (f *Field) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = Unknown()
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*f = fieldFromWire(s)
	return nil
}

func fieldFromWire(s string) Field {
	if s == SentinelTBD {
		return Unknown()
	}
	return Value(s)
}
