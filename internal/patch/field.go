// Package patch holds the partial-update field types used by wizard step
// payloads. A Field distinguishes a key that was omitted from the request from
// a key that was sent as an explicit null.
package patch

import (
	"bytes"
	"encoding/json"
	"strings"
)

var nullLiteral = []byte("null")

type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), nullLiteral) {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	f.Null = false
	err := json.Unmarshal(data, &f.Value)
	if err == nil {
		return nil
	}

	// form fields arrive as strings: "12", "true", "[1,2]"
	var s string
	if json.Unmarshal(data, &s) != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	if json.Unmarshal([]byte(s), &f.Value) != nil {
		return err
	}
	return nil
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Set || f.Null {
		return nullLiteral, nil
	}
	return json.Marshal(f.Value)
}

// HasValue reports whether the key was sent with a non-null value.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// Ptr returns nil for omitted and null fields.
func (f Field[T]) Ptr() *T {
	if !f.HasValue() {
		return nil
	}
	v := f.Value
	return &v
}
