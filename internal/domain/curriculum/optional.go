package curriculum

import (
	"bytes"
	"encoding/json"
)

// Optional distinguishes an absent field from an explicit null in a PATCH body.
//
//	absent:        Present=false
//	"key": null    Present=true, Null=true
//	"key": value   Present=true, Null=false, Value=value
type Optional[T any] struct {
	Present bool
	Null    bool
	Value   T
}

// Some returns a present, non-null optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Present: true, Value: v} }

// Null returns a present optional holding an explicit null.
func Null[T any]() Optional[T] { return Optional[T]{Present: true, Null: true} }

// UnmarshalJSON is only invoked when the key is present in the object.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Null = true
		var zero T
		o.Value = zero
		return nil
	}
	o.Null = false
	return json.Unmarshal(data, &o.Value)
}

// Cleared reports a present value that asks for removal: explicit null or an empty string.
func (o Optional[T]) Cleared() bool {
	if !o.Present {
		return false
	}
	if o.Null {
		return true
	}
	if s, ok := any(o.Value).(string); ok && s == "" {
		return true
	}
	return false
}

// PutAttr writes the optional into a patch map when present; cleared values become nil.
func PutAttr[T any](patch map[string]any, key string, o Optional[T]) {
	if !o.Present {
		return
	}
	if o.Cleared() {
		patch[key] = nil
		return
	}
	patch[key] = o.Value
}
