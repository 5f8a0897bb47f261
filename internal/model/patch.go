package model

import "encoding/json"

// Field is a tri-state patch value for partial updates. It distinguishes
// a key that was omitted from the request (Present == false, field left
// untouched) from a key set to an explicit null (Present && !Valid,
// field cleared where the schema allows it) and a key with a value.
type Field[T any] struct {
	Present bool
	Valid   bool
	Value   T
}

// Set returns a field carrying a concrete value.
func Set[T any](v T) Field[T] {
	return Field[T]{Present: true, Valid: true, Value: v}
}

// Null returns a field set to explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Present: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Present = true
	if string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}
