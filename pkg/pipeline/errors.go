package pipeline

import "fmt"

// FieldParseError reports that a stage could not parse its required input.
type FieldParseError struct {
	Stage string
	Field string
	Value string
	Err   error
}

func (e *FieldParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: cannot parse field %q (value %q): %v", e.Stage, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: cannot parse field %q (value %q)", e.Stage, e.Field, e.Value)
}

func (e *FieldParseError) Unwrap() error {
	return e.Err
}
