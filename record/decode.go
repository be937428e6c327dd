package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode parses one JSON record. Unknown fields are rejected, and records
// that implement Validate are validated.
//
//	c, err := record.Decode[record.Complex](line)
func Decode[R any](data []byte) (R, error) {
	var r R

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if dec.More() {
		return r, fmt.Errorf("%w: trailing data after record", ErrInvalidValue)
	}

	if v, ok := any(r).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return r, err
		}
	}

	return r, nil
}
