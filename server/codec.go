package server

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/tailored-agentic-units/statekit/orchestrate/state"
	"github.com/tailored-agentic-units/statekit/record"
)

// EncodeRecord converts a record into the Struct carried on the wire. Field
// names follow the record's json tags. Counts a Struct number cannot hold
// exactly are rejected.
func EncodeRecord[R any](r R) (*structpb.Struct, error) {
	fields, err := state.StructFields(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return structpb.NewStruct(fields)
}

// DecodeRecord reverses EncodeRecord with record.Decode.
func DecodeRecord[R any](st *structpb.Struct) (R, error) {
	raw, err := json.Marshal(st.AsMap())
	if err != nil {
		var zero R
		return zero, fmt.Errorf("failed to decode record: %w", err)
	}

	r, err := record.Decode[R](raw)
	if err != nil {
		return r, fmt.Errorf("failed to decode record: %w", err)
	}
	return r, nil
}
