package record_test

import (
	"errors"
	"testing"

	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/record"
)

func TestDecode(t *testing.T) {
	got, err := record.Decode[record.Complex]([]byte(`{"count": 2, "messages": [{"role": "human", "content": "hi"}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Count != 2 || len(got.Messages) != 1 || got.Messages[0] != protocol.Human("hi") {
		t.Errorf("Decode = %+v", got)
	}

	basic, err := record.Decode[record.Basic]([]byte(`{"count": 7}`))
	if err != nil || basic.Count != 7 {
		t.Errorf("Decode basic = %+v, %v", basic, err)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: `count=1`},
		{name: "unknown field", input: `{"count": 1, "total": 2}`},
		{name: "unknown role", input: `{"count": 0, "messages": [{"role": "bogus", "content": "x"}]}`},
		{name: "trailing data", input: `{"count": 1} {"count": 2}`},
		{name: "fractional count", input: `{"count": 1.5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := record.Decode[record.Complex]([]byte(tt.input)); !errors.Is(err, record.ErrInvalidValue) {
				t.Errorf("error = %v, want ErrInvalidValue", err)
			}
		})
	}
}
