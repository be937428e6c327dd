package record

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/orchestrate/state"
)

// State keys that records map onto.
const (
	KeyCount    = "count"
	KeyMessages = "messages"
)

// Update returns the partial state update that carries b.
func (b Basic) Update() state.Update {
	return state.Update{KeyCount: b.Count}
}

// Apply writes b into s.
func (b Basic) Apply(s state.State) state.State {
	return s.Apply(b.Update())
}

// Update returns the partial state update that carries c.
func (c Complex) Update() state.Update {
	return state.Update{
		KeyCount:    c.Count,
		KeyMessages: cloneMessages(c.Messages),
	}
}

// Apply writes c into s.
func (c Complex) Apply(s state.State) state.State {
	return s.Apply(c.Update())
}

// BasicFromState reads a Basic out of s.
func BasicFromState(s state.State) (Basic, error) {
	count, err := countFrom(s)
	if err != nil {
		return Basic{}, err
	}
	return Basic{Count: count}, nil
}

// ComplexFromState reads a Complex out of s. A missing messages key decodes
// as an empty history.
func ComplexFromState(s state.State) (Complex, error) {
	count, err := countFrom(s)
	if err != nil {
		return Complex{}, err
	}

	raw, _ := s.Get(KeyMessages)
	messages, err := toMessages(raw)
	if err != nil {
		return Complex{}, fmt.Errorf("%w: %s: %v", ErrInvalidValue, KeyMessages, err)
	}

	return Complex{Count: count, Messages: messages}, nil
}

func countFrom(s state.State) (int, error) {
	raw, ok := s.Get(KeyCount)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, KeyCount)
	}

	count, err := toInt(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, KeyCount, err)
	}
	return count, nil
}

// toInt accepts the integer shapes a checkpoint codec may hand back.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int", n)
		}
		return int(n), nil
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, err
			}
			return floatToInt(f)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

// floatToInt only accepts integers a float64 holds exactly.
func floatToInt(f float64) (int, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	if f > state.MaxExactInt || f < -state.MaxExactInt {
		return 0, fmt.Errorf("%v is outside the exact integer range of a float64", f)
	}
	return int(f), nil
}

func toMessages(v any) ([]protocol.Message, error) {
	switch list := v.(type) {
	case nil:
		return []protocol.Message{}, nil
	case []protocol.Message:
		if err := (Complex{Messages: list}).Validate(); err != nil {
			return nil, err
		}
		return cloneMessages(list), nil
	case []map[string]any:
		messages := make([]protocol.Message, 0, len(list))
		for i, entry := range list {
			msg, err := messageFromMap(entry)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			messages = append(messages, msg)
		}
		return messages, nil
	case []any:
		messages := make([]protocol.Message, 0, len(list))
		for i, entry := range list {
			msg, err := toMessage(entry)
			if err != nil {
				return nil, fmt.Errorf("entry %d: %w", i, err)
			}
			messages = append(messages, msg)
		}
		return messages, nil
	default:
		return nil, fmt.Errorf("unexpected type %T", v)
	}
}

func toMessage(v any) (protocol.Message, error) {
	switch m := v.(type) {
	case protocol.Message:
		if !m.Role.IsValid() {
			return protocol.Message{}, fmt.Errorf("unknown message role: %q", m.Role)
		}
		return m, nil
	case map[string]any:
		return messageFromMap(m)
	default:
		return protocol.Message{}, fmt.Errorf("unexpected type %T", v)
	}
}

func messageFromMap(m map[string]any) (protocol.Message, error) {
	roleName, ok := m["role"].(string)
	if !ok {
		return protocol.Message{}, fmt.Errorf("role must be a string")
	}

	role, err := protocol.ParseRole(roleName)
	if err != nil {
		return protocol.Message{}, err
	}

	content, ok := m["content"].(string)
	if !ok {
		return protocol.Message{}, fmt.Errorf("content must be a string")
	}

	return protocol.NewMessage(role, content), nil
}
