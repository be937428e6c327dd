// Package record defines the keyed records that workflows operate on and the
// pure operations that produce their successors.
//
// Records are values. Every operation takes a record and returns a new one;
// the returned Messages slice never shares a backing array with the input.
package record

import (
	"fmt"
	"slices"

	"github.com/tailored-agentic-units/statekit/core/protocol"
)

// Basic is the record of the basic workflow.
type Basic struct {
	Count int `json:"count" yaml:"count" msgpack:"count"`
}

// Increment returns a Basic with Count raised by one.
func (b Basic) Increment() Basic {
	return Basic{Count: b.Count + 1}
}

// Complex is the record of the complex workflow. Messages are kept in
// append order.
type Complex struct {
	Count    int                `json:"count" yaml:"count" msgpack:"count"`
	Messages []protocol.Message `json:"messages" yaml:"messages" msgpack:"messages"`
}

// NewComplex creates a Complex that owns a copy of messages.
func NewComplex(count int, messages ...protocol.Message) Complex {
	return Complex{Count: count, Messages: cloneMessages(messages)}
}

// Increment returns a Complex with Count raised by one and the same messages.
func (c Complex) Increment() Complex {
	return Complex{Count: c.Count + 1, Messages: cloneMessages(c.Messages)}
}

// AppendMessage returns a Complex with one additional message, authored by a
// human when isHuman is set and by the assistant otherwise. Count is
// unchanged.
func (c Complex) AppendMessage(text string, isHuman bool) Complex {
	role := protocol.RoleAssistant
	if isHuman {
		role = protocol.RoleHuman
	}

	messages := make([]protocol.Message, len(c.Messages), len(c.Messages)+1)
	copy(messages, c.Messages)
	messages = append(messages, protocol.NewMessage(role, text))

	return Complex{Count: c.Count, Messages: messages}
}

// LastMessage returns the most recent message, if any.
func (c Complex) LastMessage() (protocol.Message, bool) {
	if len(c.Messages) == 0 {
		return protocol.Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// Clone returns a copy that shares no memory with c.
func (c Complex) Clone() Complex {
	return Complex{Count: c.Count, Messages: cloneMessages(c.Messages)}
}

func cloneMessages(messages []protocol.Message) []protocol.Message {
	if messages == nil {
		return []protocol.Message{}
	}
	return slices.Clone(messages)
}

// Validate rejects messages with an unrecognized role.
func (c Complex) Validate() error {
	for i, msg := range c.Messages {
		if !msg.Role.IsValid() {
			return fmt.Errorf("%w: %s[%d]: unknown role %q", ErrInvalidValue, KeyMessages, i, msg.Role)
		}
	}
	return nil
}
