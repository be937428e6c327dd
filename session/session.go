// Package session keeps the conversation behind multi-turn chat: the ordered
// message history and the running count, held as a record.Complex.
package session

import (
	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/record"
)

// Session holds an ordered conversation and its running count.
// Implementations must be safe for concurrent use.
type Session interface {
	// ID returns the unique session identifier.
	ID() string
	// AddMessage appends a message to the conversation history.
	AddMessage(msg protocol.Message)
	// Messages returns a copy of the conversation history.
	Messages() []protocol.Message
	// Record returns a copy of the history and count as a record.
	Record() record.Complex
	// Replace swaps in r as the whole conversation state.
	Replace(r record.Complex)
	// Clear resets the history and the count.
	Clear()
}
