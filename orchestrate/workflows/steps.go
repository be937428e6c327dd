package workflows

import (
	"fmt"

	"github.com/tailored-agentic-units/statekit/orchestrate/state"
	"github.com/tailored-agentic-units/statekit/record"
)

// Node names registered by the two workflows.
const (
	NodeIncrement = "increment"
	NodeRespond   = "respond"
)

// NoMessagesYet stands in for the last message content when a Complex record
// has no history.
const NoMessagesYet = "No messages yet"

// Reply formats the assistant message appended by the complex step.
func Reply(last string, count int) string {
	return fmt.Sprintf("Received: %s. Count is now %d", last, count)
}

// NextBasic returns the record produced by one run of the basic workflow.
func NextBasic(r record.Basic) record.Basic {
	return r.Increment()
}

// NextComplex returns the record produced by one run of the complex
// workflow: Count is raised by one and an assistant reply quoting the last
// message and the new count is appended.
func NextComplex(r record.Complex) record.Complex {
	last := NoMessagesYet
	if msg, ok := r.LastMessage(); ok {
		last = msg.Content
	}

	next := r.Increment()
	return next.AppendMessage(Reply(last, next.Count), false)
}

// BasicStep is the partial update of the basic workflow's single node.
func BasicStep(r record.Basic) state.Update {
	return NextBasic(r).Update()
}

// ComplexStep is the partial update of the complex workflow's single node.
func ComplexStep(r record.Complex) state.Update {
	return NextComplex(r).Update()
}
