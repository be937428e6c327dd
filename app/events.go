package app

import "github.com/tailored-agentic-units/statekit/observability"

// Runtime event types.
const (
	EventChatStart    observability.EventType = "app.chat.start"
	EventChatComplete observability.EventType = "app.chat.complete"
	EventChatError    observability.EventType = "app.chat.error"
)
