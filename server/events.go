package server

import "github.com/tailored-agentic-units/statekit/observability"

const (
	EventRequest  observability.EventType = "server.request"
	EventListen   observability.EventType = "server.listen"
	EventShutdown observability.EventType = "server.shutdown"
)
