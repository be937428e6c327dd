package workflows

import "github.com/tailored-agentic-units/statekit/observability"

const (
	// Single invocation
	EventWorkflowStart    observability.EventType = "workflow.start"
	EventWorkflowComplete observability.EventType = "workflow.complete"

	// Sequential repetition
	EventRepeatStart    observability.EventType = "repeat.start"
	EventRepeatComplete observability.EventType = "repeat.complete"
	EventRunStart       observability.EventType = "run.start"
	EventRunComplete    observability.EventType = "run.complete"

	// Concurrent batches
	EventBatchStart     observability.EventType = "batch.start"
	EventBatchComplete  observability.EventType = "batch.complete"
	EventWorkerStart    observability.EventType = "worker.start"
	EventWorkerComplete observability.EventType = "worker.complete"
)
