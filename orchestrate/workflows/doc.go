// Package workflows builds the two single-step workflows that operate on
// records and the helpers that run them repeatedly or in bulk.
//
// # Workflows
//
// Each workflow registers exactly one node, makes it the entry point,
// connects it to the terminal marker, and compiles. Invoke runs it once.
//
//	basic:   {count}           -> {count + 1}
//	complex: {count, messages} -> {count + 1, messages + [assistant reply]}
//
// The complex reply reads "Received: <last>. Count is now <count+1>", where
// <last> is the content of the most recent message or "No messages yet" for
// an empty history. Count is read once; the reply and the update agree.
//
// # Engines
//
// config.WorkflowConfig.Engine selects the graph engine:
//
//   - "state" compiles onto orchestrate/state. The step returns a partial
//     state.Update and the engine merges it into the running state.
//   - "flowgraph" compiles onto github.com/randalmurphal/flowgraph, a typed
//     graph over the record itself.
//
// Both engines produce identical records.
//
//	wf, err := workflows.NewComplex(config.DefaultWorkflowConfig("complex"))
//	out, err := wf.Invoke(ctx, record.NewComplex(0, protocol.Human("Hello, LangGraph!")))
//	// out.Messages[1].Content == "Received: Hello, LangGraph!. Count is now 1"
//
// # Repeat and InvokeBatch
//
// Repeat feeds a workflow its own output a fixed number of times. InvokeBatch
// runs a workflow over independent records on a worker pool and returns the
// results in input order, with fail-fast or collect-all error handling.
//
// # Observability
//
// Workflows emit workflow.start and workflow.complete around every Invoke.
// Repeat and InvokeBatch add their own start/complete events and per-run or
// per-worker events at verbose level.
package workflows
