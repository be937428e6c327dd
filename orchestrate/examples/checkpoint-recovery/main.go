package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
	"github.com/tailored-agentic-units/statekit/orchestrate/state"
	"github.com/tailored-agentic-units/statekit/orchestrate/workflows"
	"github.com/tailored-agentic-units/statekit/record"
)

var auditFailed = false

func main() {
	ctx := context.Background()

	fmt.Println("=== Complex Workflow with File Checkpoint Recovery ===")
	fmt.Println()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	observer := observability.NewSlogObserver(logger)

	dir, err := os.MkdirTemp("", "statekit-checkpoints-")
	if err != nil {
		log.Fatalf("Failed to create checkpoint dir: %v", err)
	}
	defer os.RemoveAll(dir)

	cfg := config.DefaultGraphConfig("checkpointed-complex")
	cfg.Checkpoint.Store = state.StoreFile
	cfg.Checkpoint.Path = dir
	cfg.Checkpoint.Codec = state.CodecMsgpack
	cfg.Checkpoint.Interval = 1

	store, err := state.NewCheckpointStore(cfg.Checkpoint)
	if err != nil {
		log.Fatalf("Failed to create checkpoint store: %v", err)
	}

	graph, err := state.NewGraphWithDeps(cfg, observer, store)
	if err != nil {
		log.Fatalf("Failed to create graph: %v", err)
	}

	respond := state.NewStepNode(func(ctx context.Context, s state.State) (state.Update, error) {
		r, err := record.ComplexFromState(s)
		if err != nil {
			return nil, err
		}
		return workflows.ComplexStep(r), nil
	})

	// fails once so the run has to resume from the respond checkpoint
	audit := state.NewStepNode(func(ctx context.Context, s state.State) (state.Update, error) {
		if !auditFailed {
			auditFailed = true
			return nil, errors.New("audit service unavailable")
		}
		return state.Update{"audited": true}, nil
	})

	must(graph.AddNode(workflows.NodeRespond, respond))
	must(graph.AddNode("audit", audit))
	must(graph.AddEdge(workflows.NodeRespond, "audit", nil))
	must(graph.AddEdge("audit", state.End, nil))
	must(graph.SetEntryPoint(workflows.NodeRespond))

	compiled, err := graph.Compile()
	if err != nil {
		log.Fatalf("Failed to compile graph: %v", err)
	}

	initial := record.NewComplex(0, protocol.Human("Hello, LangGraph!")).Apply(state.New(observer))

	fmt.Println("1. First run...")
	if _, err := compiled.Invoke(ctx, initial); err != nil {
		fmt.Printf("  run failed: %v\n", err)
	}

	ids, _ := store.List()
	fmt.Printf("  checkpoints on disk: %v\n", ids)
	fmt.Println()

	fmt.Println("2. Resuming from checkpoint...")
	final, err := compiled.Resume(ctx, initial.RunID)
	if err != nil {
		log.Fatalf("Resume failed: %v", err)
	}

	result, err := record.ComplexFromState(final)
	if err != nil {
		log.Fatalf("Failed to read record: %v", err)
	}

	fmt.Printf("  count: %d\n", result.Count)
	for _, msg := range result.Messages {
		fmt.Printf("  %s\n", msg)
	}

	ids, _ = store.List()
	fmt.Printf("  checkpoints after success: %v\n", ids)
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
