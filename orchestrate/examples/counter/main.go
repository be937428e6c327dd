package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
	"github.com/tailored-agentic-units/statekit/orchestrate/workflows"
	"github.com/tailored-agentic-units/statekit/record"
)

func main() {
	ctx := context.Background()

	fmt.Println("=== Counter Workflows on Both Engines ===")
	fmt.Println()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	for _, engine := range config.Engines() {
		fmt.Printf("--- engine: %s ---\n", engine)

		basicCfg := config.DefaultWorkflowConfig("basic")
		basicCfg.Engine = engine
		basicCfg.Graph.Observer = "slog"

		basic, err := workflows.NewBasic(basicCfg)
		if err != nil {
			log.Fatalf("Failed to create basic workflow: %v", err)
		}

		b, err := basic.Invoke(ctx, record.Basic{Count: 0})
		if err != nil {
			log.Fatalf("Basic workflow failed: %v", err)
		}
		fmt.Printf("  basic: count 0 -> %d\n", b.Count)

		complexCfg := config.DefaultWorkflowConfig("complex")
		complexCfg.Engine = engine
		complexCfg.Graph.Observer = "noop"

		cplx, err := workflows.NewComplex(complexCfg)
		if err != nil {
			log.Fatalf("Failed to create complex workflow: %v", err)
		}

		c, err := cplx.Invoke(ctx, record.NewComplex(0, protocol.Human("Hello, LangGraph!")))
		if err != nil {
			log.Fatalf("Complex workflow failed: %v", err)
		}
		for _, msg := range c.Messages {
			fmt.Printf("  %s\n", msg)
		}

		repeatCfg := config.DefaultRepeatConfig()
		repeatCfg.Observer = "noop"
		repeatCfg.CaptureIntermediate = true

		res, err := workflows.Repeat(ctx, repeatCfg, basic, record.Basic{}, 3, nil)
		if err != nil {
			log.Fatalf("Repeat failed: %v", err)
		}
		fmt.Printf("  repeat x%d: %v\n", res.Runs, res.Intermediate)

		batchCfg := config.DefaultBatchConfig()
		batchCfg.Observer = "noop"

		records := []record.Basic{{Count: 1}, {Count: 10}, {Count: 100}}
		batch, err := workflows.InvokeBatch(ctx, batchCfg, basic, records,
			func(completed, total int, r record.Basic) {
				fmt.Printf("  batch progress %d/%d\n", completed, total)
			},
		)
		if err != nil {
			log.Fatalf("Batch failed: %v", err)
		}
		fmt.Printf("  batch: %v\n", batch.Results)
		fmt.Println()
	}
}
