package workflows_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
	"github.com/tailored-agentic-units/statekit/orchestrate/state"
	"github.com/tailored-agentic-units/statekit/orchestrate/workflows"
	"github.com/tailored-agentic-units/statekit/record"
)

type captureObserver struct {
	events []observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.events = append(c.events, event)
}

func (c *captureObserver) count(t observability.EventType) int {
	n := 0
	for _, e := range c.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

func workflowConfig(name, engine string) config.WorkflowConfig {
	cfg := config.DefaultWorkflowConfig(name)
	cfg.Engine = engine
	cfg.Graph.Observer = "noop"
	return cfg
}

func TestBasicWorkflow(t *testing.T) {
	for _, engine := range config.Engines() {
		t.Run(engine, func(t *testing.T) {
			wf, err := workflows.NewBasic(workflowConfig("basic", engine))
			require.NoError(t, err)

			assert.Equal(t, "basic", wf.Name())
			assert.Equal(t, engine, wf.Engine())

			out, err := wf.Invoke(context.Background(), record.Basic{Count: 0})
			require.NoError(t, err)
			assert.Equal(t, record.Basic{Count: 1}, out)

			again, err := wf.Invoke(context.Background(), out)
			require.NoError(t, err)
			assert.Equal(t, 2, again.Count, "invoking twice is not idempotent")
		})
	}
}

func TestComplexWorkflow(t *testing.T) {
	tests := []struct {
		name  string
		input record.Complex
		want  record.Complex
	}{
		{
			name:  "greeting",
			input: record.NewComplex(0, protocol.Human("Hello, LangGraph!")),
			want: record.NewComplex(1,
				protocol.Human("Hello, LangGraph!"),
				protocol.Assistant("Received: Hello, LangGraph!. Count is now 1"),
			),
		},
		{
			name:  "empty history",
			input: record.NewComplex(0),
			want:  record.NewComplex(1, protocol.Assistant("Received: No messages yet. Count is now 1")),
		},
	}

	for _, engine := range config.Engines() {
		wf, err := workflows.NewComplex(workflowConfig("complex", engine))
		require.NoError(t, err)

		for _, tt := range tests {
			t.Run(engine+"/"+tt.name, func(t *testing.T) {
				out, err := wf.Invoke(context.Background(), tt.input)
				require.NoError(t, err)

				assert.Equal(t, tt.want, out)
				assert.Len(t, tt.input.Messages, len(tt.want.Messages)-1, "input record must not change")
			})
		}
	}
}

func TestEngineParity(t *testing.T) {
	inputs := []record.Complex{
		record.NewComplex(0),
		record.NewComplex(7, protocol.Human("one")),
		record.NewComplex(3, protocol.Human("one"), protocol.Assistant("two"), protocol.Human("three")),
	}

	stateWf, err := workflows.NewComplex(workflowConfig("complex", config.EngineState))
	require.NoError(t, err)
	flowWf, err := workflows.NewComplex(workflowConfig("complex", config.EngineFlowgraph))
	require.NoError(t, err)

	for _, input := range inputs {
		viaState, err := stateWf.Invoke(context.Background(), input)
		require.NoError(t, err)
		viaFlowgraph, err := flowWf.Invoke(context.Background(), input)
		require.NoError(t, err)

		assert.Equal(t, viaState, viaFlowgraph)
		assert.Equal(t, workflows.NextComplex(input), viaState)
	}
}

func TestNewWorkflow_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.WorkflowConfig)
	}{
		{name: "unknown engine", mutate: func(c *config.WorkflowConfig) { c.Engine = "temporal" }},
		{name: "zero iterations", mutate: func(c *config.WorkflowConfig) { c.Graph.MaxIterations = 0 }},
		{name: "unknown observer", mutate: func(c *config.WorkflowConfig) { c.Graph.Observer = "missing" }},
		{name: "unknown checkpoint store", mutate: func(c *config.WorkflowConfig) {
			c.Graph.Checkpoint.Interval = 1
			c.Graph.Checkpoint.Store = "missing"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := workflowConfig("basic", config.EngineState)
			tt.mutate(&cfg)

			_, err := workflows.NewBasic(cfg)
			assert.Error(t, err)
		})
	}
}

func TestWorkflow_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, engine := range config.Engines() {
		t.Run(engine, func(t *testing.T) {
			wf, err := workflows.NewBasic(workflowConfig("basic", engine))
			require.NoError(t, err)

			input := record.Basic{Count: 4}
			_, err = wf.Invoke(ctx, input)
			require.Error(t, err)
			assert.ErrorIs(t, err, context.Canceled)

			var wfErr *workflows.WorkflowError[record.Basic]
			require.True(t, errors.As(err, &wfErr))
			assert.Equal(t, engine, wfErr.Engine)
			assert.Equal(t, input, wfErr.Record)
		})
	}
}

func TestWorkflow_Events(t *testing.T) {
	observer := &captureObserver{}

	wf, err := workflows.NewBasic(workflowConfig("basic", config.EngineState), workflows.WithObserver(observer))
	require.NoError(t, err)

	_, err = wf.Invoke(context.Background(), record.Basic{})
	require.NoError(t, err)

	assert.Equal(t, 1, observer.count(workflows.EventWorkflowStart))
	assert.Equal(t, 1, observer.count(workflows.EventWorkflowComplete))
	assert.Equal(t, 1, observer.count(state.EventNodeStart))
	assert.Equal(t, 1, observer.count(state.EventGraphComplete))
}

func TestWorkflow_CheckpointStore(t *testing.T) {
	store := state.NewMemoryCheckpointStore()

	cfg := workflowConfig("complex", config.EngineState)
	cfg.Graph.Checkpoint.Interval = 1
	cfg.Graph.Checkpoint.Preserve = true

	wf, err := workflows.NewComplex(cfg, workflows.WithCheckpointStore(store))
	require.NoError(t, err)

	_, err = wf.Invoke(context.Background(), record.NewComplex(0, protocol.Human("hi")))
	require.NoError(t, err)

	ids, err := store.List()
	require.NoError(t, err)
	require.Len(t, ids, 1)

	saved, err := store.Load(ids[0])
	require.NoError(t, err)
	assert.Equal(t, workflows.NodeRespond, saved.CheckpointNode)

	got, err := record.ComplexFromState(saved)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count)
	assert.Len(t, got.Messages, 2)
}

func TestWorkflow_FileCheckpoints(t *testing.T) {
	for _, codec := range state.Codecs() {
		t.Run(codec, func(t *testing.T) {
			cfg := workflowConfig("complex", config.EngineState)
			cfg.Graph.Checkpoint = config.CheckpointConfig{
				Store:    state.StoreFile,
				Path:     t.TempDir(),
				Codec:    codec,
				Interval: 1,
				Preserve: true,
			}

			wf, err := workflows.NewComplex(cfg)
			require.NoError(t, err)

			want, err := wf.Invoke(context.Background(), record.NewComplex(2, protocol.Human("hi")))
			require.NoError(t, err)

			store, err := state.NewCheckpointStore(cfg.Graph.Checkpoint)
			require.NoError(t, err)

			ids, err := store.List()
			require.NoError(t, err)
			require.Len(t, ids, 1)

			saved, err := store.Load(ids[0])
			require.NoError(t, err)

			got, err := record.ComplexFromState(saved)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}
