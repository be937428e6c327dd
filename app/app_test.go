package app_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/tailored-agentic-units/statekit/app"
	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
	"github.com/tailored-agentic-units/statekit/record"
	"github.com/tailored-agentic-units/statekit/session"
)

type captureObserver struct {
	events []observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.events = append(c.events, event)
}

func (c *captureObserver) has(t observability.EventType) bool {
	for _, e := range c.events {
		if e.Type == t {
			return true
		}
	}
	return false
}

// brokenComplex fails every invocation.
type brokenComplex struct{}

func (brokenComplex) Name() string   { return "complex" }
func (brokenComplex) Engine() string { return "broken" }

func (brokenComplex) Invoke(ctx context.Context, c record.Complex) (record.Complex, error) {
	return record.Complex{}, errors.New("engine down")
}

func testConfig() *app.Config {
	cfg := app.DefaultConfig()
	cfg.SetObserver("noop")
	return &cfg
}

func newRuntime(t *testing.T, opts ...app.Option) *app.Runtime {
	t.Helper()
	rt, err := app.New(testConfig(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rt
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*app.Config)
	}{
		{name: "basic engine", mutate: func(c *app.Config) { c.Workflow.Basic.Engine = "unknown" }},
		{name: "complex observer", mutate: func(c *app.Config) { c.Workflow.Complex.Graph.Observer = "unknown" }},
		{name: "session backend", mutate: func(c *app.Config) { c.Session.Backend = "unknown" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			if _, err := app.New(cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestRuntime_Run(t *testing.T) {
	for _, engine := range config.Engines() {
		t.Run(engine, func(t *testing.T) {
			cfg := testConfig()
			cfg.SetEngine(engine)

			rt, err := app.New(cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			basic, err := rt.RunBasic(context.Background(), record.Basic{Count: 0})
			if err != nil {
				t.Fatalf("RunBasic: %v", err)
			}
			if basic.Count != 1 {
				t.Errorf("basic count = %d, want 1", basic.Count)
			}

			cplx, err := rt.RunComplex(context.Background(), record.NewComplex(0, protocol.Human("Hello, LangGraph!")))
			if err != nil {
				t.Fatalf("RunComplex: %v", err)
			}
			want := protocol.Assistant("Received: Hello, LangGraph!. Count is now 1")
			if cplx.Count != 1 || len(cplx.Messages) != 2 || cplx.Messages[1] != want {
				t.Errorf("complex = %+v", cplx)
			}
		})
	}
}

func TestRuntime_Repeat(t *testing.T) {
	rt := newRuntime(t)

	basic, err := rt.RepeatBasic(context.Background(), record.Basic{Count: 1}, 3)
	if err != nil {
		t.Fatalf("RepeatBasic: %v", err)
	}
	if basic.Count != 4 {
		t.Errorf("count = %d, want 4", basic.Count)
	}

	cplx, err := rt.RepeatComplex(context.Background(), record.NewComplex(0), 2)
	if err != nil {
		t.Fatalf("RepeatComplex: %v", err)
	}
	if cplx.Count != 2 || len(cplx.Messages) != 2 {
		t.Errorf("complex = %+v", cplx)
	}
}

func TestRuntime_Batch(t *testing.T) {
	rt := newRuntime(t)

	basic, err := rt.BatchBasic(context.Background(), []record.Basic{{Count: 0}, {Count: 5}, {Count: 9}})
	if err != nil {
		t.Fatalf("BatchBasic: %v", err)
	}
	for i, want := range []int{1, 6, 10} {
		if basic.Results[i].Count != want {
			t.Errorf("Results[%d].Count = %d, want %d", i, basic.Results[i].Count, want)
		}
	}

	cplx, err := rt.BatchComplex(context.Background(), []record.Complex{
		record.NewComplex(0, protocol.Human("a")),
		record.NewComplex(0),
	})
	if err != nil {
		t.Fatalf("BatchComplex: %v", err)
	}
	if got := cplx.Results[1].Messages[0].Content; got != "Received: No messages yet. Count is now 1" {
		t.Errorf("reply = %q", got)
	}
}

func TestRuntime_Chat(t *testing.T) {
	observer := &captureObserver{}
	rt := newRuntime(t, app.WithObserver(observer))
	ctx := context.Background()

	reply, err := rt.Chat(ctx, "Hello, LangGraph!")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != protocol.Assistant("Received: Hello, LangGraph!. Count is now 1") {
		t.Errorf("first reply = %v", reply)
	}

	reply, err = rt.Chat(ctx, "again")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply.Content != "Received: again. Count is now 2" {
		t.Errorf("second reply = %q", reply.Content)
	}

	rec := rt.Session().Record()
	if rec.Count != 2 {
		t.Errorf("session count = %d, want 2", rec.Count)
	}

	wantRoles := []protocol.Role{protocol.RoleHuman, protocol.RoleAssistant, protocol.RoleHuman, protocol.RoleAssistant}
	if len(rec.Messages) != len(wantRoles) {
		t.Fatalf("session has %d messages, want %d", len(rec.Messages), len(wantRoles))
	}
	for i, role := range wantRoles {
		if rec.Messages[i].Role != role {
			t.Errorf("Messages[%d].Role = %s, want %s", i, rec.Messages[i].Role, role)
		}
	}

	if !observer.has(app.EventChatStart) || !observer.has(app.EventChatComplete) {
		t.Error("expected chat start and complete events")
	}
}

func TestRuntime_Chat_EmptyMessage(t *testing.T) {
	rt := newRuntime(t)

	for _, text := range []string{"", "   ", "\n"} {
		if _, err := rt.Chat(context.Background(), text); !errors.Is(err, app.ErrEmptyMessage) {
			t.Errorf("Chat(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}
}

func TestRuntime_Chat_FailureLeavesSession(t *testing.T) {
	observer := &captureObserver{}
	sesh := session.NewMemorySession()
	sesh.Replace(record.NewComplex(4, protocol.Human("before")))

	rt := newRuntime(t,
		app.WithObserver(observer),
		app.WithSession(sesh),
		app.WithComplex(brokenComplex{}),
	)

	if _, err := rt.Chat(context.Background(), "hello"); err == nil {
		t.Fatal("expected error, got nil")
	}

	rec := rt.Session().Record()
	if rec.Count != 4 || len(rec.Messages) != 1 {
		t.Errorf("session changed after failed turn: %+v", rec)
	}
	if !observer.has(app.EventChatError) {
		t.Error("expected a chat error event")
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	rt := newRuntime(t, app.WithLogger(logger))

	if _, err := rt.Chat(context.Background(), "hi"); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	out := buf.String()
	for _, want := range []string{string(app.EventChatComplete), "workflow.complete"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
