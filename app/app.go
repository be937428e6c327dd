// Package app composes the workflows and the chat session into a runtime
// shared by the CLI and the RPC server.
//
// The runtime initializes from configuration via New, building both workflows
// and a session. Functional options override any subsystem, mainly for tests.
//
//	rt, err := app.New(&cfg)
//	out, err := rt.RunComplex(ctx, record.NewComplex(0, protocol.Human("Hello, LangGraph!")))
//	reply, err := rt.Chat(ctx, "Hello again")
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tailored-agentic-units/statekit/core/protocol"
	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/config"
	"github.com/tailored-agentic-units/statekit/orchestrate/workflows"
	"github.com/tailored-agentic-units/statekit/record"
	"github.com/tailored-agentic-units/statekit/session"
)

// Option configures a Runtime. Options are applied before the workflows are
// built, so an observer override reaches them too.
type Option func(*Runtime)

// WithObserver replaces the observers named in configuration.
func WithObserver(o observability.Observer) Option {
	return func(r *Runtime) { r.observer = o }
}

// WithLogger routes every event to logger through a SlogObserver.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.observer = observability.NewSlogObserver(logger) }
}

// WithSession overrides the config-created session.
func WithSession(s session.Session) Option {
	return func(r *Runtime) { r.session = s }
}

// WithBasic overrides the config-created basic workflow.
func WithBasic(wf workflows.Workflow[record.Basic]) Option {
	return func(r *Runtime) { r.basic = wf }
}

// WithComplex overrides the config-created complex workflow.
func WithComplex(wf workflows.Workflow[record.Complex]) Option {
	return func(r *Runtime) { r.complex = wf }
}

// Runtime runs the workflows and carries the chat session across turns.
type Runtime struct {
	basic    workflows.Workflow[record.Basic]
	complex  workflows.Workflow[record.Complex]
	session  session.Session
	observer observability.Observer

	repeat config.RepeatConfig
	batch  config.BatchConfig

	// chat serializes turns so each one sees the previous reply.
	chat sync.Mutex
}

// New creates a Runtime from configuration.
func New(cfg *Config, opts ...Option) (*Runtime, error) {
	r := &Runtime{
		repeat: cfg.Workflow.Repeat,
		batch:  cfg.Workflow.Batch,
	}

	for _, opt := range opts {
		opt(r)
	}

	var wfOpts []workflows.Option
	if r.observer != nil {
		wfOpts = append(wfOpts, workflows.WithObserver(r.observer))
	} else {
		r.observer = observability.NewSlogObserver(slog.Default())
	}

	if r.basic == nil {
		basic, err := workflows.NewBasic(cfg.Workflow.Basic, wfOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create basic workflow: %w", err)
		}
		r.basic = basic
	}

	if r.complex == nil {
		cplx, err := workflows.NewComplex(cfg.Workflow.Complex, wfOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create complex workflow: %w", err)
		}
		r.complex = cplx
	}

	if r.session == nil {
		sesh, err := session.New(&cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		r.session = sesh
	}

	return r, nil
}

// Session returns the chat session.
func (r *Runtime) Session() session.Session {
	return r.session
}

// Observer returns the observer events are reported to.
func (r *Runtime) Observer() observability.Observer {
	return r.observer
}

// RunBasic invokes the basic workflow once.
func (r *Runtime) RunBasic(ctx context.Context, b record.Basic) (record.Basic, error) {
	return r.basic.Invoke(ctx, b)
}

// RunComplex invokes the complex workflow once.
func (r *Runtime) RunComplex(ctx context.Context, c record.Complex) (record.Complex, error) {
	return r.complex.Invoke(ctx, c)
}

// RepeatBasic invokes the basic workflow times times, each run on the
// previous output.
func (r *Runtime) RepeatBasic(ctx context.Context, b record.Basic, times int) (record.Basic, error) {
	result, err := workflows.Repeat(ctx, r.repeat, r.basic, b, times, nil)
	return result.Final, err
}

// RepeatComplex invokes the complex workflow times times, each run on the
// previous output.
func (r *Runtime) RepeatComplex(ctx context.Context, c record.Complex, times int) (record.Complex, error) {
	result, err := workflows.Repeat(ctx, r.repeat, r.complex, c, times, nil)
	return result.Final, err
}

// BatchBasic invokes the basic workflow on each record concurrently.
func (r *Runtime) BatchBasic(ctx context.Context, records []record.Basic) (workflows.BatchResult[record.Basic], error) {
	return workflows.InvokeBatch(ctx, r.batch, r.basic, records, nil)
}

// BatchComplex invokes the complex workflow on each record concurrently.
func (r *Runtime) BatchComplex(ctx context.Context, records []record.Complex) (workflows.BatchResult[record.Complex], error) {
	return workflows.InvokeBatch(ctx, r.batch, r.complex, records, nil)
}

// Chat runs one conversational turn: text is appended to the session as a
// human message, the complex workflow runs on the session record, and the
// result, including the assistant reply, becomes the new session record.
// Count keeps running across turns. A failed turn leaves the session
// unchanged.
func (r *Runtime) Chat(ctx context.Context, text string) (protocol.Message, error) {
	if strings.TrimSpace(text) == "" {
		return protocol.Message{}, ErrEmptyMessage
	}

	r.chat.Lock()
	defer r.chat.Unlock()

	turn := r.session.Record().AppendMessage(text, true)

	r.observer.OnEvent(ctx, observability.Event{
		Type:      EventChatStart,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "app.Chat",
		Data: map[string]any{
			"session_id":     r.session.ID(),
			"count":          turn.Count,
			"message_length": len(text),
		},
	})

	out, err := r.complex.Invoke(ctx, turn)
	if err != nil {
		r.observer.OnEvent(ctx, observability.Event{
			Type:      EventChatError,
			Level:     observability.LevelWarning,
			Timestamp: time.Now(),
			Source:    "app.Chat",
			Data: map[string]any{
				"session_id": r.session.ID(),
				"error":      err.Error(),
			},
		})
		return protocol.Message{}, fmt.Errorf("chat turn failed: %w", err)
	}

	r.session.Replace(out)
	reply, _ := out.LastMessage()

	r.observer.OnEvent(ctx, observability.Event{
		Type:      EventChatComplete,
		Level:     observability.LevelInfo,
		Timestamp: time.Now(),
		Source:    "app.Chat",
		Data: map[string]any{
			"session_id": r.session.ID(),
			"count":      out.Count,
			"messages":   len(out.Messages),
		},
	})

	return reply, nil
}
