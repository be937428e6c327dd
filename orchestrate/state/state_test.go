package state_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/tailored-agentic-units/statekit/observability"
	"github.com/tailored-agentic-units/statekit/orchestrate/state"
)

type captureObserver struct {
	events []observability.Event
}

func (c *captureObserver) OnEvent(ctx context.Context, event observability.Event) {
	c.events = append(c.events, event)
}

func (c *captureObserver) types() []observability.EventType {
	types := make([]observability.EventType, len(c.events))
	for i, e := range c.events {
		types[i] = e.Type
	}
	return types
}

func TestState_New(t *testing.T) {
	tests := []struct {
		name     string
		observer observability.Observer
	}{
		{name: "with NoOpObserver", observer: observability.NoOpObserver{}},
		{name: "with nil observer", observer: nil},
		{name: "with capture observer", observer: &captureObserver{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := state.New(tt.observer)

			if _, exists := s.Get("count"); exists {
				t.Error("New state should not have any keys")
			}
			if s.RunID == "" {
				t.Error("New state should have a RunID")
			}
			if s.Timestamp.IsZero() {
				t.Error("New state should have a timestamp")
			}
			if s.Observer == nil {
				t.Error("New state should never carry a nil observer")
			}
		})
	}
}

func TestState_New_EmitsEvent(t *testing.T) {
	observer := &captureObserver{}
	state.New(observer)

	if len(observer.events) != 1 || observer.events[0].Type != state.EventStateCreate {
		t.Errorf("New() emitted %v, want [%s]", observer.types(), state.EventStateCreate)
	}
}

func TestState_Set_IsImmutable(t *testing.T) {
	s1 := state.New(nil)
	s2 := s1.Set("count", 0)
	s3 := s2.Set("count", 1)

	if _, exists := s1.Get("count"); exists {
		t.Error("Set modified the original state")
	}
	if v, _ := s2.Get("count"); v != 0 {
		t.Errorf("s2 count = %v, want 0", v)
	}
	if v, _ := s3.Get("count"); v != 1 {
		t.Errorf("s3 count = %v, want 1", v)
	}
	if s3.RunID != s1.RunID {
		t.Error("Set should preserve RunID")
	}
}

func TestState_Clone_IsIndependent(t *testing.T) {
	original := state.New(nil).Set("shared", "original")

	cloned := original.Clone().Set("shared", "modified")

	if v, _ := original.Get("shared"); v != "original" {
		t.Error("modifying clone affected original")
	}
	if v, _ := cloned.Get("shared"); v != "modified" {
		t.Error("clone did not take the new value")
	}
}

func TestState_Clone_ZeroValue(t *testing.T) {
	var zero state.State

	cloned := zero.Clone()
	if cloned.Data == nil || cloned.Secrets == nil {
		t.Fatal("Clone of zero State should allocate maps")
	}

	s := zero.Set("count", 1)
	if v, _ := s.Get("count"); v != 1 {
		t.Errorf("Set on zero State: count = %v, want 1", v)
	}
}

func TestState_Merge(t *testing.T) {
	s1 := state.New(nil).Set("user", "alice").Set("role", "admin")
	s2 := state.New(nil).Set("count", 42).Set("role", "user")

	merged := s1.Merge(s2)

	want := map[string]any{"user": "alice", "role": "user", "count": 42}
	for k, v := range want {
		if got, _ := merged.Get(k); got != v {
			t.Errorf("merged[%s] = %v, want %v", k, got, v)
		}
	}
	if v, _ := s1.Get("role"); v != "admin" {
		t.Error("Merge modified the receiver")
	}
}

func TestState_Apply(t *testing.T) {
	observer := &captureObserver{}
	s := state.New(observer).Set("count", 0).Set("messages", []string{"a"})
	observer.events = nil

	updated := s.Apply(state.Update{"count": 1})

	if v, _ := updated.Get("count"); v != 1 {
		t.Errorf("count = %v, want 1", v)
	}
	if v, _ := updated.Get("messages"); !slices.Equal(v.([]string), []string{"a"}) {
		t.Errorf("messages = %v, keys absent from the update should be kept", v)
	}
	if v, _ := s.Get("count"); v != 0 {
		t.Error("Apply modified the receiver")
	}

	if !slices.Contains(observer.types(), state.EventStateUpdate) {
		t.Errorf("Apply emitted %v, want %s", observer.types(), state.EventStateUpdate)
	}
}

func TestState_Apply_Empty(t *testing.T) {
	s := state.New(nil).Set("count", 3)

	updated := s.Apply(nil)

	if v, _ := updated.Get("count"); v != 3 {
		t.Errorf("count = %v, want 3", v)
	}
}

func TestState_Keys(t *testing.T) {
	s := state.New(nil).Set("messages", nil).Set("count", 0)

	if got := s.Keys(); !slices.Equal(got, []string{"count", "messages"}) {
		t.Errorf("Keys() = %v", got)
	}
}

func TestState_SetCheckpointNode(t *testing.T) {
	s := state.New(nil)
	before := s.Timestamp

	time.Sleep(5 * time.Millisecond)
	s2 := s.SetCheckpointNode("respond")

	if s2.CheckpointNode != "respond" {
		t.Errorf("CheckpointNode = %q, want respond", s2.CheckpointNode)
	}
	if !s2.Timestamp.After(before) {
		t.Error("SetCheckpointNode should refresh the timestamp")
	}
	if s.CheckpointNode != "" {
		t.Error("SetCheckpointNode modified the receiver")
	}
}

func TestState_Secrets(t *testing.T) {
	observer := &captureObserver{}
	s := state.New(observer)
	observer.events = nil

	withSecret := s.SetSecret("token", "abc")

	for _, e := range observer.events {
		if e.Type == state.EventStateSet {
			t.Error("SetSecret must not emit state.set")
		}
	}

	if v, ok := withSecret.GetSecret("token"); !ok || v != "abc" {
		t.Errorf("GetSecret = %v, %v", v, ok)
	}
	if _, ok := s.GetSecret("token"); ok {
		t.Error("SetSecret modified the receiver")
	}

	deleted := withSecret.DeleteSecret("token")
	if _, ok := deleted.GetSecret("token"); ok {
		t.Error("DeleteSecret did not remove the secret")
	}
	if _, ok := withSecret.GetSecret("token"); !ok {
		t.Error("DeleteSecret modified the receiver")
	}
}

func TestState_WithObserver(t *testing.T) {
	observer := &captureObserver{}
	var zero state.State

	attached := zero.WithObserver(observer)
	attached.Set("k", "v")

	if len(observer.events) == 0 {
		t.Error("reattached observer should receive events")
	}
	if zero.WithObserver(nil).Observer == nil {
		t.Error("WithObserver(nil) should fall back to NoOpObserver")
	}
}
