package config

// RepeatConfig configures sequential re-invocation of a workflow, where each
// run starts from the record the previous run produced.
//
// Example JSON:
//
//	{
//	  "capture_intermediate": true,
//	  "observer": "slog"
//	}
type RepeatConfig struct {
	// CaptureIntermediate keeps every record produced along the way,
	// starting with the initial one.
	CaptureIntermediate bool `json:"capture_intermediate" yaml:"capture_intermediate"`

	Observer string `json:"observer" yaml:"observer"`
}

func DefaultRepeatConfig() RepeatConfig {
	return RepeatConfig{
		CaptureIntermediate: false,
		Observer:            "slog",
	}
}

func (c *RepeatConfig) Merge(source *RepeatConfig) {
	if source.CaptureIntermediate {
		c.CaptureIntermediate = true
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}

// BatchConfig configures concurrent invocation of a workflow over
// independent records.
//
// Worker pool sizing:
//   - MaxWorkers = 0: min(NumCPU*2, WorkerCap, len(records))
//   - MaxWorkers > 0: exactly MaxWorkers
//
// FailFast (default true) cancels outstanding work on the first failure.
// With FailFast off, the batch only fails when every record fails.
type BatchConfig struct {
	MaxWorkers int `json:"max_workers" yaml:"max_workers"`

	WorkerCap int `json:"worker_cap" yaml:"worker_cap"`

	// FailFastNil distinguishes unset from an explicit false. Read it
	// through FailFast.
	FailFastNil *bool `json:"fail_fast,omitempty" yaml:"fail_fast,omitempty"`

	Observer string `json:"observer" yaml:"observer"`
}

func (c *BatchConfig) FailFast() bool {
	if c.FailFastNil == nil {
		return true
	}
	return *c.FailFastNil
}

func DefaultBatchConfig() BatchConfig {
	failFast := true
	return BatchConfig{
		MaxWorkers:  0,
		WorkerCap:   16,
		FailFastNil: &failFast,
		Observer:    "slog",
	}
}

func (c *BatchConfig) Merge(source *BatchConfig) {
	if source.MaxWorkers > 0 {
		c.MaxWorkers = source.MaxWorkers
	}

	if source.WorkerCap > 0 {
		c.WorkerCap = source.WorkerCap
	}

	if source.FailFastNil != nil {
		c.FailFastNil = source.FailFastNil
	}

	if source.Observer != "" {
		c.Observer = source.Observer
	}
}
