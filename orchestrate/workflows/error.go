package workflows

import (
	"fmt"
	"sort"
	"strings"
)

// WorkflowError reports a failed workflow run together with the record it
// was invoked with.
//
//	_, err := wf.Invoke(ctx, r)
//	var wfErr *workflows.WorkflowError[record.Complex]
//	if errors.As(err, &wfErr) {
//	    fmt.Println(wfErr.Engine, wfErr.Record.Count)
//	}
type WorkflowError[R any] struct {
	Workflow string
	Engine   string
	Record   R
	Err      error
}

func (e *WorkflowError[R]) Error() string {
	return fmt.Sprintf("workflow %s (%s) failed: %v", e.Workflow, e.Engine, e.Err)
}

func (e *WorkflowError[R]) Unwrap() error {
	return e.Err
}

// RepeatError reports the run of a Repeat that failed. Record is the input
// of that run, which is the output of the run before it.
type RepeatError[R any] struct {
	// Run is the 0-based index of the failed run.
	Run    int
	Record R
	Err    error
}

func (e *RepeatError[R]) Error() string {
	return fmt.Sprintf("repeat failed at run %d: %v", e.Run, e.Err)
}

func (e *RepeatError[R]) Unwrap() error {
	return e.Err
}

// RecordError captures the failure of one record in a batch. Index is the
// record's position in the slice passed to InvokeBatch.
type RecordError[R any] struct {
	Index  int
	Record R
	Err    error
}

// BatchResult separates successful outputs from failures. Both slices are
// dense and ordered by input position.
type BatchResult[R any] struct {
	Results []R
	Errors  []RecordError[R]
}

// BatchError is returned by InvokeBatch when failures end the batch. Its
// message groups identical causes:
//
//	batch failed: record 5: context canceled
//	batch failed: 4 records failed with 2 error types: 'boom' (3 records), 'bad count' (1 record)
type BatchError[R any] struct {
	Errors []RecordError[R]
}

func (e *BatchError[R]) Error() string {
	switch len(e.Errors) {
	case 0:
		return "batch failed"
	case 1:
		return fmt.Sprintf("batch failed: record %d: %v", e.Errors[0].Index, e.Errors[0].Err)
	}

	counts := make(map[string]int)
	for _, recErr := range e.Errors {
		counts[recErr.Err.Error()]++
	}

	type cause struct {
		msg   string
		count int
	}
	causes := make([]cause, 0, len(counts))
	for msg, count := range counts {
		causes = append(causes, cause{msg, count})
	}
	sort.Slice(causes, func(i, j int) bool {
		if causes[i].count != causes[j].count {
			return causes[i].count > causes[j].count
		}
		return causes[i].msg < causes[j].msg
	})

	parts := make([]string, len(causes))
	for i, c := range causes {
		unit := "records"
		if c.count == 1 {
			unit = "record"
		}
		parts[i] = fmt.Sprintf("'%s' (%d %s)", c.msg, c.count, unit)
	}

	return fmt.Sprintf(
		"batch failed: %d records failed with %d error types: %s",
		len(e.Errors), len(counts), strings.Join(parts, ", "),
	)
}

// Unwrap exposes every record failure to errors.Is and errors.As.
func (e *BatchError[R]) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, recErr := range e.Errors {
		errs[i] = recErr.Err
	}
	return errs
}
