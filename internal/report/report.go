// Package report aggregates per-job verdicts into the run summary the CLI
// prints and exits on.
package report

import (
	"fmt"
	"io"

	"github.com/vk/gfxprobe/internal/scene"
)

// Status is the final verdict for one job.
type Status string

const (
	// StatusPassed means the job completed and its expectation, if any, held.
	StatusPassed Status = "passed"

	// StatusFailed means the job's replay errored or its expectation did not
	// hold.
	StatusFailed Status = "failed"

	// StatusSkipped means the job never ran.
	StatusSkipped Status = "skipped"
)

// JobResult carries one job's verdict. Err is set for failed jobs.
type JobResult struct {
	Name string
	Kind scene.JobKind

	Status Status
	Err    error
}

// Report is the outcome of one harness run.
type Report struct {
	Results []JobResult
}

// Add appends one job result.
func (r *Report) Add(res JobResult) {
	r.Results = append(r.Results, res)
}

// Passed reports whether every job passed. A run with no jobs passes.
func (r *Report) Passed() bool {
	for _, res := range r.Results {
		if res.Status != StatusPassed {
			return false
		}
	}
	return true
}

// Counts returns the number of passed, failed, and skipped jobs.
func (r *Report) Counts() (passed, failed, skipped int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPassed:
			passed++
		case StatusFailed:
			failed++
		case StatusSkipped:
			skipped++
		}
	}
	return passed, failed, skipped
}

// Render writes a human-readable summary to w, one line per job followed by
// the totals.
func (r *Report) Render(w io.Writer) error {
	for _, res := range r.Results {
		marker := "✅"
		switch res.Status {
		case StatusFailed:
			marker = "🔥"
		case StatusSkipped:
			marker = "⏭️"
		}
		line := fmt.Sprintf("%s %s (%s): %s", marker, res.Name, res.Kind, res.Status)
		if res.Err != nil {
			line += fmt.Sprintf(": %v", res.Err)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	passed, failed, skipped := r.Counts()
	_, err := fmt.Fprintf(w, "🏁 %d passed, %d failed, %d skipped\n", passed, failed, skipped)
	return err
}
