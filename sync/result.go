package sync

import (
	"fmt"
	"io"
)

// Outcome is what happened to one row.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// SyncResult is the outcome of one row.
type SyncResult struct {
	Row     int
	Key     string
	Outcome Outcome
	// Reason is set for failed rows.
	Reason string
	// Actions describe what was done, for the run log.
	Actions []string
}

// Summary aggregates the results of a run.
type Summary struct {
	RunID    string
	Created  int
	Updated  int
	Skipped  int
	Failed   int
	Failures []SyncResult
}

// Add counts result.
func (s *Summary) Add(result SyncResult) {
	switch result.Outcome {
	case Created:
		s.Created++
	case Updated:
		s.Updated++
	case Skipped:
		s.Skipped++
	case Failed:
		s.Failed++
		s.Failures = append(s.Failures, result)
	}
}

func (s Summary) Total() int {
	return s.Created + s.Updated + s.Skipped + s.Failed
}

// Print writes the human readable summary.
func (s Summary) Print(w io.Writer) {
	if s.RunID != "" {
		fmt.Fprintf(w, "Run:     %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Created: %d\n", s.Created)
	fmt.Fprintf(w, "Updated: %d\n", s.Updated)
	fmt.Fprintf(w, "Skipped: %d\n", s.Skipped)
	fmt.Fprintf(w, "Failed:  %d\n", s.Failed)
	if len(s.Failures) > 0 {
		fmt.Fprintln(w, "Failed rows:")
		for _, f := range s.Failures {
			fmt.Fprintf(w, "  [%04d] %s: %s\n", f.Row, f.Key, f.Reason)
		}
	}
}
