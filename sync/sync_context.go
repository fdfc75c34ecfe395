package sync

import (
	"fmt"
	"io"

	"github.com/google/uuid"
)

// SyncContext holds shared sync configuration and run metadata.
// It is immutable after construction.
type SyncContext struct {
	Config         Config
	RecordRequests bool

	// DryRun performs lookups but no writes.
	DryRun bool
	// Overwrite replaces identity fields (name, address, phones) of matched
	// contacts instead of only filling the empty ones.
	Overwrite bool
	Verbose   bool
	// VerboseOutput receives verbose messages; nil discards them.
	VerboseOutput io.Writer

	RunID string
}

// NewSyncContext returns a SyncContext stamped with a fresh run id.
func NewSyncContext(config Config) *SyncContext {
	return &SyncContext{
		Config: config,
		RunID:  uuid.NewString(),
	}
}

// Verbosef writes to VerboseOutput when Verbose is set.
func (sc *SyncContext) Verbosef(format string, args ...interface{}) {
	if !sc.Verbose || sc.VerboseOutput == nil {
		return
	}
	fmt.Fprintf(sc.VerboseOutput, format, args...)
}
