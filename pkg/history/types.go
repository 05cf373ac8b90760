package history

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of a scaffold run.
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusPartial     Status = "partial"
	StatusCancelled   Status = "cancelled"
	StatusInterrupted Status = "interrupted"
	StatusFailed      Status = "failed"
)

// Run is one invocation of `workshop create`.
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Blueprint string
	Target    string
	Options   []string
	Files     int
	Skipped   int
	Failures  int
	Status    Status
	Error     string
	DryRun    bool
}

// NewRun starts a run record for the given blueprint identifier.
func NewRun(blueprintID string) Run {
	return Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Blueprint: blueprintID,
	}
}

// BlueprintStat aggregates runs of one blueprint.
type BlueprintStat struct {
	Blueprint string
	Runs      int
	Completed int
	LastRun   time.Time
}
