package usecase

import (
	"time"

	"PulseForge/pkg/util"

	"github.com/google/uuid"
)

// RunContext is the explicit clock of one pipeline run. Nothing in the engine
// reads the wall clock.
type RunContext struct {
	RunID uuid.UUID
	AsOf  time.Time // calendar day scored last; zero means the latest available date
	Now   time.Time // stamped into last_updated and prediction timestamps
}

// NewRunContext stamps a fresh run ID.
func NewRunContext(asOf, now time.Time) RunContext {
	rc := RunContext{RunID: uuid.New(), Now: now.UTC()}
	if !asOf.IsZero() {
		rc.AsOf = util.DateOf(asOf)
	}
	return rc
}
