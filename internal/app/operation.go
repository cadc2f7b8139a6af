package app

import (
	"time"

	"github.com/google/uuid"
)

// Operation records one CLI invocation for the run log.
type Operation struct {
	RunID      string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	Started    time.Time
}

// NewOperation creates an operation that starts out successful.
func NewOperation(runID, name, parameters string, started time.Time) *Operation {
	return &Operation{
		RunID:      runID,
		Name:       name,
		Parameters: parameters,
		Status:     "success",
		Started:    started,
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Failed reports whether the operation has been marked failed.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(now time.Time) time.Duration {
	return now.Sub(op.Started)
}

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// RealClock uses the system clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator produces run identifiers.
type IDGenerator interface {
	New() string
}

// UUIDGenerator yields the first block of a random UUID, enough to tell runs
// apart in a shared log file.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString()[:8] }
