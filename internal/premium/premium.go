// Package premium runs the two entry-fee-gated daily challenges: Nut, the
// high-difficulty zero-error variant, and Rush, the timed variant. The two
// share one mutually exclusive daily spawn roll, so a given day offers at
// most one of them.
package premium

import (
	"time"

	"github.com/abros/mathtrek/internal/taskgen"
)

const recordKeyPrefix = "premium_"

// Kind names one of the two premium challenges.
type Kind string

const (
	KindNut  Kind = "nut"
	KindRush Kind = "rush"
)

// DisplayName returns a human-readable label for the kind.
func (k Kind) DisplayName() string {
	switch k {
	case KindNut:
		return "Nut Challenge"
	case KindRush:
		return "Rush Challenge"
	default:
		return string(k)
	}
}

// State is a premium record's position in its lifecycle. A failed attempt
// resets to available with fresh tasks (the next start pays the fee again),
// so failed is observable through the result field rather than a terminal
// state.
type State string

const (
	StateNotSpawned State = "not_spawned"
	StateAvailable  State = "available"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Outcome is the terminal result of the most recent attempt.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeTimeout Outcome = "timeout"
)

// Record is the per-day state of one premium challenge.
type Record struct {
	ID               string         `json:"id"`
	Kind             Kind           `json:"kind"`
	Spawned          bool           `json:"spawned"`
	State            State          `json:"state"`
	Tasks            []taskgen.Task `json:"tasks"`
	ErrorCount       int            `json:"errorCount"`
	CurrentTaskIndex int            `json:"currentTaskIndex"`
	StartedAt        *time.Time     `json:"startedAt,omitempty"`
	CompletedAt      *time.Time     `json:"completedAt,omitempty"`
	Result           Outcome        `json:"result"`
	// TimeRemaining is the Rush countdown in seconds, fed by the UI tick.
	TimeRemaining int `json:"timeRemaining,omitempty"`
}

// DayRecord is the persisted premium state for one date key.
type DayRecord struct {
	Date string `json:"date"`
	Nut  Record `json:"nut"`
	Rush Record `json:"rush"`
}

// SpawnedKind returns the kind spawned today, or "" when neither rolled.
func (d DayRecord) SpawnedKind() Kind {
	if d.Rush.Spawned {
		return KindRush
	}
	if d.Nut.Spawned {
		return KindNut
	}
	return ""
}

func (d *DayRecord) record(kind Kind) *Record {
	if kind == KindRush {
		return &d.Rush
	}
	return &d.Nut
}
