// Package challenge builds and drives the daily set of five arithmetic
// challenges, including the rare super variant, and orchestrates the streak
// and diamond effects of completing one.
package challenge

import (
	"time"

	"github.com/abros/mathtrek/internal/taskgen"
)

// setKeyPrefix is the storage-key prefix for per-day sets.
const setKeyPrefix = "challenges_"

// SetSize is the number of challenges in a daily set, drawn from the six
// operation types without replacement.
const SetSize = 5

// superSlots are the set positions eligible to become the super challenge.
var superSlots = []int{2, 3}

// Challenge is one entry of a daily set. Created once per calendar day and
// never deleted, only superseded by the next day's set.
type Challenge struct {
	ID               string            `json:"id"`
	Operation        taskgen.Operation `json:"operationType"`
	Tasks            []taskgen.Task    `json:"tasks"`
	State            State             `json:"state"`
	ErrorCount       int               `json:"errorCount"`
	CurrentTaskIndex int               `json:"currentTaskIndex"`
	StartedAt        *time.Time        `json:"startedAt,omitempty"`
	CompletedAt      *time.Time        `json:"completedAt,omitempty"`
	IsSuper          bool              `json:"isSuper"`
	SuperResult      SuperResult       `json:"superResult,omitempty"`
}

// DailySet is the ordered list of challenges for one date key.
type DailySet struct {
	Date       string      `json:"date"`
	Challenges []Challenge `json:"challenges"`
}

// AllCompleted reports whether every challenge in the set has been completed.
// It gates the end-of-day reward.
func (s DailySet) AllCompleted() bool {
	if len(s.Challenges) == 0 {
		return false
	}
	for _, c := range s.Challenges {
		if !c.State.IsCompleted() {
			return false
		}
	}
	return true
}

// CurrentIndex returns the index the UI should focus: the first in-progress
// challenge, else the first available one, else -1. Purely a display hint,
// not game logic.
func (s DailySet) CurrentIndex() int {
	for i, c := range s.Challenges {
		if c.State.IsInProgress() {
			return i
		}
	}
	for i, c := range s.Challenges {
		if c.State.IsAvailable() {
			return i
		}
	}
	return -1
}

// SuperIndex returns the index of the super challenge, or -1 if today's set
// has none.
func (s DailySet) SuperIndex() int {
	for i, c := range s.Challenges {
		if c.IsSuper {
			return i
		}
	}
	return -1
}
