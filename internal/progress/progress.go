// Package progress keeps the aggregate lifetime and per-day practice counters
// that feed the diamond ledger and the stats views.
package progress

import (
	"fmt"

	"github.com/abros/mathtrek/internal/dateutil"
)

const progressKey = "progress"

// KV is the persistence collaborator.
type KV interface {
	Get(key string, out any) (bool, error)
	Put(key string, val any) error
}

// Record is the persisted counter state. All counters are append-only; the
// daily counter resets implicitly when a new day is first written.
type Record struct {
	TotalTasksCompleted      int    `json:"totalTasksCompleted"`
	TotalChallengesCompleted int    `json:"totalChallengesCompleted"`
	LastPlayedDate           string `json:"lastPlayedDate"`
	TasksCompletedToday      int    `json:"tasksCompletedToday"`
}

// Counter mutates and reads the progress record.
type Counter struct {
	store KV
}

// NewCounter creates a Counter over the given store.
func NewCounter(store KV) *Counter {
	return &Counter{store: store}
}

// Snapshot returns the current counters as seen on the given day. A stale
// daily counter reads as zero; it is not persisted until the next write.
func (c *Counter) Snapshot(today dateutil.Day) (Record, error) {
	rec, err := c.load()
	if err != nil {
		return Record{}, err
	}
	if rec.LastPlayedDate != today.Key() {
		rec.TasksCompletedToday = 0
	}
	return rec, nil
}

// RecordTask counts one completed task on the given day.
func (c *Counter) RecordTask(today dateutil.Day) (Record, error) {
	rec, err := c.load()
	if err != nil {
		return Record{}, err
	}

	if rec.LastPlayedDate != today.Key() {
		rec.TasksCompletedToday = 0
	}
	rec.TotalTasksCompleted++
	rec.TasksCompletedToday++
	rec.LastPlayedDate = today.Key()

	if err := c.store.Put(progressKey, rec); err != nil {
		return Record{}, fmt.Errorf("save progress: %w", err)
	}
	return rec, nil
}

// RecordChallenge counts one completed challenge on the given day.
func (c *Counter) RecordChallenge(today dateutil.Day) (Record, error) {
	rec, err := c.load()
	if err != nil {
		return Record{}, err
	}

	if rec.LastPlayedDate != today.Key() {
		rec.TasksCompletedToday = 0
	}
	rec.TotalChallengesCompleted++
	rec.LastPlayedDate = today.Key()

	if err := c.store.Put(progressKey, rec); err != nil {
		return Record{}, fmt.Errorf("save progress: %w", err)
	}
	return rec, nil
}

func (c *Counter) load() (Record, error) {
	var rec Record
	if _, err := c.store.Get(progressKey, &rec); err != nil {
		return Record{}, fmt.Errorf("load progress: %w", err)
	}
	return rec, nil
}
