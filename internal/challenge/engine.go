package challenge

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/abros/mathtrek/internal/dateutil"
	"github.com/abros/mathtrek/internal/diamonds"
	"github.com/abros/mathtrek/internal/progress"
	"github.com/abros/mathtrek/internal/streak"
	"github.com/abros/mathtrek/internal/taskgen"
)

// Reasons reported on rejected operations.
const (
	ReasonNotFound     = "not_found"
	ReasonInvalidState = "invalid_state"
)

// KV is the persistence collaborator.
type KV interface {
	Get(key string, out any) (bool, error)
	Put(key string, val any) error
}

// StreakTracker is the slice of the streak API the engine drives on
// completion.
type StreakTracker interface {
	CheckStatusOnLoad(today dateutil.Day) (streak.Status, error)
	IncrementByChallenge(today dateutil.Day) (streak.Result, error)
	UnfreezeByChallenge(today dateutil.Day) (streak.Result, error)
}

// Ledger is the slice of the diamond API the engine drives on completion.
type Ledger interface {
	UpdateFromProgress(totalTasksCompleted int) (diamonds.UpdateResult, error)
}

// Counter is the progress-counter collaborator.
type Counter interface {
	RecordTask(today dateutil.Day) (progress.Record, error)
	RecordChallenge(today dateutil.Day) (progress.Record, error)
}

// Config tunes daily-set generation.
type Config struct {
	// TasksPerChallenge is the task count of an ordinary challenge.
	TasksPerChallenge int
	// TasksPerSuper is the task count of a super challenge.
	TasksPerSuper int
	// SuperChance is the probability that a set contains a super challenge.
	SuperChance float64
}

// Engine generates and mutates daily challenge sets.
type Engine struct {
	store   KV
	gen     *taskgen.Generator
	rng     *rand.Rand
	cfg     Config
	streaks StreakTracker
	ledger  Ledger
	counter Counter
	now     func() time.Time
}

// NewEngine wires a challenge engine. All dependencies are explicit; the
// engine keeps no state of its own beyond what the store holds.
func NewEngine(store KV, gen *taskgen.Generator, rng *rand.Rand, cfg Config, streaks StreakTracker, ledger Ledger, counter Counter, now func() time.Time) *Engine {
	return &Engine{
		store:   store,
		gen:     gen,
		rng:     rng,
		cfg:     cfg,
		streaks: streaks,
		ledger:  ledger,
		counter: counter,
		now:     now,
	}
}

// GetOrCreateTodaysSet returns the set persisted for today, generating and
// persisting a fresh one only when none exists. This is the only entry point
// for set creation, which keeps generation idempotent per day.
func (e *Engine) GetOrCreateTodaysSet(today dateutil.Day) (DailySet, error) {
	set, found, err := e.loadSet(today)
	if err != nil {
		return DailySet{}, err
	}
	if found {
		return set, nil
	}

	set = e.generateDailySet(today)
	if err := e.saveSet(today, set); err != nil {
		return DailySet{}, err
	}
	return set, nil
}

// generateDailySet builds a fresh set: the six operation types are shuffled
// (Fisher-Yates), the first five become the day's challenges, and one of the
// eligible slots may be promoted to a super challenge.
func (e *Engine) generateDailySet(today dateutil.Day) DailySet {
	ops := taskgen.AllOperations()
	e.rng.Shuffle(len(ops), func(i, j int) {
		ops[i], ops[j] = ops[j], ops[i]
	})

	superIndex := -1
	if e.rng.Float64() < e.cfg.SuperChance {
		superIndex = superSlots[e.rng.Intn(len(superSlots))]
	}

	challenges := make([]Challenge, SetSize)
	for i := 0; i < SetSize; i++ {
		isSuper := i == superIndex
		taskCount := e.cfg.TasksPerChallenge
		if isSuper {
			taskCount = e.cfg.TasksPerSuper
		}

		state := lockedState(isSuper)
		if i == 0 {
			state = availableState(isSuper)
		}

		challenges[i] = Challenge{
			ID:        uuid.NewString(),
			Operation: ops[i],
			Tasks:     e.gen.GenerateSet(ops[i], taskCount),
			State:     state,
			IsSuper:   isSuper,
		}
	}

	return DailySet{Date: today.Key(), Challenges: challenges}
}

// Result reports the outcome of a state-machine operation.
type Result struct {
	OK     bool
	Reason string
	// Done is set by AdvanceTask when the challenge's last task was passed
	// and the caller must now invoke Complete.
	Done bool
}

// Start begins the challenge at index. Legal only from the available state;
// anything else is a reported no-op, never a crash. Starting resets the error
// count and task cursor, so a resumed-after-fail challenge begins clean.
func (e *Engine) Start(today dateutil.Day, index int) (Result, error) {
	set, c, res, err := e.loadChallenge(today, index)
	if err != nil || !res.OK {
		return res, err
	}

	if !c.State.IsAvailable() {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	startedAt := e.now()
	c.State = inProgressState(c.IsSuper)
	c.StartedAt = &startedAt
	c.ErrorCount = 0
	c.CurrentTaskIndex = 0

	if err := e.saveSet(today, set); err != nil {
		return Result{}, err
	}
	return Result{OK: true}, nil
}

// RecordAnswer records one answer attempt for the in-progress challenge at
// index. Incorrect attempts bump the error count in place; the task cursor
// only moves via AdvanceTask, so errors accumulate without bound while the
// learner retries.
func (e *Engine) RecordAnswer(today dateutil.Day, index int, correct bool) (Result, error) {
	set, c, res, err := e.loadChallenge(today, index)
	if err != nil || !res.OK {
		return res, err
	}

	if !c.State.IsInProgress() {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	if !correct {
		c.ErrorCount++
		if err := e.saveSet(today, set); err != nil {
			return Result{}, err
		}
	}
	return Result{OK: true}, nil
}

// AdvanceTask moves the task cursor past a solved task and counts it toward
// lifetime progress. When the cursor reaches the task count, Done is set and
// the caller must invoke Complete.
func (e *Engine) AdvanceTask(today dateutil.Day, index int) (Result, error) {
	set, c, res, err := e.loadChallenge(today, index)
	if err != nil || !res.OK {
		return res, err
	}

	if !c.State.IsInProgress() {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	c.CurrentTaskIndex++
	if err := e.saveSet(today, set); err != nil {
		return Result{}, err
	}
	if _, err := e.counter.RecordTask(today); err != nil {
		return Result{}, err
	}

	return Result{OK: true, Done: c.CurrentTaskIndex >= len(c.Tasks)}, nil
}

// CompleteResult reports the full downstream effect of a completion, for the
// caller to render: currency awarded, the streak movement, and whether the
// whole set is now cleared.
type CompleteResult struct {
	OK     bool
	Reason string

	// SuperResult is set for super challenges: success only on a zero-error
	// clear, failed otherwise, regardless of the completed state.
	SuperResult SuperResult

	// Awarded is the number of diamonds credited by this completion.
	Awarded int
	// Balance is the diamond balance after the award.
	Balance int

	// NewStreak is the streak count after the completion's streak effect.
	NewStreak int
	// StreakChanged is false when the streak had already counted today or a
	// pending loss blocked the increment.
	StreakChanged bool
	// Unfroze is true when this completion rescued a frozen streak.
	Unfroze bool

	// UnlockedIndex is the index flipped from locked to available, or -1.
	UnlockedIndex int
	// AllCompleted is true when every challenge of the set is now completed.
	AllCompleted bool
}

// Complete finishes the in-progress challenge at index and propagates the
// consequences: the next challenge unlocks, the completion is counted, newly
// earned diamonds are credited, and the streak advances (or thaws).
func (e *Engine) Complete(today dateutil.Day, index int, errorCount int) (CompleteResult, error) {
	set, found, err := e.loadSet(today)
	if err != nil {
		return CompleteResult{}, err
	}
	if !found || index < 0 || index >= len(set.Challenges) {
		return CompleteResult{OK: false, Reason: ReasonNotFound, UnlockedIndex: -1}, nil
	}

	c := &set.Challenges[index]
	if !c.State.IsInProgress() {
		return CompleteResult{OK: false, Reason: ReasonInvalidState, UnlockedIndex: -1}, nil
	}

	completedAt := e.now()
	c.State = completedState(c.IsSuper)
	c.CompletedAt = &completedAt
	c.ErrorCount = errorCount
	if c.IsSuper {
		if errorCount == 0 {
			c.SuperResult = SuperSuccess
		} else {
			c.SuperResult = SuperFailed
		}
	}

	unlocked := unlockNext(&set, index)

	if err := e.saveSet(today, set); err != nil {
		return CompleteResult{}, err
	}

	rec, err := e.counter.RecordChallenge(today)
	if err != nil {
		return CompleteResult{}, err
	}

	award, err := e.ledger.UpdateFromProgress(rec.TotalTasksCompleted)
	if err != nil {
		return CompleteResult{}, err
	}

	streakRes, unfroze, err := e.applyStreak(today)
	if err != nil {
		return CompleteResult{}, err
	}

	return CompleteResult{
		OK:            true,
		SuperResult:   c.SuperResult,
		Awarded:       award.Awarded,
		Balance:       award.Balance,
		NewStreak:     streakRes.Streak,
		StreakChanged: streakRes.OK && streakRes.Changed,
		Unfroze:       unfroze,
		UnlockedIndex: unlocked,
		AllCompleted:  set.AllCompleted(),
	}, nil
}

// Fail marks the in-progress challenge at index as failed. The next challenge
// stays locked.
func (e *Engine) Fail(today dateutil.Day, index int, errorCount int) (Result, error) {
	set, c, res, err := e.loadChallenge(today, index)
	if err != nil || !res.OK {
		return res, err
	}

	if !c.State.IsInProgress() {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	c.State = failedState(c.IsSuper)
	c.ErrorCount = errorCount
	if err := e.saveSet(today, set); err != nil {
		return Result{}, err
	}
	return Result{OK: true}, nil
}

// applyStreak routes a completion to the right streak transition: a frozen
// streak thaws, anything else increments (which itself no-ops when today has
// already counted or a pending loss blocks it).
func (e *Engine) applyStreak(today dateutil.Day) (streak.Result, bool, error) {
	status, err := e.streaks.CheckStatusOnLoad(today)
	if err != nil {
		return streak.Result{}, false, err
	}

	if status.Regime == streak.RegimeFrozen {
		res, err := e.streaks.UnfreezeByChallenge(today)
		return res, res.OK, err
	}

	res, err := e.streaks.IncrementByChallenge(today)
	return res, false, err
}

// unlockNext flips the challenge after index from locked to available. Unlock
// propagation is strictly sequential and one-directional; nothing ever skips
// ahead, and already-unlocked successors are left alone.
func unlockNext(set *DailySet, index int) int {
	next := index + 1
	if next >= len(set.Challenges) {
		return -1
	}
	if !set.Challenges[next].State.IsLocked() {
		return -1
	}
	set.Challenges[next].State = availableState(set.Challenges[next].IsSuper)
	return next
}

func (e *Engine) loadChallenge(today dateutil.Day, index int) (DailySet, *Challenge, Result, error) {
	set, found, err := e.loadSet(today)
	if err != nil {
		return DailySet{}, nil, Result{}, err
	}
	if !found || index < 0 || index >= len(set.Challenges) {
		return DailySet{}, nil, Result{OK: false, Reason: ReasonNotFound}, nil
	}
	return set, &set.Challenges[index], Result{OK: true}, nil
}

func (e *Engine) loadSet(today dateutil.Day) (DailySet, bool, error) {
	var set DailySet
	found, err := e.store.Get(setKeyPrefix+today.Key(), &set)
	if err != nil {
		return DailySet{}, false, fmt.Errorf("load daily set: %w", err)
	}
	return set, found, nil
}

func (e *Engine) saveSet(today dateutil.Day, set DailySet) error {
	if err := e.store.Put(setKeyPrefix+today.Key(), set); err != nil {
		return fmt.Errorf("save daily set: %w", err)
	}
	return nil
}
