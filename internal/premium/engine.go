package premium

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/abros/mathtrek/internal/dateutil"
	"github.com/abros/mathtrek/internal/diamonds"
	"github.com/abros/mathtrek/internal/taskgen"
)

// Reasons reported on rejected operations.
const (
	ReasonNotFound     = "not_found"
	ReasonNotSpawned   = "not_spawned"
	ReasonInvalidState = "invalid_state"
)

// KV is the persistence collaborator.
type KV interface {
	Get(key string, out any) (bool, error)
	Put(key string, val any) error
}

// Ledger charges entry fees and pays out rewards.
type Ledger interface {
	Spend(amount int) (diamonds.SpendResult, error)
	Add(amount int) (diamonds.SpendResult, error)
}

// Config tunes premium spawning and economy.
type Config struct {
	// RushChance is rolled first; a Rush spawn suppresses Nut for the day.
	RushChance float64
	// NutChance is rolled only when Rush did not spawn. The asymmetric
	// two-stage roll keeps Rush the rarer, prioritized challenge.
	NutChance float64
	// EntryFee is charged on every start, including restarts after failure.
	EntryFee int
	// NutReward and RushReward are paid on a successful clear.
	NutReward  int
	RushReward int
	// TasksPerChallenge is the task count of either premium challenge.
	TasksPerChallenge int
	// RushSeconds is the countdown granted to a Rush attempt.
	RushSeconds int
}

// Engine generates and drives the premium records. Nut tasks come from the
// hard generator; Rush uses ordinary difficulty and gets its pressure from
// the clock instead.
type Engine struct {
	store   KV
	gen     *taskgen.Generator
	hardGen *taskgen.Generator
	rng     *rand.Rand
	cfg     Config
	ledger  Ledger
	now     func() time.Time
}

// NewEngine wires a premium engine.
func NewEngine(store KV, gen, hardGen *taskgen.Generator, rng *rand.Rand, cfg Config, ledger Ledger, now func() time.Time) *Engine {
	return &Engine{
		store:   store,
		gen:     gen,
		hardGen: hardGen,
		rng:     rng,
		cfg:     cfg,
		ledger:  ledger,
		now:     now,
	}
}

// GetOrRollToday returns today's premium records, rolling the daily spawn
// exactly once. Idempotent per day: a persisted roll is never re-rolled.
func (e *Engine) GetOrRollToday(today dateutil.Day) (DayRecord, error) {
	rec, found, err := e.load(today)
	if err != nil {
		return DayRecord{}, err
	}
	if found {
		return rec, nil
	}

	rushSpawned := e.rng.Float64() < e.cfg.RushChance
	nutSpawned := false
	if !rushSpawned {
		nutSpawned = e.rng.Float64() < e.cfg.NutChance
	}

	rec = DayRecord{
		Date: today.Key(),
		Nut:  e.newRecord(KindNut, nutSpawned),
		Rush: e.newRecord(KindRush, rushSpawned),
	}
	if err := e.save(today, rec); err != nil {
		return DayRecord{}, err
	}
	return rec, nil
}

func (e *Engine) newRecord(kind Kind, spawned bool) Record {
	rec := Record{
		ID:      uuid.NewString(),
		Kind:    kind,
		Spawned: spawned,
		State:   StateNotSpawned,
	}
	if spawned {
		rec.State = StateAvailable
		rec.Tasks = e.generateTasks(kind)
	}
	return rec
}

func (e *Engine) generateTasks(kind Kind) []taskgen.Task {
	if kind == KindNut {
		return e.hardGen.GenerateSet(taskgen.OpMixed, e.cfg.TasksPerChallenge)
	}
	return e.gen.GenerateSet(taskgen.OpMixed, e.cfg.TasksPerChallenge)
}

// Result reports the outcome of a premium operation.
type Result struct {
	OK     bool
	Reason string
	// Fee is the number of diamonds charged by a successful Start.
	Fee int
	// Done is set by AdvanceTask when the last task was passed.
	Done bool
}

// Start pays the entry fee and begins the spawned challenge. The fee is
// charged on every start; a restart after a failed attempt pays again. On
// insufficient funds nothing changes.
func (e *Engine) Start(today dateutil.Day, kind Kind) (Result, error) {
	day, rec, res, err := e.loadRecord(today, kind)
	if err != nil || !res.OK {
		return res, err
	}

	if rec.State != StateAvailable {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	spend, err := e.ledger.Spend(e.cfg.EntryFee)
	if err != nil {
		return Result{}, err
	}
	if !spend.OK {
		return Result{OK: false, Reason: spend.Reason}, nil
	}

	startedAt := e.now()
	rec.State = StateInProgress
	rec.StartedAt = &startedAt
	rec.ErrorCount = 0
	rec.CurrentTaskIndex = 0
	if kind == KindRush {
		rec.TimeRemaining = e.cfg.RushSeconds
	}

	if err := e.save(today, *day); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Fee: e.cfg.EntryFee}, nil
}

// RecordAnswer records one attempt. Wrong answers bump the error count; for
// Rush they cost nothing but time, for Nut the caller decides whether to fail
// immediately or let the learner finish and miss the zero-error bar.
func (e *Engine) RecordAnswer(today dateutil.Day, kind Kind, correct bool) (Result, error) {
	day, rec, res, err := e.loadRecord(today, kind)
	if err != nil || !res.OK {
		return res, err
	}

	if rec.State != StateInProgress {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	if !correct {
		rec.ErrorCount++
		if err := e.save(today, *day); err != nil {
			return Result{}, err
		}
	}
	return Result{OK: true}, nil
}

// AdvanceTask moves past a solved task. Done is set when the final task was
// passed and the caller must invoke Complete.
func (e *Engine) AdvanceTask(today dateutil.Day, kind Kind) (Result, error) {
	day, rec, res, err := e.loadRecord(today, kind)
	if err != nil || !res.OK {
		return res, err
	}

	if rec.State != StateInProgress {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	rec.CurrentTaskIndex++
	if err := e.save(today, *day); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Done: rec.CurrentTaskIndex >= len(rec.Tasks)}, nil
}

// TickTime stores the externally advanced Rush countdown. It performs no
// transition of its own; the timeout signal is Timeout.
func (e *Engine) TickTime(today dateutil.Day, secondsRemaining int) (Result, error) {
	day, rec, res, err := e.loadRecord(today, KindRush)
	if err != nil || !res.OK {
		return res, err
	}

	if rec.State != StateInProgress {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	if secondsRemaining < 0 {
		secondsRemaining = 0
	}
	rec.TimeRemaining = secondsRemaining
	if err := e.save(today, *day); err != nil {
		return Result{}, err
	}
	return Result{OK: true}, nil
}

// CompleteResult reports the outcome of finishing an attempt.
type CompleteResult struct {
	OK      bool
	Reason  string
	Outcome Outcome
	// Reward is the number of diamonds paid out (success only).
	Reward int
	// Balance is the diamond balance after any payout.
	Balance int
}

// Complete finishes the in-progress attempt after its last task. Nut succeeds
// only on a zero-error clear and otherwise fails on the spot; Rush succeeds
// whenever completion beats the clock, errors notwithstanding. Success pays
// the reward; failure resets the record to available with fresh tasks.
func (e *Engine) Complete(today dateutil.Day, kind Kind) (CompleteResult, error) {
	day, rec, res, err := e.loadRecord(today, kind)
	if err != nil || !res.OK {
		return CompleteResult{OK: false, Reason: res.Reason}, err
	}

	if rec.State != StateInProgress {
		return CompleteResult{OK: false, Reason: ReasonInvalidState}, nil
	}

	if kind == KindNut && rec.ErrorCount > 0 {
		if err := e.resetToAvailable(today, day, rec, OutcomeFailed); err != nil {
			return CompleteResult{}, err
		}
		return CompleteResult{OK: true, Outcome: OutcomeFailed}, nil
	}

	// A Rush whose stored countdown already hit zero cannot succeed, even if
	// the caller never sent the timeout signal.
	if kind == KindRush && rec.TimeRemaining <= 0 {
		if err := e.resetToAvailable(today, day, rec, OutcomeTimeout); err != nil {
			return CompleteResult{}, err
		}
		return CompleteResult{OK: true, Outcome: OutcomeTimeout}, nil
	}

	completedAt := e.now()
	rec.State = StateCompleted
	rec.CompletedAt = &completedAt
	rec.Result = OutcomeSuccess
	if err := e.save(today, *day); err != nil {
		return CompleteResult{}, err
	}

	reward := e.cfg.NutReward
	if kind == KindRush {
		reward = e.cfg.RushReward
	}
	added, err := e.ledger.Add(reward)
	if err != nil {
		return CompleteResult{}, err
	}

	return CompleteResult{OK: true, Outcome: OutcomeSuccess, Reward: reward, Balance: added.Balance}, nil
}

// Fail ends the in-progress attempt on the error path (a Nut mistake the
// caller surfaces immediately, or an abandoned run). The record returns to
// available with freshly regenerated tasks; the spent fee stays spent.
func (e *Engine) Fail(today dateutil.Day, kind Kind) (Result, error) {
	day, rec, res, err := e.loadRecord(today, kind)
	if err != nil || !res.OK {
		return res, err
	}

	if rec.State != StateInProgress {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	if err := e.resetToAvailable(today, day, rec, OutcomeFailed); err != nil {
		return Result{}, err
	}
	return Result{OK: true}, nil
}

// Timeout ends an in-progress Rush attempt whose countdown reached zero. It
// is a failure path distinct from the error-driven one: the result records
// timeout, and like any failure the record resets to available.
func (e *Engine) Timeout(today dateutil.Day) (Result, error) {
	day, rec, res, err := e.loadRecord(today, KindRush)
	if err != nil || !res.OK {
		return res, err
	}

	if rec.State != StateInProgress {
		return Result{OK: false, Reason: ReasonInvalidState}, nil
	}

	if err := e.resetToAvailable(today, day, rec, OutcomeTimeout); err != nil {
		return Result{}, err
	}
	return Result{OK: true}, nil
}

func (e *Engine) resetToAvailable(today dateutil.Day, day *DayRecord, rec *Record, outcome Outcome) error {
	rec.State = StateAvailable
	rec.Result = outcome
	rec.Tasks = e.generateTasks(rec.Kind)
	rec.ErrorCount = 0
	rec.CurrentTaskIndex = 0
	rec.StartedAt = nil
	rec.TimeRemaining = 0
	return e.save(today, *day)
}

func (e *Engine) loadRecord(today dateutil.Day, kind Kind) (*DayRecord, *Record, Result, error) {
	day, found, err := e.load(today)
	if err != nil {
		return nil, nil, Result{}, err
	}
	if !found {
		return nil, nil, Result{OK: false, Reason: ReasonNotFound}, nil
	}

	rec := day.record(kind)
	if !rec.Spawned {
		return nil, nil, Result{OK: false, Reason: ReasonNotSpawned}, nil
	}
	return &day, rec, Result{OK: true}, nil
}

func (e *Engine) load(today dateutil.Day) (DayRecord, bool, error) {
	var rec DayRecord
	found, err := e.store.Get(recordKeyPrefix+today.Key(), &rec)
	if err != nil {
		return DayRecord{}, false, fmt.Errorf("load premium record: %w", err)
	}
	return rec, found, nil
}

func (e *Engine) save(today dateutil.Day, rec DayRecord) error {
	if err := e.store.Put(recordKeyPrefix+today.Key(), rec); err != nil {
		return fmt.Errorf("save premium record: %w", err)
	}
	return nil
}
