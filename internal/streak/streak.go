// Package streak tracks consecutive qualifying practice days and classifies
// inactivity gaps into forgiveness regimes. Classification is lazy: there is
// no timer, the gap between the stored last-active day and "today" is
// recomputed from calendar dates on every read.
package streak

import (
	"fmt"

	"github.com/abros/mathtrek/internal/dateutil"
	"github.com/abros/mathtrek/internal/diamonds"
)

const streakKey = "streak"

// LossReason records why a streak is on hold or gone.
type LossReason string

const (
	LossNone              LossReason = ""
	LossFrozen            LossReason = "frozen"
	LossExpiredRestorable LossReason = "expired_restorable"
	LossExpiredPermanent  LossReason = "expired_permanent"
)

// Regime is the classification of the current inactivity gap.
type Regime string

const (
	// RegimeSameDay: already practiced today; nothing changes.
	RegimeSameDay Regime = "same_day"
	// RegimeNormal: streak intact (gap of one day, or nothing to lose).
	RegimeNormal Regime = "normal"
	// RegimeFrozen: streak preserved but on hold; a challenge today rescues it.
	RegimeFrozen Regime = "frozen"
	// RegimeExpiredRestorable: streak expired but recoverable for diamonds.
	RegimeExpiredRestorable Regime = "expired_restorable"
	// RegimeExpiredPermanent: streak lost; the count has been reset.
	RegimeExpiredPermanent Regime = "expired_permanent"
)

// Reasons reported on rejected transitions.
const (
	ReasonAlreadyCounted = "already_counted_today"
	ReasonStatusPending  = "status_pending"
	ReasonNotFrozen      = "not_frozen"
	ReasonNotRestorable  = "not_restorable"
)

// Record is the persisted streak state.
type Record struct {
	CurrentStreak     int        `json:"currentStreak"`
	LongestStreak     int        `json:"longestStreak"`
	LastActiveDate    string     `json:"lastActiveDate"`
	IsFrozen          bool       `json:"isFrozen"`
	LossReason        LossReason `json:"lossReason"`
	StatusHandledDate string     `json:"statusHandledDate"`
	// LostStreak preserves the count a permanent expiry wiped, for display
	// until the loss is acknowledged.
	LostStreak int `json:"lostStreak,omitempty"`
}

// Policy holds the day thresholds and recovery price. The gap boundaries are
// policy, not constants: the frozen and restorable gaps drive both the
// classification table and the matching rescue operations, so they must move
// together.
type Policy struct {
	// FrozenGapDays is the gap that freezes a streak (default 2).
	FrozenGapDays int
	// RestorableGapDays is the gap that expires a streak recoverably
	// (default 3). Any larger gap is a permanent loss.
	RestorableGapDays int
	// RestoreCost is the diamond price of restoring an expired streak.
	RestoreCost int
}

// DefaultPolicy returns the 2-day-frozen / 3-day-restorable convention.
func DefaultPolicy() Policy {
	return Policy{FrozenGapDays: 2, RestorableGapDays: 3, RestoreCost: 30}
}

// KV is the persistence collaborator.
type KV interface {
	Get(key string, out any) (bool, error)
	Put(key string, val any) error
}

// Spender charges diamonds for streak restoration.
type Spender interface {
	Spend(amount int) (diamonds.SpendResult, error)
}

// Tracker evaluates and mutates the streak record.
type Tracker struct {
	store   KV
	spender Spender
	policy  Policy
}

// NewTracker creates a Tracker. The spender is consulted only by RestoreExpired.
func NewTracker(store KV, spender Spender, policy Policy) *Tracker {
	return &Tracker{store: store, spender: spender, policy: policy}
}

// Status is the evaluated streak state for one point in time.
type Status struct {
	Record  Record
	Regime  Regime
	GapDays int
	// NeedsPrompt is true when the regime calls for a player decision and has
	// not been surfaced yet today.
	NeedsPrompt bool
}

// CheckStatusOnLoad classifies the current gap, persists any regime change it
// implies (freezing, expiry, permanent reset), and reports whether the player
// still needs to be shown the result today.
func (tr *Tracker) CheckStatusOnLoad(today dateutil.Day) (Status, error) {
	rec, regime, gap, changed, err := tr.evaluate(today)
	if err != nil {
		return Status{}, err
	}
	if changed {
		if err := tr.save(rec); err != nil {
			return Status{}, err
		}
	}

	needsPrompt := false
	switch regime {
	case RegimeFrozen, RegimeExpiredRestorable, RegimeExpiredPermanent:
		needsPrompt = rec.StatusHandledDate != today.Key()
	}
	return Status{Record: rec, Regime: regime, GapDays: gap, NeedsPrompt: needsPrompt}, nil
}

// MarkStatusHandled records that the player has seen the current regime today,
// suppressing repeat prompts within the same calendar day.
func (tr *Tracker) MarkStatusHandled(today dateutil.Day) error {
	rec, err := tr.load()
	if err != nil {
		return err
	}
	rec.StatusHandledDate = today.Key()
	return tr.save(rec)
}

// Result reports the outcome of a streak transition.
type Result struct {
	OK bool
	// Changed is false when the call succeeded as an idempotent no-op.
	Changed bool
	Reason  string
	Streak  int
}

// IncrementByChallenge advances the streak for a completed challenge. Legal
// only when the streak is neither frozen nor carrying a pending loss. At most
// one increment per calendar day: further completions the same day succeed as
// no-ops.
func (tr *Tracker) IncrementByChallenge(today dateutil.Day) (Result, error) {
	rec, regime, _, changed, err := tr.evaluate(today)
	if err != nil {
		return Result{}, err
	}
	if changed {
		if err := tr.save(rec); err != nil {
			return Result{}, err
		}
	}

	switch regime {
	case RegimeFrozen, RegimeExpiredRestorable, RegimeExpiredPermanent:
		return Result{OK: false, Reason: ReasonStatusPending, Streak: rec.CurrentStreak}, nil
	case RegimeSameDay:
		return Result{OK: true, Changed: false, Reason: ReasonAlreadyCounted, Streak: rec.CurrentStreak}, nil
	}

	rec.CurrentStreak++
	if rec.CurrentStreak > rec.LongestStreak {
		rec.LongestStreak = rec.CurrentStreak
	}
	rec.LastActiveDate = today.Key()
	if err := tr.save(rec); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Changed: true, Streak: rec.CurrentStreak}, nil
}

// UnfreezeByChallenge rescues a frozen streak with a completed challenge. It
// both clears the frost and advances the streak in one step, so callers must
// not also invoke IncrementByChallenge for the same completion.
func (tr *Tracker) UnfreezeByChallenge(today dateutil.Day) (Result, error) {
	rec, regime, _, changed, err := tr.evaluate(today)
	if err != nil {
		return Result{}, err
	}
	if changed {
		if err := tr.save(rec); err != nil {
			return Result{}, err
		}
	}

	if regime != RegimeFrozen {
		return Result{OK: false, Reason: ReasonNotFrozen, Streak: rec.CurrentStreak}, nil
	}

	rec.IsFrozen = false
	rec.LossReason = LossNone
	rec.CurrentStreak++
	if rec.CurrentStreak > rec.LongestStreak {
		rec.LongestStreak = rec.CurrentStreak
	}
	rec.LastActiveDate = today.Key()
	if err := tr.save(rec); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Changed: true, Streak: rec.CurrentStreak}, nil
}

// RestoreExpired buys back an expired-restorable streak. On insufficient
// funds the record is left completely untouched, loss reason included. On
// success the streak continues from its preserved count, incremented by one.
func (tr *Tracker) RestoreExpired(today dateutil.Day) (Result, error) {
	rec, regime, _, changed, err := tr.evaluate(today)
	if err != nil {
		return Result{}, err
	}
	if changed {
		if err := tr.save(rec); err != nil {
			return Result{}, err
		}
	}

	if regime != RegimeExpiredRestorable {
		return Result{OK: false, Reason: ReasonNotRestorable, Streak: rec.CurrentStreak}, nil
	}

	spend, err := tr.spender.Spend(tr.policy.RestoreCost)
	if err != nil {
		return Result{}, err
	}
	if !spend.OK {
		return Result{OK: false, Reason: spend.Reason, Streak: rec.CurrentStreak}, nil
	}

	rec.IsFrozen = false
	rec.LossReason = LossNone
	rec.CurrentStreak++
	if rec.CurrentStreak > rec.LongestStreak {
		rec.LongestStreak = rec.CurrentStreak
	}
	rec.LastActiveDate = today.Key()
	if err := tr.save(rec); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Changed: true, Streak: rec.CurrentStreak}, nil
}

// AcceptLoss gives up the streak: the count resets and all loss state clears.
// Used when the player declines or cannot pay to restore.
func (tr *Tracker) AcceptLoss(today dateutil.Day) (Result, error) {
	rec, err := tr.load()
	if err != nil {
		return Result{}, err
	}

	rec.CurrentStreak = 0
	rec.IsFrozen = false
	rec.LossReason = LossNone
	rec.LostStreak = 0
	rec.StatusHandledDate = today.Key()
	if err := tr.save(rec); err != nil {
		return Result{}, err
	}
	return Result{OK: true, Changed: true, Streak: 0}, nil
}

// evaluate loads the record and applies the gap classification table. The
// returned changed flag tells the caller whether the record now differs from
// what is persisted.
func (tr *Tracker) evaluate(today dateutil.Day) (Record, Regime, int, bool, error) {
	rec, err := tr.load()
	if err != nil {
		return Record{}, RegimeNormal, 0, false, err
	}

	// Never active: nothing to classify.
	if rec.LastActiveDate == "" {
		return rec, RegimeNormal, 0, false, nil
	}

	lastActive, err := dateutil.Parse(rec.LastActiveDate)
	if err != nil {
		// Unreadable date degrades to never-active rather than failing.
		rec.LastActiveDate = ""
		return rec, RegimeNormal, 0, true, nil
	}

	gap := dateutil.DaysBetween(lastActive, today)

	switch {
	case gap <= 0:
		// Same day; a prior frozen evaluation is re-surfaced, not re-derived.
		if rec.IsFrozen {
			return rec, RegimeFrozen, gap, false, nil
		}
		if rec.LossReason == LossExpiredRestorable {
			return rec, RegimeExpiredRestorable, gap, false, nil
		}
		if rec.LossReason == LossExpiredPermanent {
			return rec, RegimeExpiredPermanent, gap, false, nil
		}
		return rec, RegimeSameDay, gap, false, nil

	case gap < tr.policy.FrozenGapDays:
		return rec, RegimeNormal, gap, false, nil

	case rec.CurrentStreak == 0:
		// Nothing to freeze or lose, but an unacknowledged permanent loss
		// still needs surfacing before the streak may restart.
		if rec.LossReason == LossExpiredPermanent {
			return rec, RegimeExpiredPermanent, gap, false, nil
		}
		return rec, RegimeNormal, gap, false, nil

	case gap == tr.policy.FrozenGapDays:
		changed := !rec.IsFrozen || rec.LossReason != LossFrozen
		rec.IsFrozen = true
		rec.LossReason = LossFrozen
		return rec, RegimeFrozen, gap, changed, nil

	case gap == tr.policy.RestorableGapDays:
		changed := rec.IsFrozen || rec.LossReason != LossExpiredRestorable
		rec.IsFrozen = false
		rec.LossReason = LossExpiredRestorable
		return rec, RegimeExpiredRestorable, gap, changed, nil

	default:
		changed := rec.IsFrozen || rec.LossReason != LossExpiredPermanent || rec.CurrentStreak != 0
		if rec.CurrentStreak != 0 {
			rec.LostStreak = rec.CurrentStreak
		}
		rec.IsFrozen = false
		rec.LossReason = LossExpiredPermanent
		rec.CurrentStreak = 0
		return rec, RegimeExpiredPermanent, gap, changed, nil
	}
}

func (tr *Tracker) load() (Record, error) {
	var rec Record
	if _, err := tr.store.Get(streakKey, &rec); err != nil {
		return Record{}, fmt.Errorf("load streak: %w", err)
	}
	return rec, nil
}

func (tr *Tracker) save(rec Record) error {
	if err := tr.store.Put(streakKey, rec); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}
