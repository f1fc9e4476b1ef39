package streak

import (
	"encoding/json"
	"testing"

	"github.com/abros/mathtrek/internal/dateutil"
	"github.com/abros/mathtrek/internal/diamonds"
)

type fakeKV struct {
	data map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (f *fakeKV) Get(key string, out any) (bool, error) {
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (f *fakeKV) Put(key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	f.data[key] = raw
	return nil
}

// fakeSpender approves spends up to its balance.
type fakeSpender struct {
	balance int
	spent   int
}

func (s *fakeSpender) Spend(amount int) (diamonds.SpendResult, error) {
	if amount > s.balance {
		return diamonds.SpendResult{OK: false, Reason: diamonds.ReasonInsufficientFunds, Balance: s.balance}, nil
	}
	s.balance -= amount
	s.spent += amount
	return diamonds.SpendResult{OK: true, Balance: s.balance}, nil
}

func day(t *testing.T, key string) dateutil.Day {
	t.Helper()
	d, err := dateutil.Parse(key)
	if err != nil {
		t.Fatalf("parse %q: %v", key, err)
	}
	return d
}

// newTracker seeds a tracker with an active streak ending on lastActive.
func newTracker(t *testing.T, streak int, lastActive string, spender Spender) *Tracker {
	t.Helper()
	kv := newFakeKV()
	if spender == nil {
		spender = &fakeSpender{}
	}
	tr := NewTracker(kv, spender, DefaultPolicy())
	if streak > 0 {
		rec := Record{CurrentStreak: streak, LongestStreak: streak, LastActiveDate: lastActive}
		if err := tr.save(rec); err != nil {
			t.Fatal(err)
		}
	}
	return tr
}

func TestGapClassification(t *testing.T) {
	tests := []struct {
		name       string
		today      string
		wantRegime Regime
		wantStreak int
		wantFrozen bool
		wantReason LossReason
	}{
		{"same day", "2026-08-10", RegimeSameDay, 5, false, LossNone},
		{"one day", "2026-08-11", RegimeNormal, 5, false, LossNone},
		{"two days freezes", "2026-08-12", RegimeFrozen, 5, true, LossFrozen},
		{"three days restorable", "2026-08-13", RegimeExpiredRestorable, 5, false, LossExpiredRestorable},
		{"four days permanent", "2026-08-14", RegimeExpiredPermanent, 0, false, LossExpiredPermanent},
		{"ten days permanent", "2026-08-20", RegimeExpiredPermanent, 0, false, LossExpiredPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTracker(t, 5, "2026-08-10", nil)
			status, err := tr.CheckStatusOnLoad(day(t, tt.today))
			if err != nil {
				t.Fatal(err)
			}
			if status.Regime != tt.wantRegime {
				t.Errorf("regime = %s, want %s", status.Regime, tt.wantRegime)
			}
			if status.Record.CurrentStreak != tt.wantStreak {
				t.Errorf("streak = %d, want %d", status.Record.CurrentStreak, tt.wantStreak)
			}
			if status.Record.IsFrozen != tt.wantFrozen {
				t.Errorf("frozen = %v, want %v", status.Record.IsFrozen, tt.wantFrozen)
			}
			if status.Record.LossReason != tt.wantReason {
				t.Errorf("lossReason = %q, want %q", status.Record.LossReason, tt.wantReason)
			}
		})
	}
}

func TestZeroStreakNeverFreezes(t *testing.T) {
	tr := newTracker(t, 0, "", nil)

	// Explicitly store a zero streak with an old last-active date.
	if err := tr.save(Record{CurrentStreak: 0, LastActiveDate: "2026-08-01"}); err != nil {
		t.Fatal(err)
	}

	status, err := tr.CheckStatusOnLoad(day(t, "2026-08-03"))
	if err != nil {
		t.Fatal(err)
	}
	if status.Regime != RegimeNormal || status.Record.IsFrozen {
		t.Errorf("zero streak classified as %s (frozen=%v), want normal", status.Regime, status.Record.IsFrozen)
	}
}

func TestIncrementByChallenge(t *testing.T) {
	tr := newTracker(t, 5, "2026-08-10", nil)
	today := day(t, "2026-08-11")

	res, err := tr.IncrementByChallenge(today)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || !res.Changed || res.Streak != 6 {
		t.Fatalf("increment: %+v", res)
	}

	// A second completion the same day is a successful no-op.
	res, err = tr.IncrementByChallenge(today)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Changed || res.Reason != ReasonAlreadyCounted || res.Streak != 6 {
		t.Fatalf("same-day increment: %+v", res)
	}
}

func TestIncrementStartsFreshStreak(t *testing.T) {
	tr := newTracker(t, 0, "", nil)

	res, err := tr.IncrementByChallenge(day(t, "2026-08-11"))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Streak != 1 {
		t.Fatalf("first increment: %+v", res)
	}
}

func TestIncrementRejectedWhileFrozen(t *testing.T) {
	tr := newTracker(t, 5, "2026-08-10", nil)

	res, err := tr.IncrementByChallenge(day(t, "2026-08-12"))
	if err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Reason != ReasonStatusPending {
		t.Fatalf("increment during freeze: %+v", res)
	}
	if res.Streak != 5 {
		t.Errorf("streak mutated to %d", res.Streak)
	}
}

func TestUnfreezeByChallenge(t *testing.T) {
	tr := newTracker(t, 5, "2026-08-10", nil)
	today := day(t, "2026-08-12")

	res, err := tr.UnfreezeByChallenge(today)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Streak != 6 {
		t.Fatalf("unfreeze: %+v", res)
	}

	status, err := tr.CheckStatusOnLoad(today)
	if err != nil {
		t.Fatal(err)
	}
	if status.Record.IsFrozen || status.Record.LossReason != LossNone {
		t.Errorf("post-unfreeze record: %+v", status.Record)
	}
	if status.Record.LastActiveDate != today.Key() {
		t.Errorf("lastActiveDate = %q", status.Record.LastActiveDate)
	}

	// Unfreeze must not double-apply with a same-day increment.
	inc, err := tr.IncrementByChallenge(today)
	if err != nil {
		t.Fatal(err)
	}
	if inc.Changed {
		t.Errorf("increment after unfreeze changed the streak: %+v", inc)
	}
}

func TestUnfreezeRejectedOutsideFrozenGap(t *testing.T) {
	for _, today := range []string{"2026-08-11", "2026-08-13"} {
		tr := newTracker(t, 5, "2026-08-10", nil)
		res, err := tr.UnfreezeByChallenge(day(t, today))
		if err != nil {
			t.Fatal(err)
		}
		if res.OK || res.Reason != ReasonNotFrozen {
			t.Errorf("unfreeze on %s: %+v", today, res)
		}
	}
}

func TestRestoreExpired(t *testing.T) {
	spender := &fakeSpender{balance: 50}
	tr := newTracker(t, 5, "2026-08-10", spender)
	today := day(t, "2026-08-13")

	res, err := tr.RestoreExpired(today)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Streak != 6 {
		t.Fatalf("restore: %+v", res)
	}
	if spender.spent != DefaultPolicy().RestoreCost {
		t.Errorf("charged %d, want %d", spender.spent, DefaultPolicy().RestoreCost)
	}

	status, err := tr.CheckStatusOnLoad(today)
	if err != nil {
		t.Fatal(err)
	}
	if status.Record.LossReason != LossNone || status.Record.CurrentStreak != 6 {
		t.Errorf("post-restore record: %+v", status.Record)
	}
}

func TestRestoreInsufficientFundsLeavesStateUntouched(t *testing.T) {
	tr := newTracker(t, 5, "2026-08-10", &fakeSpender{balance: 0})
	today := day(t, "2026-08-13")

	res, err := tr.RestoreExpired(today)
	if err != nil {
		t.Fatal(err)
	}
	if res.OK || res.Reason != diamonds.ReasonInsufficientFunds {
		t.Fatalf("restore with empty wallet: %+v", res)
	}

	status, err := tr.CheckStatusOnLoad(today)
	if err != nil {
		t.Fatal(err)
	}
	if status.Record.CurrentStreak != 5 {
		t.Errorf("streak = %d, want 5", status.Record.CurrentStreak)
	}
	if status.Record.LossReason != LossExpiredRestorable {
		t.Errorf("lossReason = %q, want unchanged restorable", status.Record.LossReason)
	}
}

func TestRestoreRejectedOutsideRestorableGap(t *testing.T) {
	for _, today := range []string{"2026-08-12", "2026-08-14"} {
		tr := newTracker(t, 5, "2026-08-10", &fakeSpender{balance: 50})
		res, err := tr.RestoreExpired(day(t, today))
		if err != nil {
			t.Fatal(err)
		}
		if res.OK || res.Reason != ReasonNotRestorable {
			t.Errorf("restore on %s: %+v", today, res)
		}
	}
}

func TestAcceptLoss(t *testing.T) {
	tr := newTracker(t, 5, "2026-08-10", nil)
	today := day(t, "2026-08-13")

	res, err := tr.AcceptLoss(today)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Streak != 0 {
		t.Fatalf("acceptLoss: %+v", res)
	}

	status, err := tr.CheckStatusOnLoad(today)
	if err != nil {
		t.Fatal(err)
	}
	if status.Record.LossReason != LossNone || status.Record.IsFrozen || status.Record.CurrentStreak != 0 {
		t.Errorf("post-loss record: %+v", status.Record)
	}
	if status.Record.LongestStreak != 5 {
		t.Errorf("longest streak lost: %d", status.Record.LongestStreak)
	}
	if status.NeedsPrompt {
		t.Error("accepting the loss must suppress further prompts today")
	}
}

func TestPermanentExpiryResetsImmediately(t *testing.T) {
	tr := newTracker(t, 5, "2026-08-10", nil)
	today := day(t, "2026-08-20")

	status, err := tr.CheckStatusOnLoad(today)
	if err != nil {
		t.Fatal(err)
	}
	if status.Record.CurrentStreak != 0 {
		t.Errorf("streak = %d, want immediate reset", status.Record.CurrentStreak)
	}

	// An increment without acknowledging the loss stays rejected.
	res, err := tr.IncrementByChallenge(today)
	if err != nil {
		t.Fatal(err)
	}
	if res.OK {
		t.Errorf("increment before acknowledging permanent loss: %+v", res)
	}

	// After accepting, practice restarts the streak from scratch.
	if _, err := tr.AcceptLoss(today); err != nil {
		t.Fatal(err)
	}
	res, err = tr.IncrementByChallenge(today)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OK || res.Streak != 1 {
		t.Errorf("restart after loss: %+v", res)
	}
}

func TestPromptSuppressionWithinDay(t *testing.T) {
	tr := newTracker(t, 5, "2026-08-10", nil)
	today := day(t, "2026-08-12")

	status, err := tr.CheckStatusOnLoad(today)
	if err != nil {
		t.Fatal(err)
	}
	if !status.NeedsPrompt {
		t.Fatal("first evaluation of a freeze must prompt")
	}

	if err := tr.MarkStatusHandled(today); err != nil {
		t.Fatal(err)
	}

	status, err = tr.CheckStatusOnLoad(today)
	if err != nil {
		t.Fatal(err)
	}
	if status.NeedsPrompt {
		t.Error("second evaluation the same day must not prompt again")
	}

	// The next day's regime change prompts anew.
	status, err = tr.CheckStatusOnLoad(day(t, "2026-08-13"))
	if err != nil {
		t.Fatal(err)
	}
	if status.Regime != RegimeExpiredRestorable || !status.NeedsPrompt {
		t.Errorf("next-day evaluation: %+v", status)
	}
}

func TestLongestStreakTracksMaximum(t *testing.T) {
	tr := newTracker(t, 0, "", nil)

	days := []string{"2026-08-01", "2026-08-02", "2026-08-03"}
	for _, d := range days {
		if _, err := tr.IncrementByChallenge(day(t, d)); err != nil {
			t.Fatal(err)
		}
	}

	// Lose everything, then rebuild a shorter streak.
	if _, err := tr.CheckStatusOnLoad(day(t, "2026-08-10")); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.AcceptLoss(day(t, "2026-08-10")); err != nil {
		t.Fatal(err)
	}
	if _, err := tr.IncrementByChallenge(day(t, "2026-08-10")); err != nil {
		t.Fatal(err)
	}

	status, err := tr.CheckStatusOnLoad(day(t, "2026-08-10"))
	if err != nil {
		t.Fatal(err)
	}
	if status.Record.LongestStreak != 3 {
		t.Errorf("longest = %d, want 3", status.Record.LongestStreak)
	}
	if status.Record.CurrentStreak != 1 {
		t.Errorf("current = %d, want 1", status.Record.CurrentStreak)
	}
}

func TestPermanentLossKeepsCountForDisplay(t *testing.T) {
	tr := newTracker(t, 5, "2026-08-10", nil)

	status, err := tr.CheckStatusOnLoad(day(t, "2026-08-20"))
	if err != nil {
		t.Fatal(err)
	}
	if status.Regime != RegimeExpiredPermanent {
		t.Fatalf("regime = %s, want %s", status.Regime, RegimeExpiredPermanent)
	}
	if status.Record.CurrentStreak != 0 {
		t.Errorf("streak = %d, want 0", status.Record.CurrentStreak)
	}
	if status.Record.LostStreak != 5 {
		t.Errorf("lost streak = %d, want 5", status.Record.LostStreak)
	}

	// The count survives re-evaluation until the loss is acknowledged.
	status, err = tr.CheckStatusOnLoad(day(t, "2026-08-20"))
	if err != nil {
		t.Fatal(err)
	}
	if status.Record.LostStreak != 5 {
		t.Errorf("lost streak after reload = %d, want 5", status.Record.LostStreak)
	}

	if _, err := tr.AcceptLoss(day(t, "2026-08-20")); err != nil {
		t.Fatal(err)
	}
	rec, err := tr.load()
	if err != nil {
		t.Fatal(err)
	}
	if rec.LostStreak != 0 {
		t.Errorf("lost streak after acceptance = %d, want 0", rec.LostStreak)
	}
}
