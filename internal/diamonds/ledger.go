// Package diamonds manages the virtual-currency ledger. Diamonds are earned
// from lifetime task volume and spent on premium entries and streak recovery.
// The earning rule is a pure function of the lifetime task count, which makes
// every award decision replayable and idempotent.
package diamonds

import "fmt"

const (
	walletKey = "diamonds"
	schemaKey = "schema_version"
)

// schemaVersion marks the ledger format. Version 1 introduced explicit
// earned-total tracking; its absence means the backfill has not run yet.
const schemaVersion = 1

// Reasons reported on failed ledger operations.
const (
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonInvalidAmount     = "invalid_amount"
)

// KV is the persistence collaborator the ledger writes through.
type KV interface {
	Get(key string, out any) (bool, error)
	Put(key string, val any) error
}

// Wallet is the persisted ledger state. Balance can fall below TotalEarned
// once spending occurs; TotalEarned itself never decreases.
type Wallet struct {
	Balance     int `json:"balance"`
	TotalEarned int `json:"totalEarned"`
}

type schemaRecord struct {
	Version int `json:"version"`
}

// Ledger converts task volume into currency and applies spends and awards.
type Ledger struct {
	store           KV
	tasksPerDiamond int
}

// NewLedger creates a Ledger over the given store.
func NewLedger(store KV, tasksPerDiamond int) *Ledger {
	return &Ledger{store: store, tasksPerDiamond: tasksPerDiamond}
}

// UpdateResult reports the outcome of an earnings update.
type UpdateResult struct {
	// Awarded is the number of diamonds newly credited by this call.
	Awarded int
	// Balance is the balance after the update.
	Balance int
}

// UpdateFromProgress credits any diamonds earned by crossing task-count
// thresholds since the last update. It is idempotent: repeated calls with the
// same lifetime task count award nothing further, and spending never causes
// re-crediting because earnings are tracked separately from the balance.
//
// The first call ever runs a one-time backfill: the earned total is seeded to
// the current entitlement without crediting the balance, so players migrating
// from a version without the ledger are not retroactively paid out. Callers
// must make that first call at startup, before any tasks complete, or a new
// player's first earnings are swallowed by the seed.
func (l *Ledger) UpdateFromProgress(totalTasksCompleted int) (UpdateResult, error) {
	wallet, err := l.Wallet()
	if err != nil {
		return UpdateResult{}, err
	}

	shouldHaveEarned := totalTasksCompleted / l.tasksPerDiamond

	var schema schemaRecord
	if _, err := l.store.Get(schemaKey, &schema); err != nil {
		return UpdateResult{}, fmt.Errorf("load schema version: %w", err)
	}
	if schema.Version < schemaVersion {
		wallet.TotalEarned = shouldHaveEarned
		if err := l.store.Put(walletKey, wallet); err != nil {
			return UpdateResult{}, fmt.Errorf("save wallet: %w", err)
		}
		if err := l.store.Put(schemaKey, schemaRecord{Version: schemaVersion}); err != nil {
			return UpdateResult{}, fmt.Errorf("save schema version: %w", err)
		}
		return UpdateResult{Awarded: 0, Balance: wallet.Balance}, nil
	}

	newlyEarned := shouldHaveEarned - wallet.TotalEarned
	if newlyEarned <= 0 {
		return UpdateResult{Awarded: 0, Balance: wallet.Balance}, nil
	}

	wallet.Balance += newlyEarned
	wallet.TotalEarned = shouldHaveEarned
	if err := l.store.Put(walletKey, wallet); err != nil {
		return UpdateResult{}, fmt.Errorf("save wallet: %w", err)
	}
	return UpdateResult{Awarded: newlyEarned, Balance: wallet.Balance}, nil
}

// SpendResult reports the outcome of a spend or add.
type SpendResult struct {
	OK      bool
	Reason  string
	Balance int
}

// Spend removes amount from the balance. It fails without mutating anything
// when the balance is short or the amount is not positive.
func (l *Ledger) Spend(amount int) (SpendResult, error) {
	wallet, err := l.Wallet()
	if err != nil {
		return SpendResult{}, err
	}

	if amount <= 0 {
		return SpendResult{OK: false, Reason: ReasonInvalidAmount, Balance: wallet.Balance}, nil
	}
	if amount > wallet.Balance {
		return SpendResult{OK: false, Reason: ReasonInsufficientFunds, Balance: wallet.Balance}, nil
	}

	wallet.Balance -= amount
	if err := l.store.Put(walletKey, wallet); err != nil {
		return SpendResult{}, fmt.Errorf("save wallet: %w", err)
	}
	return SpendResult{OK: true, Balance: wallet.Balance}, nil
}

// Add credits amount to the balance outside the task-volume rule (premium
// rewards). It fails when the amount is not positive. Added diamonds do not
// count toward TotalEarned, which tracks only task-volume entitlement.
func (l *Ledger) Add(amount int) (SpendResult, error) {
	wallet, err := l.Wallet()
	if err != nil {
		return SpendResult{}, err
	}

	if amount <= 0 {
		return SpendResult{OK: false, Reason: ReasonInvalidAmount, Balance: wallet.Balance}, nil
	}

	wallet.Balance += amount
	if err := l.store.Put(walletKey, wallet); err != nil {
		return SpendResult{}, fmt.Errorf("save wallet: %w", err)
	}
	return SpendResult{OK: true, Balance: wallet.Balance}, nil
}

// Wallet loads the persisted ledger state, defaulting to an empty wallet.
func (l *Ledger) Wallet() (Wallet, error) {
	var wallet Wallet
	if _, err := l.store.Get(walletKey, &wallet); err != nil {
		return Wallet{}, fmt.Errorf("load wallet: %w", err)
	}
	return wallet, nil
}
