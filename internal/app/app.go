// Package app assembles the progression engine from its parts. All wiring is
// explicit here so each package stays constructible in isolation.
package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/abros/mathtrek/internal/challenge"
	"github.com/abros/mathtrek/internal/config"
	"github.com/abros/mathtrek/internal/dateutil"
	"github.com/abros/mathtrek/internal/diamonds"
	"github.com/abros/mathtrek/internal/premium"
	"github.com/abros/mathtrek/internal/progress"
	"github.com/abros/mathtrek/internal/storage"
	"github.com/abros/mathtrek/internal/streak"
	"github.com/abros/mathtrek/internal/taskgen"
)

// App owns the engine wiring and the database handle.
type App struct {
	Config config.Config
	Store  *storage.Store

	Progress   *progress.Counter
	Diamonds   *diamonds.Ledger
	Streaks    *streak.Tracker
	Challenges *challenge.Engine
	Premium    *premium.Engine

	now func() time.Time
}

// Options overrides parts of the default wiring. Zero values keep defaults.
type Options struct {
	// DBPath overrides the resolved database location.
	DBPath string
	// Now replaces the wall clock, mainly for tests.
	Now func() time.Time
	// Rand replaces the seeded randomness source, mainly for tests.
	Rand *rand.Rand
}

// New loads configuration, opens storage and wires every engine. The caller
// must Close the returned App.
func New(opts Options) (*App, error) {
	cfg := config.Load()

	dbPath := opts.DBPath
	if dbPath == "" {
		var err error
		dbPath, err = storage.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolving database path: %w", err)
		}
	}
	if err := storage.EnsureDir(dbPath); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	store, err := storage.Open(dbPath, cfg.Profile)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(now().UnixNano()))
	}

	gen := taskgen.New(cfg.Tasks, rng)
	hardGen := taskgen.New(cfg.NutTasks, rng)

	counter := progress.NewCounter(store)
	ledger := diamonds.NewLedger(store, cfg.TasksPerDiamond)

	// Settle the ledger against lifetime progress before any play. On a new
	// install this runs the first-run migration while the task count is still
	// zero, so the earned baseline seeds at zero rather than at whatever the
	// first completion brings.
	rec, err := counter.Snapshot(dateutil.Today(now()))
	if err != nil {
		store.Close()
		return nil, err
	}
	if _, err := ledger.UpdateFromProgress(rec.TotalTasksCompleted); err != nil {
		store.Close()
		return nil, err
	}
	streaks := streak.NewTracker(store, ledger, streak.Policy{
		FrozenGapDays:     cfg.FrozenGapDays,
		RestorableGapDays: cfg.RestorableGapDays,
		RestoreCost:       cfg.RestoreCost,
	})

	challenges := challenge.NewEngine(store, gen, rng, challenge.Config{
		TasksPerChallenge: cfg.TasksPerChallenge,
		TasksPerSuper:     cfg.TasksPerSuper,
		SuperChance:       cfg.SuperChance,
	}, streaks, ledger, counter, now)

	premiums := premium.NewEngine(store, gen, hardGen, rng, premium.Config{
		RushChance:        cfg.RushChance,
		NutChance:         cfg.NutChance,
		EntryFee:          cfg.PremiumEntryFee,
		NutReward:         cfg.NutReward,
		RushReward:        cfg.RushReward,
		TasksPerChallenge: cfg.TasksPerPremium,
		RushSeconds:       cfg.RushSeconds,
	}, ledger, now)

	return &App{
		Config:     cfg,
		Store:      store,
		Progress:   counter,
		Diamonds:   ledger,
		Streaks:    streaks,
		Challenges: challenges,
		Premium:    premiums,
		now:        now,
	}, nil
}

// Today returns the current calendar day as the engines see it.
func (a *App) Today() dateutil.Day {
	return dateutil.Today(a.now())
}

// Close releases the database handle.
func (a *App) Close() error {
	return a.Store.Close()
}
