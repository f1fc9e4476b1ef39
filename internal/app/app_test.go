package app

import (
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abros/mathtrek/internal/progress"
	"github.com/abros/mathtrek/internal/storage"
)

func testOptions(t *testing.T, dbPath string) Options {
	t.Helper()
	return Options{
		DBPath: dbPath,
		Now: func() time.Time {
			return time.Date(2026, 8, 24, 10, 0, 0, 0, time.Local)
		},
		Rand: rand.New(rand.NewSource(1)),
	}
}

func TestFreshInstallEarnsFirstDiamond(t *testing.T) {
	t.Setenv("MATHTREK_PROFILE", "")
	t.Setenv("TASKS_PER_DIAMOND", "5")

	a, err := New(testOptions(t, filepath.Join(t.TempDir(), "trek.db")))
	require.NoError(t, err)
	defer a.Close()

	wallet, err := a.Diamonds.Wallet()
	require.NoError(t, err)
	assert.Zero(t, wallet.TotalEarned, "a new install must seed the earned baseline at zero")

	// The first tasks a new player ever completes must pay out.
	res, err := a.Diamonds.UpdateFromProgress(8)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Awarded)
}

func TestExistingProgressIsNotRetroactivelyPaid(t *testing.T) {
	t.Setenv("MATHTREK_PROFILE", "")
	t.Setenv("TASKS_PER_DIAMOND", "5")
	dbPath := filepath.Join(t.TempDir(), "trek.db")

	// A player from before the ledger existed: progress on disk, no schema.
	st, err := storage.Open(dbPath, "")
	require.NoError(t, err)
	require.NoError(t, st.Put("progress", progress.Record{TotalTasksCompleted: 40}))
	require.NoError(t, st.Close())

	a, err := New(testOptions(t, dbPath))
	require.NoError(t, err)
	defer a.Close()

	wallet, err := a.Diamonds.Wallet()
	require.NoError(t, err)
	assert.Equal(t, 8, wallet.TotalEarned)
	assert.Zero(t, wallet.Balance, "pre-ledger progress must not pay out")

	// Crossing the next threshold after migration pays normally.
	res, err := a.Diamonds.UpdateFromProgress(45)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Awarded)
}
