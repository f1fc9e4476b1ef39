// Package config loads engine tuning from the environment.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/abros/mathtrek/internal/taskgen"
)

// Config carries every tunable the progression engine reads. Values are fixed
// at startup; nothing re-reads the environment afterwards.
type Config struct {
	// Profile namespaces all storage keys ("" for real data, "dev" for testing
	// against a shared file without touching real progress).
	Profile string

	// TasksPerChallenge is the task count of an ordinary daily challenge.
	TasksPerChallenge int
	// TasksPerSuper is the task count of a super challenge.
	TasksPerSuper int
	// SuperChance is the daily probability that one challenge in the set is
	// generated as a super challenge.
	SuperChance float64

	// TasksPerDiamond is the lifetime-task divisor for diamond earnings.
	TasksPerDiamond int

	// RushChance is the daily spawn probability of the Rush challenge. Rolled
	// first; a Rush spawn suppresses Nut for the day.
	RushChance float64
	// NutChance is the daily spawn probability of the Nut challenge, rolled
	// only when Rush did not spawn.
	NutChance float64
	// PremiumEntryFee is the diamond cost charged on every premium start.
	PremiumEntryFee int
	// NutReward and RushReward are the diamond payouts for a successful clear.
	NutReward  int
	RushReward int
	// TasksPerPremium is the task count of Nut and Rush challenges.
	TasksPerPremium int
	// RushSeconds is the Rush countdown length.
	RushSeconds int

	// FrozenGapDays is the inactivity gap that freezes a streak.
	FrozenGapDays int
	// RestorableGapDays is the inactivity gap beyond which a streak is expired
	// but still restorable for diamonds; any longer gap is a permanent loss.
	RestorableGapDays int
	// RestoreCost is the diamond price of restoring an expired streak.
	RestoreCost int

	// Tasks holds the generator balancing bounds for ordinary challenges;
	// NutTasks holds the raised bounds used by the Nut challenge.
	Tasks    taskgen.Config
	NutTasks taskgen.Config
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults when values are missing or invalid. Counts
// below 1 and probabilities outside [0,1] count as invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		Profile:           os.Getenv("MATHTREK_PROFILE"),
		TasksPerChallenge: envIntOr("TASKS_PER_CHALLENGE", 8),
		TasksPerSuper:     envIntOr("TASKS_PER_SUPER", 10),
		SuperChance:       envFloatOr("SUPER_CHANCE", 0.15),
		TasksPerDiamond:   envIntOr("TASKS_PER_DIAMOND", 80),
		RushChance:        envFloatOr("RUSH_CHANCE", 0.10),
		NutChance:         envFloatOr("NUT_CHANCE", 0.20),
		PremiumEntryFee:   envIntOr("PREMIUM_ENTRY_FEE", 5),
		NutReward:         envIntOr("NUT_REWARD", 15),
		RushReward:        envIntOr("RUSH_REWARD", 20),
		TasksPerPremium:   envIntOr("TASKS_PER_PREMIUM", 10),
		RushSeconds:       envIntOr("RUSH_SECONDS", 120),
		FrozenGapDays:     envIntOr("STREAK_FROZEN_GAP", 2),
		RestorableGapDays: envIntOr("STREAK_RESTORABLE_GAP", 3),
		RestoreCost:       envIntOr("STREAK_RESTORE_COST", 30),
		Tasks:             loadBounds("BOUNDS", taskgen.DefaultConfig()),
		NutTasks:          loadBounds("NUT_BOUNDS", taskgen.HardConfig()),
	}
}

// loadBounds reads per-operation balancing bounds as "<min>-<max>" env values
// under the given prefix, e.g. BOUNDS_ADDITION=11-99.
func loadBounds(prefix string, def taskgen.Config) taskgen.Config {
	return taskgen.Config{
		Addition:       envBoundsOr(prefix+"_ADDITION", def.Addition),
		Subtraction:    envBoundsOr(prefix+"_SUBTRACTION", def.Subtraction),
		Multiplication: envBoundsOr(prefix+"_MULTIPLICATION", def.Multiplication),
		Divisor:        envBoundsOr(prefix+"_DIVISOR", def.Divisor),
		Quotient:       envBoundsOr(prefix+"_QUOTIENT", def.Quotient),
		Square:         envBoundsOr(prefix+"_SQUARE", def.Square),
	}
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 1 {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envBoundsOr(key string, def taskgen.Bounds) taskgen.Bounds {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if loStr, hiStr, ok := strings.Cut(v, "-"); ok {
		lo, errLo := strconv.Atoi(strings.TrimSpace(loStr))
		hi, errHi := strconv.Atoi(strings.TrimSpace(hiStr))
		if errLo == nil && errHi == nil && lo >= 1 && lo <= hi {
			return taskgen.Bounds{Min: lo, Max: hi}
		}
	}
	log.Printf("invalid value for %s=%q, using default %d-%d", key, v, def.Min, def.Max)
	return def
}
