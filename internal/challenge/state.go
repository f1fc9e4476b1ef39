package challenge

// State is a challenge's position in its lifecycle. Super challenges run a
// mirrored state set so a record is never half ordinary, half super.
type State string

const (
	StateLocked     State = "locked"
	StateAvailable  State = "available"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"

	StateSuperLocked     State = "super_locked"
	StateSuperAvailable  State = "super_available"
	StateSuperInProgress State = "super_in_progress"
	StateSuperCompleted  State = "super_completed"
	StateSuperFailed     State = "super_failed"
)

// lockedState returns the locked state for the given variant.
func lockedState(isSuper bool) State {
	if isSuper {
		return StateSuperLocked
	}
	return StateLocked
}

func availableState(isSuper bool) State {
	if isSuper {
		return StateSuperAvailable
	}
	return StateAvailable
}

func inProgressState(isSuper bool) State {
	if isSuper {
		return StateSuperInProgress
	}
	return StateInProgress
}

func completedState(isSuper bool) State {
	if isSuper {
		return StateSuperCompleted
	}
	return StateCompleted
}

func failedState(isSuper bool) State {
	if isSuper {
		return StateSuperFailed
	}
	return StateFailed
}

// IsLocked reports whether s is a locked state of either variant.
func (s State) IsLocked() bool {
	return s == StateLocked || s == StateSuperLocked
}

// IsAvailable reports whether s is an available state of either variant.
func (s State) IsAvailable() bool {
	return s == StateAvailable || s == StateSuperAvailable
}

// IsInProgress reports whether s is an in-progress state of either variant.
func (s State) IsInProgress() bool {
	return s == StateInProgress || s == StateSuperInProgress
}

// IsCompleted reports whether s is a completed state of either variant.
func (s State) IsCompleted() bool {
	return s == StateCompleted || s == StateSuperCompleted
}

// IsFailed reports whether s is a failed state of either variant.
func (s State) IsFailed() bool {
	return s == StateFailed || s == StateSuperFailed
}

// SuperResult records how a super challenge clear went. Reward logic is gated
// on this flag, not on the completed state alone: a super challenge can be
// completed and still have failed its zero-error requirement.
type SuperResult string

const (
	SuperNone    SuperResult = ""
	SuperSuccess SuperResult = "success"
	SuperFailed  SuperResult = "failed"
)
