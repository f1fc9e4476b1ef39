// Package taskgen produces arithmetic tasks for the daily challenge engines.
// Generation is pure: given the same RNG state and config it always yields the
// same task, which keeps the engines above it deterministic in tests.
package taskgen

// Operation identifies the kind of arithmetic a task exercises.
type Operation string

const (
	OpAddition       Operation = "addition"
	OpSubtraction    Operation = "subtraction"
	OpMultiplication Operation = "multiplication"
	OpDivision       Operation = "division"
	OpSquared        Operation = "squared"
	OpMixed          Operation = "mixed"
)

// AllOperations returns every operation type in display order. A daily set
// draws 5 of these 6 without replacement.
func AllOperations() []Operation {
	return []Operation{
		OpAddition,
		OpSubtraction,
		OpMultiplication,
		OpDivision,
		OpSquared,
		OpMixed,
	}
}

// DisplayName returns a human-readable label for the operation.
func (o Operation) DisplayName() string {
	switch o {
	case OpAddition:
		return "Addition"
	case OpSubtraction:
		return "Subtraction"
	case OpMultiplication:
		return "Multiplication"
	case OpDivision:
		return "Division"
	case OpSquared:
		return "Squares"
	case OpMixed:
		return "Mixed"
	default:
		return string(o)
	}
}

// Task is a single generated arithmetic problem. Immutable once generated;
// owned by the challenge record that requested it.
type Task struct {
	// Question is the prompt displayed to the learner, e.g. "27 + 45".
	Question string `json:"question"`

	// Answer is the single correct integer answer.
	Answer int `json:"answer"`

	// Metadata records how the task was built, for balancing review.
	Metadata Metadata `json:"metadata"`
}

// Metadata describes the construction of a task.
type Metadata struct {
	// Operation is the concrete operation used. For a task generated under
	// OpMixed this is the operation actually drawn, never OpMixed itself.
	Operation Operation `json:"operation"`

	// Operands are the numbers the question was built from, in display order.
	Operands []int `json:"operands"`
}
