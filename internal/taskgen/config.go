package taskgen

// Bounds is an inclusive integer range for operand balancing.
type Bounds struct {
	Min int
	Max int
}

// Config holds the balancing bounds per operation. Results are always
// non-negative integers and divisions always come out exact, so every task
// has a single whole-number answer a child can type.
type Config struct {
	// Addition bounds each addend.
	Addition Bounds
	// Subtraction bounds the minuend; the subtrahend is drawn at or below it.
	Subtraction Bounds
	// Multiplication bounds each factor.
	Multiplication Bounds
	// Divisor bounds the divisor; Quotient bounds the quotient. The dividend
	// is their product.
	Divisor  Bounds
	Quotient Bounds
	// Square bounds the base of a squared task.
	Square Bounds
}

// DefaultConfig returns balancing suitable for grades 2-4 arithmetic.
func DefaultConfig() Config {
	return Config{
		Addition:       Bounds{Min: 11, Max: 99},
		Subtraction:    Bounds{Min: 11, Max: 99},
		Multiplication: Bounds{Min: 2, Max: 10},
		Divisor:        Bounds{Min: 2, Max: 10},
		Quotient:       Bounds{Min: 2, Max: 10},
		Square:         Bounds{Min: 2, Max: 15},
	}
}

// HardConfig returns the raised bounds used by the Nut challenge: three-digit
// addition and subtraction, wider tables, bigger squares.
func HardConfig() Config {
	return Config{
		Addition:       Bounds{Min: 101, Max: 999},
		Subtraction:    Bounds{Min: 101, Max: 999},
		Multiplication: Bounds{Min: 6, Max: 15},
		Divisor:        Bounds{Min: 6, Max: 15},
		Quotient:       Bounds{Min: 6, Max: 15},
		Square:         Bounds{Min: 10, Max: 25},
	}
}
