package taskgen

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Generator produces arithmetic tasks from balancing config and an RNG.
// Not safe for concurrent use; the engine is single-threaded by design.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// New creates a Generator. The RNG is injected so tests can fix the seed.
func New(cfg Config, rng *rand.Rand) *Generator {
	return &Generator{cfg: cfg, rng: rng}
}

// Generate builds one task for the given operation. OpMixed draws one of the
// five concrete operations uniformly.
func (g *Generator) Generate(op Operation) Task {
	if op == OpMixed {
		concrete := []Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision, OpSquared}
		op = concrete[g.rng.Intn(len(concrete))]
	}

	switch op {
	case OpAddition:
		a := g.between(g.cfg.Addition)
		b := g.between(g.cfg.Addition)
		return task(op, fmt.Sprintf("%d + %d", a, b), a+b, a, b)
	case OpSubtraction:
		a := g.between(g.cfg.Subtraction)
		b := g.cfg.Subtraction.Min + g.rng.Intn(a-g.cfg.Subtraction.Min+1)
		return task(op, fmt.Sprintf("%d - %d", a, b), a-b, a, b)
	case OpMultiplication:
		a := g.between(g.cfg.Multiplication)
		b := g.between(g.cfg.Multiplication)
		return task(op, fmt.Sprintf("%d × %d", a, b), a*b, a, b)
	case OpDivision:
		d := g.between(g.cfg.Divisor)
		q := g.between(g.cfg.Quotient)
		return task(op, fmt.Sprintf("%d ÷ %d", d*q, d), q, d*q, d)
	case OpSquared:
		n := g.between(g.cfg.Square)
		return task(op, fmt.Sprintf("%d²", n), n*n, n)
	default:
		// Unknown operations fall back to addition rather than crash; the
		// operation set is closed so this is unreachable in practice.
		a := g.between(g.cfg.Addition)
		b := g.between(g.cfg.Addition)
		return task(OpAddition, fmt.Sprintf("%d + %d", a, b), a+b, a, b)
	}
}

// GenerateSet builds n tasks for the given operation.
func (g *Generator) GenerateSet(op Operation, n int) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = g.Generate(op)
	}
	return tasks
}

// CheckAnswer reports whether the learner's raw input matches the task's
// answer. Whitespace is ignored; anything non-numeric is simply wrong.
func CheckAnswer(input string, t Task) bool {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return false
	}
	return n == t.Answer
}

func (g *Generator) between(b Bounds) int {
	return b.Min + g.rng.Intn(b.Max-b.Min+1)
}

func task(op Operation, question string, answer int, operands ...int) Task {
	return Task{
		Question: question,
		Answer:   answer,
		Metadata: Metadata{Operation: op, Operands: operands},
	}
}
