package taskgen

import (
	"math/rand"
	"strconv"
	"testing"
)

func newTestGenerator(seed int64) *Generator {
	return New(DefaultConfig(), rand.New(rand.NewSource(seed)))
}

func TestGenerateAnswersAreConsistent(t *testing.T) {
	g := newTestGenerator(1)
	cfg := DefaultConfig()

	for i := 0; i < 500; i++ {
		for _, op := range AllOperations() {
			task := g.Generate(op)

			ops := task.Metadata.Operands
			switch task.Metadata.Operation {
			case OpAddition:
				if task.Answer != ops[0]+ops[1] {
					t.Fatalf("addition %q: answer %d", task.Question, task.Answer)
				}
			case OpSubtraction:
				if task.Answer != ops[0]-ops[1] {
					t.Fatalf("subtraction %q: answer %d", task.Question, task.Answer)
				}
				if task.Answer < 0 {
					t.Fatalf("subtraction %q: negative answer", task.Question)
				}
			case OpMultiplication:
				if task.Answer != ops[0]*ops[1] {
					t.Fatalf("multiplication %q: answer %d", task.Question, task.Answer)
				}
			case OpDivision:
				if ops[0]%ops[1] != 0 {
					t.Fatalf("division %q: not exact", task.Question)
				}
				if task.Answer != ops[0]/ops[1] {
					t.Fatalf("division %q: answer %d", task.Question, task.Answer)
				}
				if task.Answer < cfg.Quotient.Min || task.Answer > cfg.Quotient.Max {
					t.Fatalf("division %q: quotient %d out of bounds", task.Question, task.Answer)
				}
			case OpSquared:
				if task.Answer != ops[0]*ops[0] {
					t.Fatalf("square %q: answer %d", task.Question, task.Answer)
				}
			case OpMixed:
				t.Fatalf("metadata operation must be concrete, got mixed for %q", task.Question)
			}
		}
	}
}

func TestMixedDrawsConcreteOperations(t *testing.T) {
	g := newTestGenerator(2)

	seen := map[Operation]bool{}
	for i := 0; i < 200; i++ {
		task := g.Generate(OpMixed)
		seen[task.Metadata.Operation] = true
	}

	for _, op := range []Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision, OpSquared} {
		if !seen[op] {
			t.Errorf("mixed never produced %s in 200 draws", op)
		}
	}
}

func TestGenerateSetLength(t *testing.T) {
	g := newTestGenerator(3)
	tasks := g.GenerateSet(OpAddition, 8)
	if len(tasks) != 8 {
		t.Fatalf("GenerateSet produced %d tasks, want 8", len(tasks))
	}
}

func TestDeterministicForSeed(t *testing.T) {
	a := newTestGenerator(7).GenerateSet(OpMixed, 10)
	b := newTestGenerator(7).GenerateSet(OpMixed, 10)

	for i := range a {
		if a[i].Question != b[i].Question || a[i].Answer != b[i].Answer {
			t.Fatalf("task %d differs for identical seeds: %q vs %q", i, a[i].Question, b[i].Question)
		}
	}
}

func TestCheckAnswer(t *testing.T) {
	task := Task{Question: "3 + 4", Answer: 7}

	tests := []struct {
		input string
		want  bool
	}{
		{"7", true},
		{" 7 ", true},
		{"8", false},
		{"seven", false},
		{"", false},
		{"07", true},
	}
	for _, tt := range tests {
		if got := CheckAnswer(tt.input, task); got != tt.want {
			t.Errorf("CheckAnswer(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if !CheckAnswer(strconv.Itoa(task.Answer), task) {
		t.Error("canonical answer string must match")
	}
}
