package dynamo

import (
	"math"
	"sync/atomic"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"normal", State{1.0, 2.0}, true},
		{"with NaN", State{1.0, math.NaN()}, false},
		{"with +Inf", State{math.Inf(1)}, false},
		{"with -Inf", State{1.0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestState_Arithmetic(t *testing.T) {
	a := State{1, 2}
	b := State{4, 6}

	if sum := a.Add(b); sum[0] != 5 || sum[1] != 8 {
		t.Errorf("Add failed: got %v", sum)
	}
	if diff := b.Sub(a); diff[0] != 3 || diff[1] != 4 {
		t.Errorf("Sub failed: got %v", diff)
	}
	if scaled := a.Scale(2); scaled[0] != 2 || scaled[1] != 4 {
		t.Errorf("Scale failed: got %v", scaled)
	}
	if n := (State{3, 4}).Norm(); math.Abs(n-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", n)
	}

	if !a.Equal(State{1, 2}) || a.Equal(b) || a.Equal(State{1}) {
		t.Error("Equal failed")
	}

	c := a.Clone()
	c[0] = 99
	if a[0] == 99 {
		t.Error("Clone shares storage")
	}
}

func TestParallelFor_CoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		ParallelFor(n, 8, func(start, end int) {
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}

func TestSimulationError_Unwrap(t *testing.T) {
	err := &SimulationError{Step: 3, Time: 0.03, Wrapped: ErrFrozen}
	if err.Error() != ErrFrozen.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
	if err.Unwrap() != ErrFrozen {
		t.Error("Unwrap did not return wrapped error")
	}
}
