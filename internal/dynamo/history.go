package dynamo

import "math"

// Sample is one past point of a delay trajectory.
type Sample struct {
	T float64
	X float64
}

// History is a read-only view of past samples, oldest first. The engine
// only reads it; the caller owns appending and pruning.
type History interface {
	Len() int
	At(i int) Sample
}

// Lag converts a delay into a whole number of steps behind the current
// point.
func Lag(tau, dt float64) int {
	if tau <= 0 || dt <= 0 {
		return 0
	}
	return int(math.Round(tau / dt))
}

// Lagged returns X from the sample Lag(tau, dt) steps behind the newest
// one, clamped to the oldest available sample. An empty history yields
// fallback.
func Lagged(h History, tau, dt, fallback float64) float64 {
	if h == nil || h.Len() == 0 {
		return fallback
	}
	i := h.Len() - 1 - Lag(tau, dt)
	if i < 0 {
		i = 0
	}
	return h.At(i).X
}

// WindowFor is the number of samples a buffer must keep for Lagged to
// reach back tau.
func WindowFor(tau, dt float64) int {
	return Lag(tau, dt) + 1
}

// HistoryBuffer is a fixed-capacity ring of samples. Appending to a full
// buffer drops the oldest sample.
type HistoryBuffer struct {
	buf  []Sample
	head int
	n    int
}

// NewHistoryBuffer allocates a buffer holding at most capacity samples.
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &HistoryBuffer{buf: make([]Sample, capacity)}
}

func (h *HistoryBuffer) Append(t, x float64) {
	idx := (h.head + h.n) % len(h.buf)
	h.buf[idx] = Sample{T: t, X: x}
	if h.n < len(h.buf) {
		h.n++
	} else {
		h.head = (h.head + 1) % len(h.buf)
	}
}

func (h *HistoryBuffer) Len() int {
	return h.n
}

func (h *HistoryBuffer) Cap() int {
	return len(h.buf)
}

// At returns the i-th oldest retained sample.
func (h *HistoryBuffer) At(i int) Sample {
	if i < 0 || i >= h.n {
		panic("dynamo: history index out of range")
	}
	return h.buf[(h.head+i)%len(h.buf)]
}

// Latest returns the newest sample.
func (h *HistoryBuffer) Latest() (Sample, bool) {
	if h.n == 0 {
		return Sample{}, false
	}
	return h.At(h.n - 1), true
}

func (h *HistoryBuffer) Reset() {
	h.head = 0
	h.n = 0
}
