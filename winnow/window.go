package winnow

import (
	"cmp"
	"fmt"
	"strings"
)

// Extremum selects which end of a window the selector keeps.
type Extremum int

const (
	// Minimum keeps the smallest value of each window (standard winnowing).
	Minimum Extremum = iota
	// Maximum keeps the largest value of each window.
	Maximum
)

func (e Extremum) String() string {
	switch e {
	case Minimum:
		return "min"
	case Maximum:
		return "max"
	default:
		return fmt.Sprintf("Extremum(%d)", int(e))
	}
}

// ParseExtremum accepts "min"/"minimum" and "max"/"maximum", case-insensitively.
func ParseExtremum(s string) (Extremum, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "minimum":
		return Minimum, nil
	case "max", "maximum":
		return Maximum, nil
	default:
		return 0, fmt.Errorf("unknown selection %q: %w", s, ErrInvalidInput)
	}
}

func (e Extremum) valid() bool { return e == Minimum || e == Maximum }

// SlidingExtremeIndices returns, for every window of length window fully
// contained in values, the index of that window's extremum. Ties go to the
// rightmost index. The result has max(0, len(values)-window+1) entries.
//
// Runs in O(n): each index enters and leaves the deque at most once.
func SlidingExtremeIndices[T cmp.Ordered](values []T, window int, mode Extremum) []int {
	if window <= 0 || len(values) < window {
		return []int{}
	}

	// Equal values evict too, so ties resolve to the rightmost index.
	evicts := func(back, incoming T) bool { return back >= incoming }
	if mode == Maximum {
		evicts = func(back, incoming T) bool { return back <= incoming }
	}

	out := make([]int, 0, len(values)-window+1)
	dq := newDeque(window + 1)
	for i, v := range values {
		for dq.len() > 0 && evicts(values[dq.back()], v) {
			dq.popBack()
		}
		dq.pushBack(i)

		if i-dq.front() >= window {
			dq.popFront()
		}
		if i+1 >= window {
			out = append(out, dq.front())
		}
	}
	return out
}

// deque is a fixed-capacity ring buffer of indices.
type deque struct {
	buf  []int
	head int
	n    int
}

func newDeque(capacity int) *deque {
	return &deque{buf: make([]int, capacity)}
}

func (d *deque) len() int { return d.n }

func (d *deque) front() int { return d.buf[d.head] }

func (d *deque) back() int { return d.buf[(d.head+d.n-1)%len(d.buf)] }

func (d *deque) pushBack(v int) {
	d.buf[(d.head+d.n)%len(d.buf)] = v
	d.n++
}

func (d *deque) popBack() { d.n-- }

func (d *deque) popFront() {
	d.head = (d.head + 1) % len(d.buf)
	d.n--
}
