package plot

import (
	"cmp"
	"fmt"
)

// Interval is a range with independently open or closed bounds. The zero
// value is the empty interval, used by predicates that have no range form.
//
// NewInterval does not normalize its bounds: complement predicates export
// intervals whose low bound exceeds the high bound, see IsSwapped.
type Interval[T cmp.Ordered] struct {
	low, high         T
	lowOpen, highOpen bool
	nonEmpty          bool
}

// NewInterval returns the interval between low and high.
func NewInterval[T cmp.Ordered](low, high T, lowOpen, highOpen bool) Interval[T] {
	return Interval[T]{low: low, high: high, lowOpen: lowOpen, highOpen: highOpen, nonEmpty: true}
}

func (i Interval[T]) Low() T          { return i.low }
func (i Interval[T]) High() T         { return i.high }
func (i Interval[T]) LowOpen() bool   { return i.lowOpen }
func (i Interval[T]) HighOpen() bool  { return i.highOpen }
func (i Interval[T]) IsEmpty() bool   { return !i.nonEmpty }
func (i Interval[T]) IsSwapped() bool { return i.nonEmpty && i.low > i.high }

// Contains reports whether x lies within the interval. A swapped interval
// contains nothing.
func (i Interval[T]) Contains(x T) bool {
	if !i.nonEmpty {
		return false
	}
	if x < i.low || (i.lowOpen && x == i.low) {
		return false
	}
	if x > i.high || (i.highOpen && x == i.high) {
		return false
	}
	return true
}

// Intersect returns the overlap of i and o, or the empty interval.
func (i Interval[T]) Intersect(o Interval[T]) Interval[T] {
	if i.IsEmpty() || o.IsEmpty() || i.IsSwapped() || o.IsSwapped() {
		return Interval[T]{}
	}
	r := i
	switch c := cmp.Compare(o.low, r.low); {
	case c > 0:
		r.low, r.lowOpen = o.low, o.lowOpen
	case c == 0:
		r.lowOpen = r.lowOpen || o.lowOpen
	}
	switch c := cmp.Compare(o.high, r.high); {
	case c < 0:
		r.high, r.highOpen = o.high, o.highOpen
	case c == 0:
		r.highOpen = r.highOpen || o.highOpen
	}
	if r.low > r.high || (r.low == r.high && (r.lowOpen || r.highOpen)) {
		return Interval[T]{}
	}
	return r
}

func (i Interval[T]) String() string {
	if i.IsEmpty() {
		return "()"
	}
	l, r := "[", "]"
	if i.lowOpen {
		l = "("
	}
	if i.highOpen {
		r = ")"
	}
	return fmt.Sprintf("%s%v, %v%s", l, i.low, i.high, r)
}
