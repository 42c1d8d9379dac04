package wire

import "fmt"

// Bounds constrains the byte length of a bytes or string value. The zero
// value accepts any length.
type Bounds struct {
	min     int
	max     int
	limited bool
}

// Unbounded accepts values of any length.
var Unbounded = Bounds{}

// Fixed requires exactly size bytes.
func Fixed(size int) Bounds {
	return Bounds{min: size, max: size, limited: true}
}

// Range requires between min and max bytes, inclusive.
func Range(min, max int) Bounds {
	return Bounds{min: min, max: max, limited: true}
}

// AtLeast requires at least min bytes.
func AtLeast(min int) Bounds {
	return Bounds{min: min, max: -1, limited: true}
}

// AtMost requires at most max bytes.
func AtMost(max int) Bounds {
	return Bounds{max: max, limited: true}
}

// Min returns the lower bound.
func (b Bounds) Min() int { return b.min }

// Max returns the upper bound and whether there is one.
func (b Bounds) Max() (int, bool) { return b.max, b.limited && b.max >= 0 }

// IsFixed reports whether the bounds require an exact size.
func (b Bounds) IsFixed() bool { return b.limited && b.min == b.max }

// Contains reports whether a value of n bytes satisfies the bounds.
func (b Bounds) Contains(n int) bool {
	if !b.limited {
		return true
	}
	if n < b.min {
		return false
	}
	return b.max < 0 || n <= b.max
}

func (b Bounds) String() string {
	switch {
	case !b.limited:
		return "any size"
	case b.IsFixed():
		return fmt.Sprintf("exactly %d bytes", b.min)
	case b.max < 0:
		return fmt.Sprintf("at least %d bytes", b.min)
	default:
		return fmt.Sprintf("%d..%d bytes", b.min, b.max)
	}
}

// check returns a SizeOutOfBounds error for a value of n bytes that does not
// satisfy the bounds.
func (b Bounds) check(tag uint64, n int) error {
	if b.Contains(n) {
		return nil
	}
	return newError(KindSizeOutOfBounds, tag, ElementValue, fmt.Sprintf("got %d bytes, want %s", n, b))
}
