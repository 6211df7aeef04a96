package cronexpr

import "math/bits"

// nextSetBit returns the lowest set bit of v in [from, high], or -1.
func nextSetBit(v uint64, from, high int) int {
	if from < 0 {
		from = 0
	}
	if from > high || from > 63 {
		return -1
	}
	rest := v >> uint(from)
	if rest == 0 {
		return -1
	}
	i := from + bits.TrailingZeros64(rest)
	if i > high {
		return -1
	}
	return i
}

// rangeMask has bits low..high set.
func rangeMask(low, high int) uint64 {
	return (^uint64(0) >> uint(63-high)) &^ (uint64(1)<<uint(low) - 1)
}

func hasBit(v uint64, i int) bool {
	return i >= 0 && i < 64 && v&(uint64(1)<<uint(i)) != 0
}

// rotateLeft rotates the window low..high of v as a ring, moving bit low+r to
// low+(r+n)%width. Bits outside the window are dropped.
func rotateLeft(v uint64, n, low, high int) uint64 {
	width := uint(high - low + 1)
	mask := uint64(1)<<width - 1
	w := (v >> uint(low)) & mask
	if k := uint(n) % width; k != 0 {
		w = (w<<k | w>>(width-k)) & mask
	}
	return w << uint(low)
}

// spread sets every step-th value of the inclusive range num1..num2.
//
// A range with num1 > num2 wraps: it runs num1..high and then low..num2. The
// values are laid out from low in a window of the combined width and the window
// is rotated back into place. ringHigh is the top of the ring; day-of-week
// passes 6 so the duplicated Sunday (7) is not counted twice.
func spread(num1, num2, step, low, ringHigh int) uint64 {
	var v uint64
	if num1 <= num2 {
		for i := num1; i <= num2; i += step {
			v |= uint64(1) << uint(i)
		}
		return v
	}
	span := (ringHigh - num1 + 1) + (num2 - low + 1)
	for r := 0; r < span; r += step {
		v |= uint64(1) << uint(low+r)
	}
	return rotateLeft(v, num1-low, low, ringHigh)
}
