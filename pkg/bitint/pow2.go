// SPDX-License-Identifier: MIT

/*
Package bitint sizes transforms. Radix-2 FFT lengths are the fast path, so
window sizes are often padded up to the next power of two:

	pad := bitint.PadToPowerOfTwo(3000) // 1096, for a 4096-point transform

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two map to themselves: 8-1 = 0b0111 has length 3 and 1<<3 = 8,
while 9-1 = 0b1000 has length 4 and 1<<4 = 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size, and 1 for
// size <= 0.
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// PadToPowerOfTwo returns how many samples bring size up to the next power
// of two.
func PadToPowerOfTwo(size int) int {
	if size <= 0 {
		return 0
	}
	return NextPowerOfTwo(size) - size
}

// Log2 returns log2(n) for a power of two n, and -1 otherwise.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
