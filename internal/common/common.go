// Package common holds the in-place ASCII decoders shared by the scanner and
// the typed getters. Every decoder reads a window of the caller's buffer and
// never allocates on the success path.
package common

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrMalformedNumeric    = errors.New("fixscan: malformed numeric field")
	ErrInvalidBoolean      = errors.New("fixscan: invalid boolean field")
	ErrDestinationTooSmall = errors.New("fixscan: destination buffer too small")
	ErrOutOfRange          = errors.New("fixscan: field range outside buffer")
)

// largest mantissa that can take one more decimal digit without overflow
const maxMantissa = (math.MaxUint64 - 9) / 10

// Slice returns data[offset:offset+length] after checking the range.
func Slice(data []byte, offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset > len(data) || length > len(data)-offset {
		return nil, fmt.Errorf("%w: [%d:%d] of %d bytes", ErrOutOfRange, offset, offset+length, len(data))
	}
	return data[offset : offset+length], nil
}

// ReadInt decodes an optionally '-' signed ASCII integer into an int32.
// A zero-length range is 0. Overflow wraps like native int32 arithmetic.
func ReadInt(data []byte, offset, length int) (int32, error) {
	if length <= 0 {
		return 0, nil
	}
	b, err := Slice(data, offset, length)
	if err != nil {
		return 0, err
	}
	i := 0
	neg := b[0] == '-'
	if neg {
		i++
	}
	if i == len(b) {
		return 0, malformed(b, offset, i)
	}
	var n int32
	for ; i < len(b); i++ {
		d := b[i] - '0'
		if d > 9 {
			return 0, malformed(b, offset, i)
		}
		n = n*10 + int32(d)
	}
	if neg {
		n = -n
	}
	return n, nil
}

// ReadLong is ReadInt with a 64-bit accumulator that also accepts a leading '+'.
func ReadLong(data []byte, offset, length int) (int64, error) {
	if length <= 0 {
		return 0, nil
	}
	b, err := Slice(data, offset, length)
	if err != nil {
		return 0, err
	}
	i := 0
	neg := false
	switch b[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	if i == len(b) {
		return 0, malformed(b, offset, i)
	}
	var n int64
	for ; i < len(b); i++ {
		d := b[i] - '0'
		if d > 9 {
			return 0, malformed(b, offset, i)
		}
		n = (n << 3) + (n << 1) + int64(d)
	}
	if neg {
		n = -n
	}
	return n, nil
}

// ReadDouble decodes a fixed-point decimal such as "-148.25". Digits past
// float64 precision in the fraction are dropped; every byte must still be a
// digit or the single '.'.
func ReadDouble(data []byte, offset, length int) (float64, error) {
	if length <= 0 {
		return 0, nil
	}
	b, err := Slice(data, offset, length)
	if err != nil {
		return 0, err
	}
	i := 0
	neg := b[0] == '-'
	if neg {
		i++
	}
	var (
		mant   uint64
		digits int
		frac   int
		scale  int
		dot    bool
	)
	for ; i < len(b); i++ {
		c := b[i]
		if c == '.' {
			if dot {
				return 0, malformed(b, offset, i)
			}
			dot = true
			continue
		}
		d := c - '0'
		if d > 9 {
			return 0, malformed(b, offset, i)
		}
		digits++
		switch {
		case mant <= maxMantissa:
			mant = mant*10 + uint64(d)
			if dot {
				frac++
			}
		case !dot:
			scale++
		}
	}
	if digits == 0 {
		return 0, malformed(b, offset, len(b))
	}
	v := float64(mant)
	if scale > 0 {
		v *= math.Pow10(scale)
	}
	if frac > 0 {
		v /= math.Pow10(frac)
	}
	if neg {
		v = -v
	}
	return v, nil
}

// ReadBool maps Y/y/1 to true and N/n/0 to false. The range must be one byte.
func ReadBool(data []byte, offset, length int) (bool, error) {
	if length != 1 {
		return false, fmt.Errorf("%w: length %d", ErrInvalidBoolean, length)
	}
	b, err := Slice(data, offset, length)
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 'Y', 'y', '1':
		return true, nil
	case 'N', 'n', '0':
		return false, nil
	}
	return false, fmt.Errorf("%w: %q at offset %d", ErrInvalidBoolean, b[0], offset)
}

// ReadBytes copies length bytes from src[offset:] into dst and returns the
// number copied. dst must hold length bytes. offset must lie inside src; a
// range running past the end of src is clamped.
func ReadBytes(src []byte, offset, length int, dst []byte) (int, error) {
	if length > len(dst) {
		return 0, fmt.Errorf("%w: need %d, have %d", ErrDestinationTooSmall, length, len(dst))
	}
	if length <= 0 {
		return 0, nil
	}
	if offset < 0 || offset >= len(src) {
		return 0, fmt.Errorf("%w: offset %d of %d bytes", ErrOutOfRange, offset, len(src))
	}
	end := offset + length
	if end > len(src) {
		end = len(src)
	}
	return copy(dst, src[offset:end]), nil
}

func malformed(b []byte, offset, i int) error {
	if i < len(b) {
		return fmt.Errorf("%w: byte %q at offset %d", ErrMalformedNumeric, b[i], offset+i)
	}
	return fmt.Errorf("%w: no digits at offset %d", ErrMalformedNumeric, offset)
}
