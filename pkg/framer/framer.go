// Package framer cuts complete tag=value messages out of a byte stream.
//
// A message starts at "8=" on a field boundary and ends at the delimiter
// closing its "10=" field, or where the next message starts if it has no
// "10=" field. Bytes between messages (newlines, log prefixes) are skipped.
package framer

import (
	"bufio"
	"bytes"
)

const SOH byte = 0x01

var beginString = []byte("8=")

// ScanMessages is a bufio.SplitFunc for SOH-delimited streams.
var ScanMessages = SplitFunc(SOH)

// SplitFunc returns a bufio.SplitFunc for streams whose fields end with
// delim. At EOF an unterminated message is returned as a final token so the
// parser can reject it; noise without "8=" is dropped.
func SplitFunc(delim byte) bufio.SplitFunc {
	trailer := []byte{delim, '1', '0', '='}
	return func(data []byte, atEOF bool) (int, []byte, error) {
		start := begin(data)
		if start < 0 {
			if atEOF {
				return len(data), nil, nil
			}
			// drop whole noise fields only, so the next call starts on a boundary
			return lastBoundary(data, delim) + 1, nil, nil
		}
		msg := data[start:]
		next := nextBegin(msg, delim)
		if t := bytes.Index(msg, trailer); t >= 0 && (next < 0 || t < next) {
			rest := t + len(trailer)
			if end := bytes.IndexByte(msg[rest:], delim); end >= 0 && (next < 0 || rest+end < next) {
				n := rest + end + 1
				return start + n, msg[:n], nil
			}
		}
		if next >= 0 {
			// no checksum field before the next message
			return start + next, bytes.TrimRight(msg[:next], "\r\n"), nil
		}
		if atEOF {
			msg = bytes.TrimRight(msg, "\r\n")
			return len(data), msg, nil
		}
		return start, nil, nil
	}
}

// begin finds "8=" at the start of data or after a non-digit byte. Callers
// only ever hand it data that starts on a field or line boundary.
func begin(data []byte) int {
	for off := 0; off < len(data); {
		i := bytes.Index(data[off:], beginString)
		if i < 0 {
			return -1
		}
		i += off
		if i == 0 || data[i-1] < '0' || data[i-1] > '9' {
			return i
		}
		off = i + 1
	}
	return -1
}

// nextBegin finds the start of a following message: "8=" right after delim
// or a newline, past msg's own "8=".
func nextBegin(msg []byte, delim byte) int {
	for off := 1; off < len(msg); {
		i := bytes.Index(msg[off:], beginString)
		if i < 0 {
			return -1
		}
		i += off
		if c := msg[i-1]; c == delim || c == '\n' {
			return i
		}
		off = i + 1
	}
	return -1
}

func lastBoundary(data []byte, delim byte) int {
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] == delim || data[i] == '\n' {
			return i
		}
	}
	return -1
}
