package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/rawbytedev/fixscan"
)

// message joins fields with SOH and appends a correct checksum.
func message(fields ...string) []byte {
	var b []byte
	for _, f := range fields {
		b = append(b, f...)
		b = append(b, fixscan.SOH)
	}
	return append(b, fmt.Sprintf("10=%03d\x01", fixscan.Checksum(b))...)
}

func heartbeat(seq int) []byte {
	return message("8=FIX.4.4", "9=5", "35=0", fmt.Sprintf("34=%d", seq))
}

func pipeText(b []byte) string {
	return strings.ReplaceAll(string(b), "\x01", "|")
}

type sliceSource struct {
	origin string
	msgs   [][]byte
	err    error
}

func (s *sliceSource) Each(ctx context.Context, fn func(string, []byte) error) error {
	for _, m := range s.msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(s.origin, m); err != nil {
			return err
		}
	}
	return s.err
}

type collected struct {
	origins []string
	msgs    []string
}

func (c *collected) add(origin string, data []byte) error {
	c.origins = append(c.origins, origin)
	c.msgs = append(c.msgs, string(data))
	return nil
}
