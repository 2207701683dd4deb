package fixscan

import (
	"bytes"
	"fmt"

	"github.com/rawbytedev/fixscan/internal/common"
	"github.com/rawbytedev/fixscan/pkg/fieldmap"
)

// Scan walks data once and records where each tag's value lives in idx.
// idx is not cleared first. End of data terminates the last field unless
// strict is set, in which case a missing final SOH is ErrUnterminatedField.
func Scan(data []byte, idx *fieldmap.Map, strict bool) error {
	for i := 0; i < len(data); {
		eq := bytes.IndexByte(data[i:], Equals)
		if eq < 0 {
			return fmt.Errorf("%w: no '=' after offset %d", ErrMalformedTag, i)
		}
		if eq == 0 {
			return fmt.Errorf("%w: empty tag at offset %d", ErrMalformedTag, i)
		}
		tag, err := common.ReadInt(data, i, eq)
		if err != nil {
			return fmt.Errorf("%w at offset %d: %w", ErrMalformedTag, i, err)
		}
		start := i + eq + 1
		n := bytes.IndexByte(data[start:], SOH)
		if n < 0 {
			if strict {
				return fmt.Errorf("%w: tag %d at offset %d", ErrUnterminatedField, tag, i)
			}
			n = len(data) - start
		}
		if err := idx.Put(int(tag), start, n); err != nil {
			return fmt.Errorf("tag %d at offset %d: %w", tag, i, err)
		}
		i = start + n + 1
	}
	return nil
}
