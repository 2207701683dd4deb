package fixscan

import (
	"bytes"

	"github.com/rawbytedev/fixscan/internal/common"
)

// Validator is a post-scan check. It is called with a fully populated
// Parser and must report problems through its result, not by panicking.
type Validator interface {
	Validate(data []byte, p *Parser) bool
}

type ValidatorFunc func(data []byte, p *Parser) bool

func (f ValidatorFunc) Validate(data []byte, p *Parser) bool { return f(data, p) }

// ChecksumValidator compares tag 10 with the byte sum, mod 256, of everything
// before the "10=" field. A missing or unreadable tag 10 fails.
type ChecksumValidator struct{}

func (ChecksumValidator) Validate(data []byte, p *Parser) bool {
	off, n, ok := p.Location(CheckSumTag)
	if !ok || n == 0 || off > len(data) {
		return false
	}
	declared, err := common.ReadInt(data, off, n)
	if err != nil {
		return false
	}
	start := bytes.LastIndexByte(data[:off], SOH) + 1
	return declared == int32(Checksum(data[:start]))
}

// Checksum is the sum of data's bytes mod 256.
func Checksum(data []byte) int {
	var sum uint8
	for _, b := range data {
		sum += b
	}
	return int(sum)
}
