// Package fixscan decodes tag=value<SOH> messages without copying them.
//
// Parse makes one pass over the caller's buffer and records the offset and
// length of every tag's value. The typed getters decode those ranges in
// place, on demand. The buffer must stay unchanged between Parse and the
// getters, and must be passed again to each getter.
//
// A Parser is reused across messages and is not safe for concurrent use;
// give each goroutine its own.
package fixscan

import (
	"fmt"

	"github.com/rawbytedev/fixscan/internal/common"
	"github.com/rawbytedev/fixscan/pkg/fieldmap"
	"github.com/sirupsen/logrus"
)

type Parser struct {
	fields     *fieldmap.Map
	validators []Validator
	strict     bool
	log        logrus.FieldLogger
}

// NewParser builds a Parser whose chain starts with ChecksumValidator unless
// opts.SkipChecksum is set.
func NewParser(opts Options) *Parser {
	p := &Parser{
		fields: fieldmap.New(opts.Capacity),
		strict: opts.StrictTermination,
		log:    opts.Logger,
	}
	if !opts.SkipChecksum {
		p.validators = append(p.validators, ChecksumValidator{})
	}
	p.validators = append(p.validators, opts.Validators...)
	return p
}

// Register appends v to the validation chain.
func (p *Parser) Register(v Validator) {
	p.validators = append(p.validators, v)
}

// Parse replaces the previous message's locations with those of data and
// runs every validator. The result is the AND of all validators; a scan
// failure is returned as an error and leaves the Parser empty.
func (p *Parser) Parse(data []byte) (bool, error) {
	p.fields.Clear()
	if err := Scan(data, p.fields, p.strict); err != nil {
		p.fields.Clear()
		return false, err
	}
	ok := true
	for i, v := range p.validators {
		// no short-circuit: every validator sees every message
		if !p.validate(i, v, data) {
			ok = false
		}
	}
	return ok, nil
}

func (p *Parser) validate(i int, v Validator, data []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			if p.log != nil {
				p.log.WithFields(logrus.Fields{
					"validator": fmt.Sprintf("%T", v),
					"position":  i,
				}).Warnf("validator panicked: %v", r)
			}
		}
	}()
	ok = v.Validate(data, p)
	if !ok && p.log != nil {
		p.log.WithFields(logrus.Fields{
			"validator": fmt.Sprintf("%T", v),
			"position":  i,
			"fields":    p.fields.Len(),
		}).Debug("message rejected")
	}
	return ok
}

func (p *Parser) FieldExists(tag int) bool { return p.fields.Contains(tag) }

func (p *Parser) FieldDoesNotExist(tag int) bool { return !p.fields.Contains(tag) }

// Len is the number of distinct tags in the last parsed message.
func (p *Parser) Len() int { return p.fields.Len() }

// Cap is the maximum number of distinct tags per message.
func (p *Parser) Cap() int { return p.fields.Cap() }

// Range visits the fields of the last message in the order first seen.
func (p *Parser) Range(fn func(tag, offset, length int) bool) { p.fields.Range(fn) }

// Location reports where tag's value lives in the parsed buffer.
func (p *Parser) Location(tag int) (offset, length int, ok bool) {
	return p.fields.Lookup(tag)
}

func (p *Parser) location(tag int) (int, int, error) {
	off, n, ok := p.fields.Lookup(tag)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %d", ErrTagNotFound, tag)
	}
	return off, n, nil
}

func (p *Parser) GetOffset(tag int) (int, error) {
	off, _, err := p.location(tag)
	return off, err
}

func (p *Parser) GetLength(tag int) (int, error) {
	_, n, err := p.location(tag)
	return n, err
}

func (p *Parser) GetInt(data []byte, tag int) (int32, error) {
	off, n, err := p.location(tag)
	if err != nil {
		return 0, err
	}
	return common.ReadInt(data, off, n)
}

func (p *Parser) GetLong(data []byte, tag int) (int64, error) {
	off, n, err := p.location(tag)
	if err != nil {
		return 0, err
	}
	return common.ReadLong(data, off, n)
}

func (p *Parser) GetDouble(data []byte, tag int) (float64, error) {
	off, n, err := p.location(tag)
	if err != nil {
		return 0, err
	}
	return common.ReadDouble(data, off, n)
}

func (p *Parser) GetBool(data []byte, tag int) (bool, error) {
	off, n, err := p.location(tag)
	if err != nil {
		return false, err
	}
	return common.ReadBool(data, off, n)
}

// GetBytes copies tag's value into dst and returns the number of bytes copied.
func (p *Parser) GetBytes(data []byte, tag int, dst []byte) (int, error) {
	off, n, err := p.location(tag)
	if err != nil {
		return 0, err
	}
	return common.ReadBytes(data, off, n, dst)
}

// Value returns tag's value as a sub-slice of data. It aliases data.
func (p *Parser) Value(data []byte, tag int) ([]byte, error) {
	off, n, err := p.location(tag)
	if err != nil {
		return nil, err
	}
	return common.Slice(data, off, n)
}

func (p *Parser) GetString(data []byte, tag int) (string, error) {
	v, err := p.Value(data, tag)
	if err != nil {
		return "", err
	}
	return string(v), nil
}
