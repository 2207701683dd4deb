package fixscan

import (
	"github.com/rawbytedev/fixscan/pkg/fieldmap"
	"github.com/sirupsen/logrus"
)

const (
	// SOH separates fields on the wire.
	SOH byte = 0x01
	// Equals separates a tag from its value.
	Equals byte = '='
	// CheckSumTag carries sum(bytes before its field) mod 256.
	CheckSumTag = 10
	// DefaultCapacity is the number of distinct tags a Parser holds by default.
	DefaultCapacity = fieldmap.DefaultCapacity
)

type Options struct {
	// Capacity is the maximum number of distinct tags per message.
	// Zero means DefaultCapacity.
	Capacity int
	// SkipChecksum leaves ChecksumValidator out of the initial chain.
	SkipChecksum bool
	// StrictTermination rejects a final field that is not followed by SOH.
	StrictTermination bool
	// Validators run after the checksum, in order.
	Validators []Validator
	// Logger receives rejected and panicking validations. Nil disables logging.
	Logger logrus.FieldLogger
}
