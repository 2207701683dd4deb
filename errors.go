package fixscan

import (
	"errors"

	"github.com/rawbytedev/fixscan/internal/common"
	"github.com/rawbytedev/fixscan/pkg/fieldmap"
)

var (
	ErrTagNotFound       = errors.New("fixscan: tag not found in message")
	ErrMalformedTag      = errors.New("fixscan: malformed tag")
	ErrUnterminatedField = errors.New("fixscan: field not terminated by delimiter")
)

// Re-exported so callers only import this package.
var (
	ErrCapacityExceeded    = fieldmap.ErrCapacityExceeded
	ErrMalformedNumeric    = common.ErrMalformedNumeric
	ErrInvalidBoolean      = common.ErrInvalidBoolean
	ErrDestinationTooSmall = common.ErrDestinationTooSmall
	ErrOutOfRange          = common.ErrOutOfRange
)
