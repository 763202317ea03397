package sunspec_modbus

import (
	"errors"
	"fmt"
)

// well known model ids
const (
	SUNSPEC_WK_COMMON        = 1
	SUNSPEC_WK_INVERTERS_MIN = 101
	SUNSPEC_WK_INVERTERS_MAX = 103
	SUNSPEC_WK_STORAGE       = 124
	SUNSPEC_WK_MPPT          = 160
	SUNSPEC_WK_METERS_MIN    = 201
	SUNSPEC_WK_METERS_MAX    = 204
	SUNSPEC_WK_END           = 0xFFFF
)

const (
	// marker stored in the 2 words at the base address
	SUNSPEC_MARKER = "SunS"
	// words taken by every model header (id, length)
	SUNSPEC_HEADER_LENGTH = 2
	// the common model is always this long, whatever the device reports
	SUNSPEC_COMMON_MODEL_LENGTH = 66
	// largest register count a single Modbus read may request
	SUNSPEC_DEFAULT_MAX_READ_SPAN = 125
	SUNSPEC_DEFAULT_MAX_MODELS    = 256
)

// candidate base addresses, in probe order
var SunSpecBaseAddresses = []uint16{40000, 50000, 0}

var (
	ErrModelsNotFound = errors.New("sunspec: no SunSpec marker found at any base address")
	ErrChainTooLong   = errors.New("sunspec: model chain does not terminate")
	ErrMissingData    = errors.New("sunspec: register data not available")
	ErrOutOfRange     = errors.New("sunspec: value does not fit the requested type")
)

// MissingDataError is returned when a decode touches registers that were never
// merged into the snapshot.
type MissingDataError struct {
	Address uint16
	Count   uint16
	Missing uint16
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("sunspec: register %d not read (requested %d words at %d)", e.Missing, e.Count, e.Address)
}

func (e *MissingDataError) Unwrap() error {
	return ErrMissingData
}
