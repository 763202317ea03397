package sunspec_modbus

import "fmt"

// FunctionKind selects the Modbus table a read goes to.
type FunctionKind uint8

const (
	HoldingRegister FunctionKind = iota
	InputRegister
)

func (k FunctionKind) String() string {
	switch k {
	case HoldingRegister:
		return "holding"
	case InputRegister:
		return "input"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// RegisterReader is the transport used by discovery and bulk reads. It returns
// exactly count words or an error.
type RegisterReader interface {
	ReadWords(kind FunctionKind, address uint16, count uint16) ([]uint16, error)
}

// RegisterReaderCloser is a RegisterReader bound to a connection.
type RegisterReaderCloser interface {
	RegisterReader
	Open() error
	Close() error
}
