package sunspec_modbus

import (
	"fmt"
	"math"
)

// DataType is the wire representation of a model field.
type DataType uint8

const (
	Int16 DataType = iota
	UInt16
	Int32
	UInt32
	Int64
	Float32
	String
)

var dataTypeNames = map[DataType]string{
	Int16:   "int16",
	UInt16:  "uint16",
	Int32:   "int32",
	UInt32:  "uint32",
	Int64:   "int64",
	Float32: "float32",
	String:  "string",
}

func (t DataType) String() string {
	if name, ok := dataTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", t)
}

// WordLength returns the natural number of registers used by the type. Strings
// have no natural length and must declare one.
func (t DataType) WordLength() uint16 {
	switch t {
	case Int16, UInt16:
		return 1
	case Int32, UInt32, Float32:
		return 2
	case Int64:
		return 4
	default:
		return 0
	}
}

func (t DataType) Signed() bool {
	return t == Int16 || t == Int32 || t == Int64
}

// NaN returns the bit pattern reserved by the wire format for "not available"
// at the type's natural width.
func (t DataType) NaN() uint64 {
	return nanSentinels[t]
}

var nanSentinels = map[DataType]uint64{
	Int16:   0x8000,
	UInt16:  0xFFFF,
	Int32:   0x80000000,
	UInt32:  0xFFFFFFFF,
	Int64:   0x8000000000000000,
	Float32: 0x7FC00000,
}

// isNaN applies the sentinel rule of the type to bits read from words registers.
// Widths other than the natural one (vendor deviations) keep the same shape:
// high bit only for signed types, all ones for unsigned.
func (t DataType) isNaN(bits uint64, words uint16) bool {
	width := uint(words) * 16
	switch t {
	case Float32:
		// infinities cannot be represented as decimals either
		f := float64(math.Float32frombits(uint32(bits)))
		return math.IsNaN(f) || math.IsInf(f, 0)
	case Int16, Int32, Int64:
		return bits == uint64(1)<<(width-1)
	case UInt16, UInt32:
		return bits == allOnes(width)
	default:
		return false
	}
}

func allOnes(width uint) uint64 {
	if width >= 64 {
		return math.MaxUint64
	}
	return uint64(1)<<width - 1
}

// DataClassification tags a field with semantics that change how absence is
// detected.
type DataClassification uint8

const (
	Plain DataClassification = iota
	Accumulator
	Bitfield
	Enumeration
	ScaleFactor
)

var classificationNames = map[DataClassification]string{
	Plain:       "plain",
	Accumulator: "accumulator",
	Bitfield:    "bitfield",
	Enumeration: "enumeration",
	ScaleFactor: "scale_factor",
}

func (c DataClassification) String() string {
	if name, ok := classificationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", c)
}

// absentFunc reports whether raw bits read for a field mean "no value".
type absentFunc func(t DataType, bits uint64, words uint16) bool

var absenceRules = map[DataClassification]absentFunc{
	Plain:       sentinelAbsent,
	Enumeration: sentinelAbsent,
	ScaleFactor: sentinelAbsent,
	Accumulator: func(t DataType, bits uint64, words uint16) bool {
		// zero means never accumulated
		return bits == 0 || sentinelAbsent(t, bits, words)
	},
	Bitfield: func(t DataType, bits uint64, words uint16) bool {
		// high bit set invalidates the whole value
		width := uint(words) * 16
		return bits&(uint64(1)<<(width-1)) != 0
	},
}

func sentinelAbsent(t DataType, bits uint64, words uint16) bool {
	return t.isNaN(bits, words)
}

func (c DataClassification) absent(t DataType, bits uint64, words uint16) bool {
	rule, ok := absenceRules[c]
	if !ok {
		rule = sentinelAbsent
	}
	return rule(t, bits, words)
}
