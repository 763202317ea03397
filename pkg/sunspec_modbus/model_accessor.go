package sunspec_modbus

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var decimalOne = decimal.NewFromInt(1)

// AddressRange is a contiguous register span to be read in one request.
type AddressRange struct {
	Address uint16
	Count   uint16
}

// Bitmask is a decoded bitfield. Zero when no bit is set or when the device
// flagged the whole value as invalid.
type Bitmask uint64

func (b Bitmask) Has(bit uint) bool {
	return b&(Bitmask(1)<<bit) != 0
}

// ModelDecoder is the generic decode contract shared by every model accessor.
// The offset argument is added to the block address before the point offset; it
// is zero for fixed block fields and selects a repeating block instance
// otherwise.
type ModelDecoder interface {
	RawValueAt(dp DataPoint, offset uint16) (decimal.NullDecimal, error)
	ScaledValueAt(dp DataPoint, offset uint16, scale DataPoint) (decimal.NullDecimal, error)
	BitfieldValueAt(dp DataPoint, offset uint16) (Bitmask, error)
	StringValueAt(dp DataPoint, offset uint16) (string, error)
}

// ModelAccessor is a decoding view over one model of a ModelData snapshot.
type ModelAccessor interface {
	ModelDecoder
	ModelId() ModelId
	// address of the model header
	BaseAddress() uint16
	// address of the first field, just after the header
	BlockAddress() uint16
	ModelLength() uint16
	FixedBlockLength() uint16
	RepeatingBlockInstanceLength() uint16
	RepeatingBlockInstanceCount() int
	AddressRanges(maxSpan uint16) []AddressRange
	DataPoints() []DataPoint
	RepeatingDataPoints() []DataPoint
}

// BaseModelAccessor implements the decode engine. Concrete models embed it and
// add typed getters on top of their descriptor tables.
type BaseModelAccessor struct {
	data            *ModelData
	baseAddress     uint16
	id              ModelId
	length          uint16
	fixedLength     uint16
	repeatingLength uint16
	points          []DataPoint
	repeatingPoints []DataPoint
}

func newBaseModelAccessor(data *ModelData, baseAddress uint16, id ModelId, length uint16,
	fixedLength uint16, repeatingLength uint16, points []DataPoint, repeatingPoints []DataPoint) BaseModelAccessor {
	return BaseModelAccessor{
		data:            data,
		baseAddress:     baseAddress,
		id:              id,
		length:          length,
		fixedLength:     fixedLength,
		repeatingLength: repeatingLength,
		points:          points,
		repeatingPoints: repeatingPoints,
	}
}

func (m *BaseModelAccessor) ModelId() ModelId {
	return m.id
}

func (m *BaseModelAccessor) BaseAddress() uint16 {
	return m.baseAddress
}

func (m *BaseModelAccessor) BlockAddress() uint16 {
	return m.baseAddress + SUNSPEC_HEADER_LENGTH
}

func (m *BaseModelAccessor) ModelLength() uint16 {
	return m.length
}

func (m *BaseModelAccessor) FixedBlockLength() uint16 {
	return m.fixedLength
}

func (m *BaseModelAccessor) RepeatingBlockInstanceLength() uint16 {
	return m.repeatingLength
}

func (m *BaseModelAccessor) RepeatingBlockInstanceCount() int {
	if m.repeatingLength == 0 || m.length <= m.fixedLength {
		return 0
	}
	return int((m.length - m.fixedLength) / m.repeatingLength)
}

// RepeatingBlockOffset returns the offset, relative to the block address, of
// repeating block instance i.
func (m *BaseModelAccessor) RepeatingBlockOffset(i int) uint16 {
	return m.fixedLength + uint16(i)*m.repeatingLength
}

func (m *BaseModelAccessor) DataPoints() []DataPoint {
	return m.points
}

func (m *BaseModelAccessor) RepeatingDataPoints() []DataPoint {
	return m.repeatingPoints
}

// AddressRanges splits the model block into spans of at most maxSpan words.
func (m *BaseModelAccessor) AddressRanges(maxSpan uint16) []AddressRange {
	if maxSpan == 0 {
		maxSpan = m.length
	}
	var ranges []AddressRange
	forEachChunk(m.BlockAddress(), m.length, maxSpan, func(addr, qty uint16) bool {
		ranges = append(ranges, AddressRange{Address: addr, Count: qty})
		return true
	})
	return ranges
}

func (m *BaseModelAccessor) String() string {
	return fmt.Sprintf("%s@%d(%d)", m.id, m.baseAddress, m.length)
}

// decode

func (m *BaseModelAccessor) bits(dp DataPoint, offset uint16) (uint64, uint16, error) {
	n := dp.WordLength()
	if n == 0 || n > 4 {
		return 0, 0, fmt.Errorf("sunspec: %s: %d words cannot hold a %s", dp.Name, n, dp.Type)
	}
	words, err := m.data.WordsAt(m.BlockAddress()+offset+dp.Offset, n)
	if err != nil {
		return 0, 0, err
	}
	var bits uint64
	for _, w := range words {
		bits = bits<<16 | uint64(w)
	}
	return bits, n, nil
}

func (m *BaseModelAccessor) RawValue(dp DataPoint) (decimal.NullDecimal, error) {
	return m.RawValueAt(dp, 0)
}

// RawValueAt decodes a numeric point. A value matching the NaN rules of its
// type and classification comes back with Valid false and no error.
func (m *BaseModelAccessor) RawValueAt(dp DataPoint, offset uint16) (decimal.NullDecimal, error) {
	if dp.Type == String {
		return decimal.NullDecimal{}, fmt.Errorf("sunspec: %s is not numeric", dp.Name)
	}
	bits, n, err := m.bits(dp, offset)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if dp.Class.absent(dp.Type, bits, n) {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NullDecimal{Decimal: decodeNumber(dp.Type, bits, n), Valid: true}, nil
}

func decodeNumber(t DataType, bits uint64, words uint16) decimal.Decimal {
	width := uint(words) * 16
	switch {
	case t == Float32:
		return decimal.NewFromFloat32(math.Float32frombits(uint32(bits)))
	case t.Signed():
		shift := 64 - width
		return decimal.NewFromInt(int64(bits<<shift) >> shift)
	default:
		return decimal.NewFromUint64(bits)
	}
}

// ScaleFactor returns 10^exponent for a scale factor point, or 1 when the
// exponent is zero or not available.
func (m *BaseModelAccessor) ScaleFactor(dp DataPoint) (decimal.Decimal, error) {
	exp, err := m.RawValue(dp)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !exp.Valid || exp.Decimal.IsZero() {
		return decimalOne, nil
	}
	return decimal.New(1, int32(exp.Decimal.IntPart())), nil
}

func (m *BaseModelAccessor) ScaledValue(dp DataPoint, scale DataPoint) (decimal.NullDecimal, error) {
	return m.ScaledValueAt(dp, 0, scale)
}

// ScaledValueAt multiplies a raw value by its scale factor. Scale factors are
// always read from the fixed block.
func (m *BaseModelAccessor) ScaledValueAt(dp DataPoint, offset uint16, scale DataPoint) (decimal.NullDecimal, error) {
	raw, err := m.RawValueAt(dp, offset)
	if err != nil || !raw.Valid {
		return raw, err
	}
	mult, err := m.ScaleFactor(scale)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	if raw.Decimal.IsZero() || mult.Equal(decimalOne) {
		return raw, nil
	}
	return decimal.NullDecimal{Decimal: raw.Decimal.Mul(mult), Valid: true}, nil
}

func (m *BaseModelAccessor) BitfieldValue(dp DataPoint) (Bitmask, error) {
	return m.BitfieldValueAt(dp, 0)
}

// BitfieldValueAt always yields a definite mask: an invalid value reads as 0.
func (m *BaseModelAccessor) BitfieldValueAt(dp DataPoint, offset uint16) (Bitmask, error) {
	bits, n, err := m.bits(dp, offset)
	if err != nil {
		return 0, err
	}
	if Bitfield.absent(dp.Type, bits, n) {
		return 0, nil
	}
	return Bitmask(bits), nil
}

func (m *BaseModelAccessor) StringValue(dp DataPoint) (string, error) {
	return m.StringValueAt(dp, 0)
}

// StringValueAt decodes a NUL padded ASCII field. An empty string means the
// field is not set.
func (m *BaseModelAccessor) StringValueAt(dp DataPoint, offset uint16) (string, error) {
	words, err := m.data.WordsAt(m.BlockAddress()+offset+dp.Offset, dp.WordLength())
	if err != nil {
		return "", err
	}
	return wordsToString(words), nil
}

func wordsToString(words []uint16) string {
	bytes := make([]byte, 0, len(words)*2)
	for _, w := range words {
		bytes = append(bytes, byte(w>>8), byte(w))
	}
	f := slices.Index(bytes, 0x00)
	if f >= 0 {
		bytes = bytes[:f]
	}
	return strings.TrimRight(string(bytes), " ")
}

// typed extractors

func (m *BaseModelAccessor) Int32Value(dp DataPoint) (*int32, error) {
	v, err := m.RawValue(dp)
	if err != nil || !v.Valid {
		return nil, err
	}
	n, err := roundedInt(v.Decimal, math.MinInt32, math.MaxInt32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dp.Name, err)
	}
	i := int32(n)
	return &i, nil
}

func (m *BaseModelAccessor) Int64Value(dp DataPoint) (*int64, error) {
	v, err := m.RawValue(dp)
	if err != nil || !v.Valid {
		return nil, err
	}
	i, err := roundedInt(v.Decimal, math.MinInt64, math.MaxInt64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dp.Name, err)
	}
	return &i, nil
}

func (m *BaseModelAccessor) Float64Value(dp DataPoint) (*float64, error) {
	v, err := m.RawValue(dp)
	if err != nil || !v.Valid {
		return nil, err
	}
	f := v.Decimal.InexactFloat64()
	return &f, nil
}

func (m *BaseModelAccessor) ScaledFloat64Value(dp DataPoint, scale DataPoint) (*float64, error) {
	return m.scaledFloat64At(dp, 0, scale)
}

func (m *BaseModelAccessor) scaledFloat64At(dp DataPoint, offset uint16, scale DataPoint) (*float64, error) {
	v, err := m.ScaledValueAt(dp, offset, scale)
	if err != nil || !v.Valid {
		return nil, err
	}
	f := v.Decimal.InexactFloat64()
	return &f, nil
}

func (m *BaseModelAccessor) ScaledInt64Value(dp DataPoint, scale DataPoint) (*int64, error) {
	v, err := m.ScaledValue(dp, scale)
	if err != nil || !v.Valid {
		return nil, err
	}
	i, err := roundedInt(v.Decimal, math.MinInt64, math.MaxInt64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dp.Name, err)
	}
	return &i, nil
}

// roundedInt rounds d half away from zero and narrows it to [lo, hi].
func roundedInt(d decimal.Decimal, lo, hi int64) (int64, error) {
	r := d.Round(0)
	if r.LessThan(decimal.NewFromInt(lo)) || r.GreaterThan(decimal.NewFromInt(hi)) {
		return 0, fmt.Errorf("%w: %s", ErrOutOfRange, r)
	}
	return r.IntPart(), nil
}

// forEachChunk splits [start, start+total) into chunks of size <= chunkSize.
// The callback returns false to abort early.
func forEachChunk(start, total, chunkSize uint16, fn func(addr, qty uint16) bool) {
	if total == 0 || chunkSize == 0 {
		return
	}
	left := total
	addr := start
	for left > 0 {
		step := min(left, chunkSize)
		if !fn(addr, step) {
			return
		}
		addr += step
		left -= step
	}
}
