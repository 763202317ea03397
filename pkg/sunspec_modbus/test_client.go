package sunspec_modbus

import (
	"fmt"
	"slices"
	"sync"
)

// TestRegisterReader serves reads from an in-memory register image and keeps a
// log of every request.
type TestRegisterReader struct {
	mu        sync.Mutex
	registers map[uint16]uint16
	failures  map[uint16]error
	reads     []AddressRange
}

func NewTestRegisterReader() *TestRegisterReader {
	return &TestRegisterReader{
		registers: make(map[uint16]uint16),
		failures:  make(map[uint16]error),
	}
}

func (reader *TestRegisterReader) Open() error {
	return nil
}

func (reader *TestRegisterReader) Close() error {
	return nil
}

// Set stores words starting at address.
func (reader *TestRegisterReader) Set(address uint16, words ...uint16) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	for i, w := range words {
		reader.registers[address+uint16(i)] = w
	}
}

// FailAt makes any read starting at address return err.
func (reader *TestRegisterReader) FailAt(address uint16, err error) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	reader.failures[address] = err
}

func (reader *TestRegisterReader) ReadWords(kind FunctionKind, address uint16, count uint16) ([]uint16, error) {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	reader.reads = append(reader.reads, AddressRange{Address: address, Count: count})
	if err, ok := reader.failures[address]; ok {
		return nil, err
	}
	words := make([]uint16, count)
	for i := range words {
		w, ok := reader.registers[address+uint16(i)]
		if !ok {
			// what a device answers with an illegal data address exception
			return nil, fmt.Errorf("illegal data address %d", address+uint16(i))
		}
		words[i] = w
	}
	return words, nil
}

// Reads returns every request served so far.
func (reader *TestRegisterReader) Reads() []AddressRange {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	return slices.Clone(reader.reads)
}

// Probed reports whether a read started at address.
func (reader *TestRegisterReader) Probed(address uint16) bool {
	return slices.ContainsFunc(reader.Reads(), func(r AddressRange) bool {
		return r.Address == address
	})
}

func (reader *TestRegisterReader) ResetReads() {
	reader.mu.Lock()
	defer reader.mu.Unlock()
	reader.reads = nil
}

// TestDeviceImage lays out a SunSpec model chain into a TestRegisterReader.
type TestDeviceImage struct {
	Reader *TestRegisterReader
	next   uint16
}

func NewTestDeviceImage(reader *TestRegisterReader, base uint16) *TestDeviceImage {
	reader.Set(base, StringToWords(SUNSPEC_MARKER, 2)...)
	return &TestDeviceImage{Reader: reader, next: base + 2}
}

// AddModel writes a model header followed by its block and returns the header
// address.
func (img *TestDeviceImage) AddModel(id uint16, block []uint16) uint16 {
	addr := img.next
	img.Reader.Set(addr, id, uint16(len(block)))
	img.Reader.Set(addr+SUNSPEC_HEADER_LENGTH, block...)
	img.next = addr + SUNSPEC_HEADER_LENGTH + uint16(len(block))
	return addr
}

// AddHeader writes a header whose reported length differs from the block
// actually written.
func (img *TestDeviceImage) AddHeader(id uint16, length uint16, block []uint16) uint16 {
	addr := img.next
	img.Reader.Set(addr, id, length)
	img.Reader.Set(addr+SUNSPEC_HEADER_LENGTH, block...)
	img.next = addr + SUNSPEC_HEADER_LENGTH + length
	return addr
}

func (img *TestDeviceImage) End() {
	img.Reader.Set(img.next, SUNSPEC_WK_END, 0)
}

// StringToWords packs s into n words, NUL padded.
func StringToWords(s string, n int) []uint16 {
	b := make([]byte, n*2)
	copy(b, s)
	words := make([]uint16, n)
	for i := range words {
		words[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return words
}

// TestModelBlock builds a model block of a given length.
type TestModelBlock []uint16

func NewTestModelBlock(length uint16) TestModelBlock {
	return make(TestModelBlock, length)
}

func (b TestModelBlock) Put(offset uint16, words ...uint16) TestModelBlock {
	copy(b[offset:], words)
	return b
}

func (b TestModelBlock) PutString(offset uint16, s string, n int) TestModelBlock {
	return b.Put(offset, StringToWords(s, n)...)
}

func (b TestModelBlock) PutUint32(offset uint16, v uint32) TestModelBlock {
	return b.Put(offset, uint16(v>>16), uint16(v))
}

func (b TestModelBlock) PutInt16(offset uint16, v int16) TestModelBlock {
	return b.Put(offset, uint16(v))
}

// CreateTestRegisterReader returns a simulated hybrid inverter at 40000 with
// common, inverter, MPPT, storage and meter models.
func CreateTestRegisterReader() *TestRegisterReader {
	reader := NewTestRegisterReader()
	img := NewTestDeviceImage(reader, 40000)

	common := NewTestModelBlock(SUNSPEC_COMMON_MODEL_LENGTH).
		PutString(0, "Frostnews", 16).
		PutString(16, "Primo GEN24 4.0", 16).
		PutString(40, "1.30.7-1", 8).
		PutString(48, "28136344", 16).
		Put(64, 1)
	img.AddModel(SUNSPEC_WK_COMMON, common)

	inverter := NewTestModelBlock(inverterFixedLen).
		Put(0, 14, 14, 0xFFFF, 0xFFFF).PutInt16(4, -1).
		Put(8, 2342, 0xFFFF, 0xFFFF).PutInt16(11, -1).
		Put(12, 3202).PutInt16(13, -1).
		Put(14, 5001).PutInt16(15, -2).
		PutUint32(22, 8123456).
		Put(29, 9203).PutInt16(30, -1).
		Put(31, 517, 0x8000, 0x8000, 0x8000).PutInt16(35, -1).
		Put(36, InverterStatusMPPT)
	img.AddModel(103, inverter)

	mppt := NewTestModelBlock(mpptFixedLen+2*mpptModuleLen).
		PutInt16(0, -2).PutInt16(1, -1).
		Put(6, 2)
	for i, dcw := range []uint16{600, 320} {
		off := mpptFixedLen + uint16(i)*mpptModuleLen
		mppt.Put(off, uint16(i+1)).
			PutString(off+1, fmt.Sprintf("String %d", i+1), 8).
			Put(off+9, 512, 3504, dcw).
			PutUint32(off+12, 1000000*uint32(i+1)).
			Put(off+16, 0x8000, InverterStatusMPPT)
	}
	img.AddModel(SUNSPEC_WK_MPPT, mppt)

	storage := NewTestModelBlock(storageFixedLen).
		Put(0, 5260).
		Put(6, 2350).
		Put(9, StorageChargeStatusCharging).
		PutInt16(20, -2)
	img.AddModel(SUNSPEC_WK_STORAGE, storage)

	meter := NewTestModelBlock(meterFixedLen).
		Put(6, 23424).PutInt16(13, -2).
		Put(14, 5000).PutInt16(15, -2).
		PutInt16(16, -1250).
		PutUint32(36, 2770340).
		PutUint32(44, 550220)
	img.AddModel(203, meter)

	img.End()
	return reader
}
