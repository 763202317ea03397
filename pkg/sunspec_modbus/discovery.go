package sunspec_modbus

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
)

type DiscoveryOptions struct {
	// candidate marker addresses, in probe order. Defaults to SunSpecBaseAddresses
	BaseAddresses []uint16
	FunctionKind  FunctionKind
	// largest single read, in words. Defaults to SUNSPEC_DEFAULT_MAX_READ_SPAN
	MaxReadSpan uint16
	// hop cap for the chain walk. Defaults to SUNSPEC_DEFAULT_MAX_MODELS
	MaxModels int
	Logger    *zap.Logger
}

func (opts DiscoveryOptions) withDefaults() DiscoveryOptions {
	if len(opts.BaseAddresses) == 0 {
		opts.BaseAddresses = SunSpecBaseAddresses
	}
	if opts.MaxReadSpan == 0 || opts.MaxReadSpan > SUNSPEC_DEFAULT_MAX_READ_SPAN {
		opts.MaxReadSpan = SUNSPEC_DEFAULT_MAX_READ_SPAN
	}
	if opts.MaxModels <= 0 {
		opts.MaxModels = SUNSPEC_DEFAULT_MAX_MODELS
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return opts
}

type modbusBlock struct {
	id       uint16
	baseAddr uint16
	length   uint16
}

func (block *modbusBlock) isEndBlock() bool {
	return block.id == SUNSPEC_WK_END
}

// Discover locates the SunSpec marker and walks the model chain up to the end
// marker. Only the marker, the headers and the common model block are read;
// use ReadModelData to fetch the other models.
func Discover(reader RegisterReader, opts DiscoveryOptions) (*ModelData, error) {
	opts = opts.withDefaults()
	logger := opts.Logger

	base, marker, err := locate(reader, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("sunspec marker found", zap.Uint16("address", base))

	data := NewModelData(base)
	data.MergeRange(base, marker)

	// common
	block, err := surveyModbusBlock(reader, opts.FunctionKind, data, base+SUNSPEC_HEADER_LENGTH)
	if err != nil {
		return nil, err
	}
	if block.isEndBlock() {
		return nil, fmt.Errorf("sunspec: empty model chain at %d: %w", base, ErrModelsNotFound)
	}
	if block.id != SUNSPEC_WK_COMMON {
		logger.Warn("first model is not common", zap.Uint16("id", block.id))
	}
	current := data.addModel(modelHeader{address: block.baseAddr, id: block.id, length: block.length})
	if err := readAccessor(reader, opts.FunctionKind, data, current, opts.MaxReadSpan); err != nil {
		return nil, err
	}
	logger.Debug("common model read", zap.Uint16("address", block.baseAddr), zap.Uint16("length", block.length))

	// walk
	for n := 1; ; n++ {
		next := int(current.BlockAddress()) + int(current.ModelLength())
		if next+SUNSPEC_HEADER_LENGTH > 0x10000 {
			return nil, fmt.Errorf("sunspec: header address %d out of range: %w", next, ErrChainTooLong)
		}
		block, err := surveyModbusBlock(reader, opts.FunctionKind, data, uint16(next))
		if err != nil {
			return nil, err
		}
		if block.isEndBlock() {
			break
		}
		if n >= opts.MaxModels {
			return nil, fmt.Errorf("sunspec: more than %d models: %w", opts.MaxModels, ErrChainTooLong)
		}
		current = data.addModel(modelHeader{address: block.baseAddr, id: block.id, length: block.length})
		logger.Debug("model found",
			zap.Stringer("model", current.ModelId()),
			zap.Uint16("address", block.baseAddr),
			zap.Uint16("length", block.length))
	}
	logger.Info("sunspec model chain discovered",
		zap.Uint16("base", base),
		zap.Int("models", len(data.Models())))
	return data, nil
}

// locate probes every candidate address for the marker. A read error at a
// candidate is not fatal, it only rules that address out.
func locate(reader RegisterReader, opts DiscoveryOptions) (uint16, []uint16, error) {
	var probeErrs []error
	for _, addr := range opts.BaseAddresses {
		words, err := reader.ReadWords(opts.FunctionKind, addr, 2)
		if err != nil {
			opts.Logger.Debug("sunspec probe failed", zap.Uint16("address", addr), zap.Error(err))
			probeErrs = append(probeErrs, fmt.Errorf("%d: %w", addr, err))
			continue
		}
		if len(words) == 2 && wordsToString(words) == SUNSPEC_MARKER {
			return addr, words, nil
		}
	}
	if len(probeErrs) > 0 {
		return 0, nil, fmt.Errorf("%w: %w", ErrModelsNotFound, errors.Join(probeErrs...))
	}
	return 0, nil, ErrModelsNotFound
}

func surveyModbusBlock(reader RegisterReader, kind FunctionKind, data *ModelData, baseAddr uint16) (*modbusBlock, error) {
	header, err := readWords(reader, kind, baseAddr, SUNSPEC_HEADER_LENGTH)
	if err != nil {
		return nil, err
	}
	data.MergeRange(baseAddr, header)
	return &modbusBlock{
		id:       header[0],
		length:   header[1],
		baseAddr: baseAddr,
	}, nil
}

// ReadModelData reads the field data of every model of the chain and merges it
// into data. The chain itself is left untouched.
func ReadModelData(reader RegisterReader, data *ModelData, kind FunctionKind, maxSpan uint16) error {
	if maxSpan == 0 || maxSpan > SUNSPEC_DEFAULT_MAX_READ_SPAN {
		maxSpan = SUNSPEC_DEFAULT_MAX_READ_SPAN
	}
	for _, m := range data.Models() {
		if err := readAccessor(reader, kind, data, m, maxSpan); err != nil {
			return err
		}
	}
	return nil
}

func readAccessor(reader RegisterReader, kind FunctionKind, data *ModelData, m ModelAccessor, maxSpan uint16) error {
	for _, r := range m.AddressRanges(maxSpan) {
		words, err := readWords(reader, kind, r.Address, r.Count)
		if err != nil {
			return fmt.Errorf("sunspec: reading model %s: %w", m.ModelId(), err)
		}
		data.MergeRange(r.Address, words)
	}
	return nil
}

func readWords(reader RegisterReader, kind FunctionKind, address uint16, count uint16) ([]uint16, error) {
	words, err := reader.ReadWords(kind, address, count)
	if err != nil {
		return nil, err
	}
	if len(words) != int(count) {
		return nil, fmt.Errorf("sunspec: short read at %d: got %d words, want %d", address, len(words), count)
	}
	return slices.Clone(words), nil
}
