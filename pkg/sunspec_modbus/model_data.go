package sunspec_modbus

import (
	"maps"
	"time"
)

type modelHeader struct {
	address uint16
	id      uint16
	length  uint16
}

// ModelData is the register snapshot of one device: every word read so far,
// keyed by absolute address, plus the model chain discovered over it.
//
// ModelData is not synchronized. One writer (the discovery/poll sequence) owns
// it; readers on other goroutines should work on a Freeze copy.
type ModelData struct {
	// address of the SunSpec marker
	BaseAddress uint16
	// time of the last merge
	Timestamp time.Time

	words   map[uint16]uint16
	headers []modelHeader
	models  []ModelAccessor
}

func NewModelData(baseAddress uint16) *ModelData {
	return &ModelData{
		BaseAddress: baseAddress,
		words:       make(map[uint16]uint16),
	}
}

// MergeRange replaces the stored words for [start, start+len(words)).
func (d *ModelData) MergeRange(start uint16, words []uint16) {
	for i, w := range words {
		addr := int(start) + i
		if addr > 0xFFFF {
			break
		}
		d.words[uint16(addr)] = w
	}
	d.Timestamp = time.Now()
}

// WordsAt returns count words starting at address, or a *MissingDataError if
// any of them was never merged.
func (d *ModelData) WordsAt(address uint16, count uint16) ([]uint16, error) {
	out := make([]uint16, count)
	for i := range out {
		addr := int(address) + i
		if addr > 0xFFFF {
			return nil, &MissingDataError{Address: address, Count: count, Missing: 0xFFFF}
		}
		w, ok := d.words[uint16(addr)]
		if !ok {
			return nil, &MissingDataError{Address: address, Count: count, Missing: uint16(addr)}
		}
		out[i] = w
	}
	return out, nil
}

// Freeze returns a deep copy, including the model chain rebound to the copy.
func (d *ModelData) Freeze() *ModelData {
	c := &ModelData{
		BaseAddress: d.BaseAddress,
		Timestamp:   d.Timestamp,
		words:       maps.Clone(d.words),
	}
	for _, h := range d.headers {
		c.addModel(h)
	}
	return c
}

// Models returns the discovered chain in discovery order.
func (d *ModelData) Models() []ModelAccessor {
	return d.models
}

// CommonModel returns the common model accessor, or nil before discovery.
func (d *ModelData) CommonModel() *CommonModelAccessor {
	for _, m := range d.models {
		if c, ok := m.(*CommonModelAccessor); ok {
			return c
		}
	}
	return nil
}

// FindModels returns the accessors of the chain with the given model id.
func (d *ModelData) FindModels(id uint16) []ModelAccessor {
	var found []ModelAccessor
	for _, m := range d.models {
		if m.ModelId().Id == id {
			found = append(found, m)
		}
	}
	return found
}

func (d *ModelData) addModel(h modelHeader) ModelAccessor {
	var m ModelAccessor
	if len(d.models) == 0 {
		// the first model after the marker is always decoded as common
		m = newCommonModelAccessor(d, h.address, IdentifierFor(SUNSPEC_WK_COMMON), h.length)
	} else {
		m = AccessorFor(d, h.address, h.id, h.length)
	}
	d.headers = append(d.headers, h)
	d.models = append(d.models, m)
	return m
}
