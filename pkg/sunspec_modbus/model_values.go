package sunspec_modbus

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// FieldValue is one decoded field of a model. Value holds a decimal.Decimal for
// numbers, a Bitmask for bitfields and a string for text.
type FieldValue struct {
	Name  string             `json:"name"`
	Value any                `json:"value"`
	Class DataClassification `json:"-"`
}

// MarshalJSON writes decimals as plain JSON numbers, keeping their exact
// digits.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	value := v.Value
	if d, ok := value.(decimal.Decimal); ok {
		value = json.Number(d.String())
	}
	return json.Marshal(struct {
		Name  string `json:"name"`
		Value any    `json:"value"`
	}{v.Name, value})
}

// ModelValues decodes every field declared by the accessor, in table order, then
// every repeating block instance with names indexed as name[i]. Unavailable
// fields are left out, scale factors too.
func ModelValues(m ModelAccessor) ([]FieldValue, error) {
	var values []FieldValue
	fixed := m.DataPoints()
	for _, dp := range fixed {
		v, ok, err := fieldValue(m, dp, 0, fixed)
		if err != nil {
			return nil, err
		}
		if ok {
			values = append(values, FieldValue{Name: dp.Name, Value: v, Class: dp.Class})
		}
	}
	repeating := m.RepeatingDataPoints()
	if len(repeating) == 0 {
		return values, nil
	}
	for i := 0; i < m.RepeatingBlockInstanceCount(); i++ {
		offset := m.FixedBlockLength() + uint16(i)*m.RepeatingBlockInstanceLength()
		for _, dp := range repeating {
			v, ok, err := fieldValue(m, dp, offset, fixed)
			if err != nil {
				return nil, err
			}
			if ok {
				values = append(values, FieldValue{Name: fmt.Sprintf("%s[%d]", dp.Name, i), Value: v, Class: dp.Class})
			}
		}
	}
	return values, nil
}

func fieldValue(m ModelAccessor, dp DataPoint, offset uint16, fixed []DataPoint) (any, bool, error) {
	switch {
	case dp.Class == ScaleFactor:
		return nil, false, nil
	case dp.Type == String:
		s, err := m.StringValueAt(dp, offset)
		return s, err == nil && s != "", err
	case dp.Class == Bitfield:
		b, err := m.BitfieldValueAt(dp, offset)
		return b, err == nil, err
	}
	var v decimal.NullDecimal
	var err error
	if scale, ok := findDataPoint(fixed, dp.ScaleFactor); ok && dp.Scaled() {
		v, err = m.ScaledValueAt(dp, offset, scale)
	} else {
		v, err = m.RawValueAt(dp, offset)
	}
	if err != nil || !v.Valid {
		return nil, false, err
	}
	return v.Decimal, true, nil
}

// ModelSummary locates one model of the chain.
type ModelSummary struct {
	Index       int    `json:"index"`
	Id          uint16 `json:"id"`
	Description string `json:"description"`
	Address     uint16 `json:"address"`
	Length      uint16 `json:"length"`
}

type DeviceDescription struct {
	BaseAddress uint16         `json:"base_address"`
	Info        *DeviceInfo    `json:"info,omitempty"`
	Models      []ModelSummary `json:"models"`
}

// Describe summarizes the discovered chain. Info is nil when the common model
// block has not been read.
func (d *ModelData) Describe() DeviceDescription {
	desc := DeviceDescription{BaseAddress: d.BaseAddress}
	if common := d.CommonModel(); common != nil {
		if info, err := common.Info(); err == nil {
			desc.Info = info
		}
	}
	for i := range d.models {
		desc.Models = append(desc.Models, d.Summary(i))
	}
	return desc
}

// Summary locates the model at index in the chain.
func (d *ModelData) Summary(index int) ModelSummary {
	m := d.models[index]
	return ModelSummary{
		Index:       index,
		Id:          m.ModelId().Id,
		Description: m.ModelId().Description,
		Address:     m.BaseAddress(),
		Length:      m.ModelLength(),
	}
}
