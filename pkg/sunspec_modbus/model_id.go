package sunspec_modbus

import "fmt"

// AccessorCapability tells which accessor type understands a model.
type AccessorCapability string

const (
	CapabilityBase     AccessorCapability = "base"
	CapabilityCommon   AccessorCapability = "common"
	CapabilityInverter AccessorCapability = "inverter"
	CapabilityMeter    AccessorCapability = "meter"
	CapabilityStorage  AccessorCapability = "storage"
	CapabilityMPPT     AccessorCapability = "mppt"
)

// ModelId identifies a model type.
type ModelId struct {
	Id          uint16
	Description string
	Capability  AccessorCapability
}

func (id ModelId) String() string {
	return fmt.Sprintf("%d(%s)", id.Id, id.Description)
}

// ModelAccessorFactory binds a concrete accessor to a model header found at
// baseAddress.
type ModelAccessorFactory func(data *ModelData, baseAddress uint16, id ModelId, length uint16) ModelAccessor

type registeredModel struct {
	id      ModelId
	factory ModelAccessorFactory
}

// populated from init functions only
var modelRegistry = map[uint16]registeredModel{}

// RegisterModel makes a model type known to discovery. Registering an id twice
// replaces the previous entry.
func RegisterModel(id ModelId, factory ModelAccessorFactory) {
	modelRegistry[id.Id] = registeredModel{id: id, factory: factory}
}

// IdentifierFor returns the registered identifier for id, or a generic one.
func IdentifierFor(id uint16) ModelId {
	if reg, ok := modelRegistry[id]; ok {
		return reg.id
	}
	return genericModelId(id)
}

func genericModelId(id uint16) ModelId {
	return ModelId{
		Id:          id,
		Description: fmt.Sprintf("Model %d", id),
		Capability:  CapabilityBase,
	}
}

// AccessorFor instantiates the accessor registered for id, falling back to a
// GenericModelAccessor bound to the same coordinates.
func AccessorFor(data *ModelData, baseAddress uint16, id uint16, length uint16) ModelAccessor {
	if reg, ok := modelRegistry[id]; ok && reg.factory != nil {
		return reg.factory(data, baseAddress, reg.id, length)
	}
	return NewGenericModelAccessor(data, baseAddress, genericModelId(id), length)
}

// GenericModelAccessor stands for models without a descriptor table. Its whole
// length is unstructured; only raw inspection makes sense.
type GenericModelAccessor struct {
	BaseModelAccessor
}

func NewGenericModelAccessor(data *ModelData, baseAddress uint16, id ModelId, length uint16) *GenericModelAccessor {
	return &GenericModelAccessor{
		BaseModelAccessor: newBaseModelAccessor(data, baseAddress, id, length, 0, 0, nil, nil),
	}
}

// Words returns the raw words of the model block.
func (m *GenericModelAccessor) Words() ([]uint16, error) {
	return m.data.WordsAt(m.BlockAddress(), m.length)
}
