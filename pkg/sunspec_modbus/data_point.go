package sunspec_modbus

// DataPoint describes one field of a model, relative to the model block address
// (or to the start of a repeating block instance).
type DataPoint struct {
	Name   string
	Offset uint16
	Type   DataType
	// Words overrides the natural length of Type when non zero
	Words uint16
	Class DataClassification
	// ScaleFactor names the companion scale factor point, if any
	ScaleFactor string
}

func (dp DataPoint) WordLength() uint16 {
	if dp.Words > 0 {
		return dp.Words
	}
	return dp.Type.WordLength()
}

func (dp DataPoint) Scaled() bool {
	return dp.ScaleFactor != ""
}

// sf declares a scale factor point
func sf(name string, offset uint16) DataPoint {
	return DataPoint{Name: name, Offset: offset, Type: Int16, Class: ScaleFactor}
}

func str(name string, offset uint16, words uint16) DataPoint {
	return DataPoint{Name: name, Offset: offset, Type: String, Words: words}
}

func findDataPoint(points []DataPoint, name string) (DataPoint, bool) {
	for _, dp := range points {
		if dp.Name == name {
			return dp, true
		}
	}
	return DataPoint{}, false
}
