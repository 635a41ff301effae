package record

// EditOp names a review editor operation.
type EditOp string

const (
	OpSetField           EditOp = "set_field"
	OpSetMedicationField EditOp = "set_medication_field"
	OpAddMedication      EditOp = "add_medication"
	OpRemoveMedication   EditOp = "remove_medication"
)

// Edit is one reviewer correction as it travels over the wire.
//
// Path is used by set_field, Field by set_medication_field and Index by both
// medication operations that address an existing line. Value nil clears the
// leaf.
type Edit struct {
	Op    EditOp  `json:"op"`
	Path  string  `json:"path,omitempty"`
	Index int     `json:"index,omitempty"`
	Field string  `json:"field,omitempty"`
	Value *string `json:"value"`
}

// SourceDocument is one uploaded file awaiting extraction.
type SourceDocument struct {
	Name        string
	ContentType string
	Data        []byte
}
