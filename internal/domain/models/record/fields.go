package record

// Field addresses one scalar leaf of a Record outside the medication list.
// The set is closed: every value is listed in Fields and handled by Ref.
type Field string

const (
	FieldDocumentType         Field = "document_type"
	FieldIssueDate            Field = "issue_date"
	FieldPatientName          Field = "patient.name"
	FieldPatientDateOfBirth   Field = "patient.dob"
	FieldPatientHealthCard    Field = "patient.hcn"
	FieldPatientAddress       Field = "patient.address"
	FieldPrescriberName       Field = "prescriber.name"
	FieldPrescriberLicenseID  Field = "prescriber.license_id"
	FieldPrescriberClinicName Field = "prescriber.clinic_name"
	FieldPrescriberPhone      Field = "prescriber.phone"
	FieldPrescriberFax        Field = "prescriber.fax"
)

var fields = []Field{
	FieldDocumentType,
	FieldIssueDate,
	FieldPatientName,
	FieldPatientDateOfBirth,
	FieldPatientHealthCard,
	FieldPatientAddress,
	FieldPrescriberName,
	FieldPrescriberLicenseID,
	FieldPrescriberClinicName,
	FieldPrescriberPhone,
	FieldPrescriberFax,
}

// Fields returns every addressable record field in schema order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// ParseField resolves a dotted path such as "patient.name".
func ParseField(path string) (Field, bool) {
	for _, f := range fields {
		if string(f) == path {
			return f, true
		}
	}
	return "", false
}

// Nullable reports whether f may hold null. Only document_type is required.
func (f Field) Nullable() bool {
	return f != FieldDocumentType
}

// Ref returns the nullable leaf f addresses in r. It returns nil for
// document_type, which is not nullable, and for values outside the set.
func (f Field) Ref(r *Record) **string {
	switch f {
	case FieldIssueDate:
		return &r.IssueDate
	case FieldPatientName:
		return &r.Patient.Name
	case FieldPatientDateOfBirth:
		return &r.Patient.DateOfBirth
	case FieldPatientHealthCard:
		return &r.Patient.HealthCardNumber
	case FieldPatientAddress:
		return &r.Patient.Address
	case FieldPrescriberName:
		return &r.Prescriber.Name
	case FieldPrescriberLicenseID:
		return &r.Prescriber.LicenseID
	case FieldPrescriberClinicName:
		return &r.Prescriber.ClinicName
	case FieldPrescriberPhone:
		return &r.Prescriber.Phone
	case FieldPrescriberFax:
		return &r.Prescriber.Fax
	}
	return nil
}

// MedField addresses one leaf of a MedicationLine.
type MedField string

const (
	MedDrugName        MedField = "drug_name"
	MedStrength        MedField = "strength"
	MedForm            MedField = "form"
	MedSigInstructions MedField = "sig_instructions"
	MedQuantity        MedField = "quantity"
	MedRefills         MedField = "refills"
	MedDIN             MedField = "din"
	MedFillDate        MedField = "fill_date"
)

var medFields = []MedField{
	MedDrugName,
	MedStrength,
	MedForm,
	MedSigInstructions,
	MedQuantity,
	MedRefills,
	MedDIN,
	MedFillDate,
}

// MedFields returns every medication leaf in schema order.
func MedFields() []MedField {
	out := make([]MedField, len(medFields))
	copy(out, medFields)
	return out
}

// ParseMedField resolves a medication leaf name such as "drug_name".
func ParseMedField(name string) (MedField, bool) {
	for _, f := range medFields {
		if string(f) == name {
			return f, true
		}
	}
	return "", false
}

// Ref returns the leaf f addresses in m, or nil for values outside the set.
func (f MedField) Ref(m *MedicationLine) **string {
	switch f {
	case MedDrugName:
		return &m.DrugName
	case MedStrength:
		return &m.Strength
	case MedForm:
		return &m.Form
	case MedSigInstructions:
		return &m.SigInstructions
	case MedQuantity:
		return &m.Quantity
	case MedRefills:
		return &m.Refills
	case MedDIN:
		return &m.DIN
	case MedFillDate:
		return &m.FillDate
	}
	return nil
}
