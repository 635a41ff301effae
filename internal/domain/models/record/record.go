package record

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the review state of a Record.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Patient identifies who the document is about. Nil fields are unknown,
// unreadable or redacted.
type Patient struct {
	Name             *string `json:"name"`
	DateOfBirth      *string `json:"dob"`
	HealthCardNumber *string `json:"hcn"`
	Address          *string `json:"address"`
}

// Prescriber identifies the issuing clinician.
type Prescriber struct {
	Name       *string `json:"name"`
	LicenseID  *string `json:"license_id"`
	ClinicName *string `json:"clinic_name"`
	Phone      *string `json:"phone"`
	Fax        *string `json:"fax"`
}

// MedicationLine is one entry of a Record's medication list.
type MedicationLine struct {
	DrugName        *string `json:"drug_name"`
	Strength        *string `json:"strength"`
	Form            *string `json:"form"`
	SigInstructions *string `json:"sig_instructions"`
	Quantity        *string `json:"quantity"`
	Refills         *string `json:"refills"`
	DIN             *string `json:"din"`
	FillDate        *string `json:"fill_date"`
}

// Record is a structured document record: the machine extraction of one
// uploaded document plus any reviewer corrections.
//
// ID is empty until the record store first persists it. CreatedAt is fixed
// at first persistence.
type Record struct {
	ID           string           `json:"id,omitempty"`
	DocumentType string           `json:"document_type"`
	IssueDate    *string          `json:"issue_date"`
	Patient      Patient          `json:"patient"`
	Prescriber   Prescriber       `json:"prescriber"`
	Medications  []MedicationLine `json:"medications"`
	Status       Status           `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
}

// MarshalJSON always emits medications as an array.
func (r Record) MarshalJSON() ([]byte, error) {
	type wire Record
	w := wire(r)
	if w.Medications == nil {
		w.Medications = []MedicationLine{}
	}
	return json.Marshal(w)
}

// IsApproved reports whether the record reached its terminal state.
func (r *Record) IsApproved() bool {
	return r.Status == StatusApproved
}

// Clone returns a deep copy of r. Leaf strings are copied so the clone shares
// no memory with r.
func (r *Record) Clone() *Record {
	c := *r
	c.IssueDate = cloneString(r.IssueDate)
	c.Patient = Patient{
		Name:             cloneString(r.Patient.Name),
		DateOfBirth:      cloneString(r.Patient.DateOfBirth),
		HealthCardNumber: cloneString(r.Patient.HealthCardNumber),
		Address:          cloneString(r.Patient.Address),
	}
	c.Prescriber = Prescriber{
		Name:       cloneString(r.Prescriber.Name),
		LicenseID:  cloneString(r.Prescriber.LicenseID),
		ClinicName: cloneString(r.Prescriber.ClinicName),
		Phone:      cloneString(r.Prescriber.Phone),
		Fax:        cloneString(r.Prescriber.Fax),
	}
	c.Medications = make([]MedicationLine, len(r.Medications))
	for i := range r.Medications {
		c.Medications[i] = r.Medications[i].Clone()
	}
	return &c
}

// Clone returns a deep copy of m.
func (m MedicationLine) Clone() MedicationLine {
	c := m
	for _, f := range MedFields() {
		ref := f.Ref(&c)
		*ref = cloneString(*ref)
	}
	return c
}

// Normalize returns nil for nil or blank input and a trimmed copy otherwise.
// Blank text is never stored; absence is always represented as nil.
func Normalize(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Str is a convenience for building nullable leaves.
func Str(s string) *string {
	return &s
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
