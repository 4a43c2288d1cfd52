package models

import "fmt"

// Form field names as delivered by presentation-layer input events.
const (
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldDateOfBirth = "dateOfBirth"
	FieldEmail       = "email"
	FieldProgram     = "program"
	FieldNotes       = "notes"
)

// ApplicationForm is the mutable record held for the duration of one session.
// It is created empty, mutated field-by-field on user input, reset to empty
// after a successful write, and left untouched on a failed write so the user
// can retry without retyping. Completeness of the required fields is enforced
// by the presentation layer, not here.
type ApplicationForm struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth string `json:"dateOfBirth"` // calendar date, YYYY-MM-DD
	Email       string `json:"email"`
	Program     string `json:"program"`
	Notes       string `json:"notes,omitempty"`
}

// Set applies a single field-input event. The last value set for a field
// wins, independent of other fields' update order.
func (f *ApplicationForm) Set(field, value string) error {
	switch field {
	case FieldFirstName:
		f.FirstName = value
	case FieldLastName:
		f.LastName = value
	case FieldDateOfBirth:
		f.DateOfBirth = value
	case FieldEmail:
		f.Email = value
	case FieldProgram:
		f.Program = value
	case FieldNotes:
		f.Notes = value
	default:
		return fmt.Errorf("unknown form field: %s", field)
	}
	return nil
}

// Reset returns the form to its empty initial value.
func (f *ApplicationForm) Reset() {
	*f = ApplicationForm{}
}

// IsEmpty reports whether the form equals its initial value.
func (f *ApplicationForm) IsEmpty() bool {
	return *f == ApplicationForm{}
}

// Clone returns an independent copy of the current field values.
func (f *ApplicationForm) Clone() ApplicationForm {
	return *f
}

// Fields returns the current field values as a document field mapping.
func (f *ApplicationForm) Fields() map[string]interface{} {
	return map[string]interface{}{
		FieldFirstName:   f.FirstName,
		FieldLastName:    f.LastName,
		FieldDateOfBirth: f.DateOfBirth,
		FieldEmail:       f.Email,
		FieldProgram:     f.Program,
		FieldNotes:       f.Notes,
	}
}
