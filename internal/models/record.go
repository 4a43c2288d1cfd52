package models

import "time"

// ReviewStatusPending is the fixed initial review status of every new
// submission.
const ReviewStatusPending = "Pending Review"

// SubmissionRecord is the persisted artifact: a copy of the form fields plus
// submittedAt and reviewStatus. Immutable once written; owned by the backend
// store, not by the client.
type SubmissionRecord struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth"`
	Email        string `json:"email"`
	Program      string `json:"program"`
	Notes        string `json:"notes,omitempty"`
	SubmittedAt  string `json:"submittedAt"` // ISO 8601
	ReviewStatus string `json:"reviewStatus"`
}

// NewSubmissionRecord copies the form's current fields and stamps the record
// with the write instant and the initial review status.
func NewSubmissionRecord(form *ApplicationForm, at time.Time) SubmissionRecord {
	return SubmissionRecord{
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		DateOfBirth:  form.DateOfBirth,
		Email:        form.Email,
		Program:      form.Program,
		Notes:        form.Notes,
		SubmittedAt:  at.UTC().Format(time.RFC3339),
		ReviewStatus: ReviewStatusPending,
	}
}

// Fields returns the record as a document field mapping for the store.
func (r SubmissionRecord) Fields() map[string]interface{} {
	return map[string]interface{}{
		FieldFirstName:   r.FirstName,
		FieldLastName:    r.LastName,
		FieldDateOfBirth: r.DateOfBirth,
		FieldEmail:       r.Email,
		FieldProgram:     r.Program,
		FieldNotes:       r.Notes,
		"submittedAt":    r.SubmittedAt,
		"reviewStatus":   r.ReviewStatus,
	}
}
