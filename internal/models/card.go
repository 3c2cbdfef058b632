// internal/models/card.go
package models

import "time"

// AppointmentCard is a scheduled reminder record. The card-scan image
// references and the pinned flag belong to the front-office application and
// are carried through untouched by the dispatch pipeline.
type AppointmentCard struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DueAt          time.Time `json:"dueAt"`
	ContactNumber  string    `json:"contactNumber,omitempty"`
	Note           string    `json:"note,omitempty"`
	AssignedTo     string    `json:"assignedTo"`
	CardFrontImage string    `json:"cardFrontImage,omitempty"`
	CardBackImage  string    `json:"cardBackImage,omitempty"`
	Pinned         bool      `json:"pinned"`
	Notified       bool      `json:"notified"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// StaffDirectoryEntry maps an assignee username to a contact phone number.
type StaffDirectoryEntry struct {
	Username string `json:"username"`
	Phone    string `json:"phone"`
}

// DispatchAttempt is the audit record written for every outbound attempt.
type DispatchAttempt struct {
	ID        string    `json:"id"`
	CardID    string    `json:"cardId"`
	Phone     string    `json:"phone"`
	Provider  string    `json:"provider"`
	Status    string    `json:"status"` // "sent", "failed", "skipped"
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	AttemptStatusSent    = "sent"
	AttemptStatusFailed  = "failed"
	AttemptStatusSkipped = "skipped"
)
