package model

import (
	"time"

	"github.com/google/uuid"
)

type ResponseStatus string

const (
	ResponseStatusPending      ResponseStatus = "Pending"
	ResponseStatusAvailable    ResponseStatus = "Available"
	ResponseStatusNotAvailable ResponseStatus = "NotAvailable"
)

func (s ResponseStatus) Terminal() bool {
	return s == ResponseStatusAvailable || s == ResponseStatusNotAvailable
}

// Interviewer is the identity joined into booking summaries and used as a notification recipient.
type Interviewer struct {
	Base
	Name        string `json:"name" db:"name"`
	Email       string `json:"email" db:"email"`
	Phone       string `json:"phone,omitempty" db:"phone"`
	PushEnabled bool   `json:"push_enabled" db:"push_enabled"`
}

// BookingRequest is a slot that needs interviewer coverage.
type BookingRequest struct {
	Base
	Title     string    `json:"title" db:"title"`
	SlotStart time.Time `json:"slot_start" db:"slot_start"`
	SlotEnd   time.Time `json:"slot_end" db:"slot_end"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
}

// InterviewerResponse is one interviewer's answer to a booking request.
type InterviewerResponse struct {
	Base
	BookingRequestID uuid.UUID      `json:"booking_request_id" db:"booking_request_id"`
	InterviewerID    uuid.UUID      `json:"interviewer_id" db:"interviewer_id"`
	Status           ResponseStatus `json:"status" db:"status"`
	Remarks          *string        `json:"remarks,omitempty" db:"remarks"`
	RespondedAt      *time.Time     `json:"responded_at,omitempty" db:"responded_at"`
}

// InterviewerResponseView is a response joined with the interviewer identity.
type InterviewerResponseView struct {
	ResponseID    uuid.UUID      `json:"response_id" db:"response_id"`
	InterviewerID uuid.UUID      `json:"interviewer_id" db:"interviewer_id"`
	Name          string         `json:"name" db:"name"`
	Email         string         `json:"email" db:"email"`
	Status        ResponseStatus `json:"status" db:"status"`
	Remarks       *string        `json:"remarks" db:"remarks"`
	RespondedAt   *time.Time     `json:"responded_at,omitempty" db:"responded_at"`
}

// BookingRequestSummary is recomputed from the response rows on every read.
type BookingRequestSummary struct {
	BookingRequestID uuid.UUID                  `json:"booking_request_id"`
	Responses        []*InterviewerResponseView `json:"responses"`
	Pending          int                        `json:"pending"`
	Available        int                        `json:"available"`
	NotAvailable     int                        `json:"not_available"`
}

// CreateBookingRequest asks a set of interviewers for availability.
type CreateBookingRequest struct {
	Title          string      `json:"title" binding:"required"`
	SlotStart      time.Time   `json:"slot_start" binding:"required"`
	SlotEnd        time.Time   `json:"slot_end" binding:"required,gtfield=SlotStart"`
	Notes          string      `json:"notes"`
	InterviewerIDs []uuid.UUID `json:"interviewer_ids" binding:"required,min=1"`
}
