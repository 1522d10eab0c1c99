package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusEmailSent PaymentStatus = "EmailSent"
	PaymentStatusConfirmed PaymentStatus = "Confirmed"
	PaymentStatusDisputed  PaymentStatus = "Disputed"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusDisputed
}

// ConfirmationRecord is a month-end payment reconciliation request sent to one interviewer.
// It is created in EmailSent and moves to Confirmed or Disputed exactly once.
type ConfirmationRecord struct {
	Base
	MonthYear        string        `json:"month_year" db:"month_year"`
	InterviewerID    uuid.UUID     `json:"interviewer_id" db:"interviewer_id"`
	InterviewerName  string        `json:"interviewer_name" db:"interviewer_name"`
	InterviewerEmail string        `json:"interviewer_email" db:"interviewer_email"`
	InterviewCount   int           `json:"interview_count" db:"interview_count"`
	TotalAmount      float64       `json:"total_amount" db:"total_amount"`
	Status           PaymentStatus `json:"status" db:"status"`
	Remarks          *string       `json:"remarks,omitempty" db:"remarks"`
	RespondedAt      *time.Time    `json:"responded_at,omitempty" db:"responded_at"`
}

// Decision is a requested terminal status, as submitted through a confirmation link.
type Decision string

const (
	DecisionConfirmed    Decision = "Confirmed"
	DecisionDisputed     Decision = "Disputed"
	DecisionAvailable    Decision = "Available"
	DecisionSubmitted    Decision = "Submitted"
	DecisionNotAvailable Decision = "NotAvailable"
)

// ConfirmationView is what a token holder sees when following a confirmation link.
type ConfirmationView struct {
	Purpose         TokenPurpose `json:"purpose"`
	Status          string       `json:"status"`
	Decided         bool         `json:"decided"`
	InterviewerName string       `json:"interviewer_name,omitempty"`
	MonthYear       string       `json:"month_year,omitempty"`
	InterviewCount  int          `json:"interview_count,omitempty"`
	TotalAmount     float64      `json:"total_amount,omitempty"`
	BookingTitle    string       `json:"booking_title,omitempty"`
	SlotStart       *time.Time   `json:"slot_start,omitempty"`
	SlotEnd         *time.Time   `json:"slot_end,omitempty"`
	Remarks         *string      `json:"remarks,omitempty"`
	RespondedAt     *time.Time   `json:"responded_at,omitempty"`
}

// DecisionAck acknowledges an accepted transition.
type DecisionAck struct {
	Purpose     TokenPurpose `json:"purpose"`
	SubjectID   uuid.UUID    `json:"subject_id"`
	Status      string       `json:"status"`
	RespondedAt time.Time    `json:"responded_at"`
}

// DecisionEvent is published downstream after a transition is persisted.
type DecisionEvent struct {
	Purpose     TokenPurpose `json:"purpose"`
	SubjectID   uuid.UUID    `json:"subject_id"`
	Status      string       `json:"status"`
	Remarks     *string      `json:"remarks,omitempty"`
	RespondedAt time.Time    `json:"responded_at"`
}

// SubmitDecisionRequest is the body of POST /confirm.
type SubmitDecisionRequest struct {
	Token   string  `json:"token" binding:"required"`
	Status  string  `json:"status" binding:"required,decision"`
	Remarks *string `json:"remarks" binding:"omitempty,max=2000"`
}

// PaymentLine is one interviewer's month-end tally.
type PaymentLine struct {
	InterviewerID  uuid.UUID `json:"interviewer_id" binding:"required"`
	InterviewCount int       `json:"interview_count" binding:"gte=0"`
	TotalAmount    float64   `json:"total_amount" binding:"gte=0"`
}

// DispatchPaymentBatchRequest creates payment confirmation requests for a month.
type DispatchPaymentBatchRequest struct {
	MonthYear string        `json:"month_year" binding:"required"`
	Lines     []PaymentLine `json:"lines" binding:"required,min=1,dive"`
}
