package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenPurpose binds a confirmation token to one kind of subject record.
type TokenPurpose string

const (
	PurposePaymentConfirmation TokenPurpose = "payment_confirmation"
	PurposeBookingAvailability TokenPurpose = "booking_availability"
)

func (p TokenPurpose) Valid() bool {
	return p == PurposePaymentConfirmation || p == PurposeBookingAvailability
}

// ConfirmationToken is an opaque bearer credential authorising one response on one record.
type ConfirmationToken struct {
	Value     string       `json:"value"`
	SubjectID uuid.UUID    `json:"subject_id"`
	Purpose   TokenPurpose `json:"purpose"`
	IssuedAt  time.Time    `json:"issued_at"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// TokenSubject is what a valid token resolves to.
type TokenSubject struct {
	SubjectID uuid.UUID
	Purpose   TokenPurpose
}
