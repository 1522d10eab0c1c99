package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/model"
)

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when a write collides with a unique key.
var ErrDuplicate = errors.New("record already exists")

// All repository interfaces in one file
type (
	// PaymentRepository stores payment ConfirmationRecords.
	PaymentRepository interface {
		// CreateBatch persists records and their outbox events atomically. It returns
		// ErrDuplicate when an interviewer already has a record for the month.
		CreateBatch(ctx context.Context, records []*model.ConfirmationRecord, events []*model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.ConfirmationRecord, error)
		ListByMonth(ctx context.Context, monthYear string) ([]*model.ConfirmationRecord, error)
		// Transition moves a record from `from` to `to` only if it is still in `from`.
		// It reports whether this call performed the transition and returns ErrNotFound
		// when no record has the id.
		Transition(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, remarks *string, at time.Time) (bool, error)
	}

	// BookingRepository stores booking requests and per-interviewer responses.
	BookingRepository interface {
		CreateRequest(ctx context.Context, req *model.BookingRequest, responses []*model.InterviewerResponse, events []*model.OutboxEvent) error
		GetRequest(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error)
		GetResponse(ctx context.Context, id uuid.UUID) (*model.InterviewerResponse, error)
		ListResponseViews(ctx context.Context, bookingRequestID uuid.UUID) ([]*model.InterviewerResponseView, error)
		TransitionResponse(ctx context.Context, id uuid.UUID, from, to model.ResponseStatus, remarks *string, at time.Time) (bool, error)
	}

	InterviewerRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Interviewer, error)
		GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Interviewer, error)
	}

	OutboxRepository interface {
		// ClaimPending leases up to limit due events so concurrent workers skip them.
		ClaimPending(ctx context.Context, limit int, lease time.Duration) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		// MarkFailed records an attempt failure. A nil retryAt marks the event permanently failed.
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
