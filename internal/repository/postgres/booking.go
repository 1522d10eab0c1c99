package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/repository"
)

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(base BaseRepository) repository.BookingRepository {
	return &bookingRepository{base}
}

func (r *bookingRepository) CreateRequest(ctx context.Context, req *model.BookingRequest, responses []*model.InterviewerResponse, events []*model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		reqQuery := `
			INSERT INTO booking_requests (id, title, slot_start, slot_end, notes, created_at, updated_at)
			VALUES (:id, :title, :slot_start, :slot_end, :notes, :created_at, :updated_at)
		`
		if _, err := tx.NamedExecContext(ctx, reqQuery, req); err != nil {
			return fmt.Errorf("failed to create booking request: %w", err)
		}

		respQuery := `
			INSERT INTO interviewer_responses (id, booking_request_id, interviewer_id, status, created_at, updated_at)
			VALUES (:id, :booking_request_id, :interviewer_id, :status, :created_at, :updated_at)
		`
		for _, resp := range responses {
			if _, err := tx.NamedExecContext(ctx, respQuery, resp); err != nil {
				return fmt.Errorf("failed to create interviewer response: %w", err)
			}
		}

		return insertOutboxEvents(ctx, tx, events)
	})
}

func (r *bookingRepository) GetRequest(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error) {
	query := `
		SELECT id, title, slot_start, slot_end, notes, created_at, updated_at
		FROM booking_requests WHERE id = $1
	`
	var req model.BookingRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *bookingRepository) GetResponse(ctx context.Context, id uuid.UUID) (*model.InterviewerResponse, error) {
	query := `
		SELECT id, booking_request_id, interviewer_id, status, remarks, responded_at, created_at, updated_at
		FROM interviewer_responses WHERE id = $1
	`
	var resp model.InterviewerResponse
	if err := r.db.GetContext(ctx, &resp, query, id); err != nil {
		return nil, notFound(err)
	}
	return &resp, nil
}

func (r *bookingRepository) ListResponseViews(ctx context.Context, bookingRequestID uuid.UUID) ([]*model.InterviewerResponseView, error) {
	query := `
		SELECT ir.id AS response_id, ir.interviewer_id, i.name, i.email, ir.status, ir.remarks, ir.responded_at
		FROM interviewer_responses ir
		JOIN interviewers i ON i.id = ir.interviewer_id
		WHERE ir.booking_request_id = $1
		ORDER BY i.name ASC
	`
	var views []*model.InterviewerResponseView
	if err := r.db.SelectContext(ctx, &views, query, bookingRequestID); err != nil {
		return nil, fmt.Errorf("failed to list interviewer responses: %w", err)
	}
	return views, nil
}

func (r *bookingRepository) TransitionResponse(ctx context.Context, id uuid.UUID, from, to model.ResponseStatus, remarks *string, at time.Time) (bool, error) {
	query := `
		UPDATE interviewer_responses
		SET status = $1, remarks = $2, responded_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, to, remarks, at, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update interviewer response: %w", err)
	}

	return r.transitioned(ctx, result, "interviewer_responses", id)
}
