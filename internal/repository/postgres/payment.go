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

type paymentRepository struct {
	BaseRepository
}

func NewPaymentRepository(base BaseRepository) repository.PaymentRepository {
	return &paymentRepository{base}
}

const paymentColumns = `
	id, month_year, interviewer_id, interviewer_name, interviewer_email, interview_count,
	total_amount, status, remarks, responded_at, created_at, updated_at
`

func (r *paymentRepository) CreateBatch(ctx context.Context, records []*model.ConfirmationRecord, events []*model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO payment_confirmations (
				id, month_year, interviewer_id, interviewer_name, interviewer_email,
				interview_count, total_amount, status, created_at, updated_at
			) VALUES (
				:id, :month_year, :interviewer_id, :interviewer_name, :interviewer_email,
				:interview_count, :total_amount, :status, :created_at, :updated_at
			)
		`
		for _, rec := range records {
			if _, err := tx.NamedExecContext(ctx, query, rec); err != nil {
				return fmt.Errorf("failed to create payment confirmation: %w", duplicate(err))
			}
		}
		return insertOutboxEvents(ctx, tx, events)
	})
}

func (r *paymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.ConfirmationRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_confirmations WHERE id = $1`

	var rec model.ConfirmationRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

func (r *paymentRepository) ListByMonth(ctx context.Context, monthYear string) ([]*model.ConfirmationRecord, error) {
	query := `SELECT ` + paymentColumns + ` FROM payment_confirmations WHERE month_year = $1 ORDER BY interviewer_name ASC`

	var recs []*model.ConfirmationRecord
	if err := r.db.SelectContext(ctx, &recs, query, monthYear); err != nil {
		return nil, fmt.Errorf("failed to list payment confirmations: %w", err)
	}
	return recs, nil
}

func (r *paymentRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, remarks *string, at time.Time) (bool, error) {
	query := `
		UPDATE payment_confirmations
		SET status = $1, remarks = $2, responded_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, to, remarks, at, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update payment confirmation: %w", err)
	}

	return r.transitioned(ctx, result, "payment_confirmations", id)
}
