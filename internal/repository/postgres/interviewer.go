package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/repository"
)

type interviewerRepository struct {
	BaseRepository
}

func NewInterviewerRepository(base BaseRepository) repository.InterviewerRepository {
	return &interviewerRepository{base}
}

func (r *interviewerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Interviewer, error) {
	query := `SELECT id, name, email, phone, push_enabled, created_at, updated_at FROM interviewers WHERE id = $1`

	var i model.Interviewer
	if err := r.db.GetContext(ctx, &i, query, id); err != nil {
		return nil, notFound(err)
	}
	return &i, nil
}

func (r *interviewerRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Interviewer, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		`SELECT id, name, email, phone, push_enabled, created_at, updated_at FROM interviewers WHERE id IN (?) ORDER BY name ASC`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build interviewer query: %w", err)
	}

	var out []*model.Interviewer
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list interviewers: %w", err)
	}
	return out, nil
}
