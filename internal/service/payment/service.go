package payment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/repository"
	"github.com/jwalitptl/recruit-api/internal/service/event"
	"github.com/jwalitptl/recruit-api/pkg/logger"
)

var (
	ErrInvalidMonth        = errors.New("month_year must be formatted as YYYY-MM")
	ErrUnknownInterviewers = errors.New("unknown interviewer ids")
	ErrDuplicateLine       = errors.New("interviewer listed more than once")
	ErrAlreadyDispatched   = errors.New("payment confirmation already dispatched for this month")
)

var monthYearPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type TokenIssuer interface {
	Issue(subjectID uuid.UUID, purpose model.TokenPurpose) (*model.ConfirmationToken, error)
}

type Service struct {
	repo         repository.PaymentRepository
	interviewers repository.InterviewerRepository
	tokens       TokenIssuer
	issuer       *event.Issuer
	log          *logger.Logger
	now          func() time.Time
}

func NewService(repo repository.PaymentRepository, interviewers repository.InterviewerRepository, tokens TokenIssuer, issuer *event.Issuer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:         repo,
		interviewers: interviewers,
		tokens:       tokens,
		issuer:       issuer,
		log:          log,
		now:          time.Now,
	}
}

// DispatchBatch creates one EmailSent record per line and queues a confirmation
// request to each interviewer. Records and notifications commit together.
func (s *Service) DispatchBatch(ctx context.Context, in *model.DispatchPaymentBatchRequest) ([]*model.ConfirmationRecord, error) {
	if !monthYearPattern.MatchString(in.MonthYear) {
		return nil, ErrInvalidMonth
	}

	ids := make([]uuid.UUID, 0, len(in.Lines))
	seen := make(map[uuid.UUID]struct{}, len(in.Lines))
	for _, line := range in.Lines {
		if _, ok := seen[line.InterviewerID]; ok {
			return nil, ErrDuplicateLine
		}
		seen[line.InterviewerID] = struct{}{}
		ids = append(ids, line.InterviewerID)
	}

	found, err := s.interviewers.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load interviewers: %w", err)
	}
	if len(found) != len(ids) {
		return nil, ErrUnknownInterviewers
	}
	byID := make(map[uuid.UUID]*model.Interviewer, len(found))
	for _, iv := range found {
		byID[iv.ID] = iv
	}

	now := s.now().UTC()
	records := make([]*model.ConfirmationRecord, 0, len(in.Lines))
	events := make([]*model.OutboxEvent, 0, len(in.Lines))
	for _, line := range in.Lines {
		iv := byID[line.InterviewerID]
		rec := &model.ConfirmationRecord{
			MonthYear:        in.MonthYear,
			InterviewerID:    iv.ID,
			InterviewerName:  iv.Name,
			InterviewerEmail: iv.Email,
			InterviewCount:   line.InterviewCount,
			TotalAmount:      line.TotalAmount,
			Status:           model.PaymentStatusEmailSent,
		}
		rec.ID = uuid.New()
		rec.CreatedAt = now
		rec.UpdatedAt = now

		tok, err := s.tokens.Issue(rec.ID, model.PurposePaymentConfirmation)
		if err != nil {
			return nil, fmt.Errorf("failed to issue token: %w", err)
		}

		message := fmt.Sprintf("You completed %d interviews in %s for a total of %.2f.",
			line.InterviewCount, in.MonthYear, line.TotalAmount)
		job := s.issuer.Job(model.KindPaymentConfirmationRequest, iv, message,
			"Please confirm these figures or raise a dispute.", tok.Value)
		evt, err := s.issuer.NewDispatchEvent(job)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
		events = append(events, evt)
	}

	if err := s.repo.CreateBatch(ctx, records, events); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyDispatched
		}
		return nil, fmt.Errorf("failed to create payment batch: %w", err)
	}

	s.log.Info("payment batch dispatched",
		"month_year", in.MonthYear,
		"records", len(records),
	)
	return records, nil
}

func (s *Service) List(ctx context.Context, monthYear string) ([]*model.ConfirmationRecord, error) {
	if !monthYearPattern.MatchString(monthYear) {
		return nil, ErrInvalidMonth
	}
	records, err := s.repo.ListByMonth(ctx, monthYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment records: %w", err)
	}
	if records == nil {
		records = []*model.ConfirmationRecord{}
	}
	return records, nil
}
