package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/repository"
	"github.com/jwalitptl/recruit-api/internal/service/event"
	"github.com/jwalitptl/recruit-api/pkg/logger"
)

var (
	ErrRequestNotFound     = errors.New("booking request not found")
	ErrUnknownInterviewers = errors.New("unknown interviewer ids")
	ErrInvalidSlot         = errors.New("slot end must be after slot start")
)

type TokenIssuer interface {
	Issue(subjectID uuid.UUID, purpose model.TokenPurpose) (*model.ConfirmationToken, error)
}

type Service struct {
	repo         repository.BookingRepository
	interviewers repository.InterviewerRepository
	tokens       TokenIssuer
	issuer       *event.Issuer
	log          *logger.Logger
	now          func() time.Time
}

func NewService(repo repository.BookingRepository, interviewers repository.InterviewerRepository, tokens TokenIssuer, issuer *event.Issuer, log *logger.Logger) *Service {
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

// Summarize joins every response of a booking request with the interviewer identity.
// Pending responses are included. The summary is recomputed on every call.
func (s *Service) Summarize(ctx context.Context, bookingRequestID uuid.UUID) (*model.BookingRequestSummary, error) {
	if _, err := s.repo.GetRequest(ctx, bookingRequestID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get booking request: %w", err)
	}

	views, err := s.repo.ListResponseViews(ctx, bookingRequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	if views == nil {
		views = []*model.InterviewerResponseView{}
	}

	summary := &model.BookingRequestSummary{
		BookingRequestID: bookingRequestID,
		Responses:        views,
	}
	for _, v := range views {
		switch v.Status {
		case model.ResponseStatusAvailable:
			summary.Available++
		case model.ResponseStatusNotAvailable:
			summary.NotAvailable++
		default:
			summary.Pending++
		}
	}
	return summary, nil
}

// CreateRequest opens a booking request with one Pending response per interviewer and
// queues an availability request to each of them.
func (s *Service) CreateRequest(ctx context.Context, in *model.CreateBookingRequest) (*model.BookingRequest, error) {
	if !in.SlotEnd.After(in.SlotStart) {
		return nil, ErrInvalidSlot
	}

	ids := dedupe(in.InterviewerIDs)
	interviewers, err := s.interviewers.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load interviewers: %w", err)
	}
	if len(interviewers) != len(ids) {
		return nil, ErrUnknownInterviewers
	}

	now := s.now().UTC()
	req := &model.BookingRequest{
		Title:     in.Title,
		SlotStart: in.SlotStart.UTC(),
		SlotEnd:   in.SlotEnd.UTC(),
		Notes:     in.Notes,
	}
	req.ID = uuid.New()
	req.CreatedAt = now
	req.UpdatedAt = now

	message := fmt.Sprintf("%s on %s, %s to %s UTC.",
		req.Title,
		req.SlotStart.Format("Mon 02 Jan 2006"),
		req.SlotStart.Format("15:04"),
		req.SlotEnd.Format("15:04"),
	)

	responses := make([]*model.InterviewerResponse, 0, len(interviewers))
	events := make([]*model.OutboxEvent, 0, len(interviewers))
	for _, iv := range interviewers {
		resp := &model.InterviewerResponse{
			BookingRequestID: req.ID,
			InterviewerID:    iv.ID,
			Status:           model.ResponseStatusPending,
		}
		resp.ID = uuid.New()
		resp.CreatedAt = now
		resp.UpdatedAt = now

		tok, err := s.tokens.Issue(resp.ID, model.PurposeBookingAvailability)
		if err != nil {
			return nil, fmt.Errorf("failed to issue token: %w", err)
		}

		job := s.issuer.Job(model.KindBookingAvailabilityRequest, iv, message,
			"Let us know whether you can take this slot.", tok.Value)
		evt, err := s.issuer.NewDispatchEvent(job)
		if err != nil {
			return nil, err
		}

		responses = append(responses, resp)
		events = append(events, evt)
	}

	if err := s.repo.CreateRequest(ctx, req, responses, events); err != nil {
		return nil, fmt.Errorf("failed to create booking request: %w", err)
	}

	s.log.Info("booking request created",
		"booking_request_id", req.ID.String(),
		"interviewers", len(responses),
	)
	return req, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
