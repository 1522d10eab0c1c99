package confirmation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/repository"
	"github.com/jwalitptl/recruit-api/internal/service/token"
	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
)

var (
	// ErrAlreadyDecided is returned when the record already left its initial status,
	// including when a concurrent submission won the race.
	ErrAlreadyDecided = errors.New("response already recorded")
	// ErrInvalidDecision is returned for a status that is not a terminal status of the
	// token's purpose.
	ErrInvalidDecision = errors.New("invalid decision for this request")
)

type TokenValidator interface {
	Validate(value string) (*model.TokenSubject, error)
}

// DecisionPublisher forwards accepted decisions downstream.
type DecisionPublisher interface {
	PublishDecision(ctx context.Context, evt *model.DecisionEvent) error
}

type Service struct {
	tokens       TokenValidator
	payments     repository.PaymentRepository
	bookings     repository.BookingRepository
	interviewers repository.InterviewerRepository
	publisher    DecisionPublisher
	metrics      *metrics.Metrics
	log          *logger.Logger
	now          func() time.Time
}

type Option func(*Service)

func WithPublisher(p DecisionPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

func NewService(
	tokens TokenValidator,
	payments repository.PaymentRepository,
	bookings repository.BookingRepository,
	interviewers repository.InterviewerRepository,
	opts ...Option,
) *Service {
	s := &Service{
		tokens:       tokens,
		payments:     payments,
		bookings:     bookings,
		interviewers: interviewers,
		log:          logger.Nop(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchState resolves a token to the current state of its record. It never mutates.
func (s *Service) FetchState(ctx context.Context, value string) (*model.ConfirmationView, error) {
	subject, err := s.validate(value)
	if err != nil {
		return nil, err
	}

	switch subject.Purpose {
	case model.PurposePaymentConfirmation:
		return s.paymentView(ctx, subject.SubjectID)
	case model.PurposeBookingAvailability:
		return s.bookingView(ctx, subject.SubjectID)
	default:
		return nil, token.ErrTokenInvalid
	}
}

// SubmitDecision records the token holder's decision. The first accepted decision wins;
// every later submission for the same record fails with ErrAlreadyDecided.
func (s *Service) SubmitDecision(ctx context.Context, value string, decision model.Decision, remarks *string) (*model.DecisionAck, error) {
	subject, err := s.validate(value)
	if err != nil {
		return nil, err
	}

	remarks = normalizeRemarks(remarks)
	at := s.now().UTC()

	var (
		status  string
		applied bool
	)

	switch subject.Purpose {
	case model.PurposePaymentConfirmation:
		to, err := paymentTarget(decision)
		if err != nil {
			return nil, err
		}
		applied, err = s.payments.Transition(ctx, subject.SubjectID, model.PaymentStatusEmailSent, to, remarks, at)
		if err != nil {
			return nil, s.transitionError(subject, err)
		}
		status = string(to)
	case model.PurposeBookingAvailability:
		to, err := bookingTarget(decision)
		if err != nil {
			return nil, err
		}
		applied, err = s.bookings.TransitionResponse(ctx, subject.SubjectID, model.ResponseStatusPending, to, remarks, at)
		if err != nil {
			return nil, s.transitionError(subject, err)
		}
		status = string(to)
	default:
		return nil, token.ErrTokenInvalid
	}

	if !applied {
		s.countTransition(subject.Purpose, "already_decided")
		return nil, ErrAlreadyDecided
	}
	s.countTransition(subject.Purpose, "applied")

	s.log.Info("confirmation decided",
		"purpose", string(subject.Purpose),
		"subject_id", subject.SubjectID.String(),
		"status", status,
	)

	s.publish(ctx, &model.DecisionEvent{
		Purpose:     subject.Purpose,
		SubjectID:   subject.SubjectID,
		Status:      status,
		Remarks:     remarks,
		RespondedAt: at,
	})

	return &model.DecisionAck{
		Purpose:     subject.Purpose,
		SubjectID:   subject.SubjectID,
		Status:      status,
		RespondedAt: at,
	}, nil
}

func (s *Service) validate(value string) (*model.TokenSubject, error) {
	subject, err := s.tokens.Validate(value)
	if err == nil {
		return subject, nil
	}

	reason := "invalid"
	if errors.Is(err, token.ErrTokenExpired) {
		reason = "expired"
	}
	if s.metrics != nil {
		s.metrics.TokenValidationFailures.WithLabelValues(reason).Inc()
	}
	return nil, err
}

func (s *Service) transitionError(subject *model.TokenSubject, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		s.countTransition(subject.Purpose, "not_found")
		return token.ErrTokenInvalid
	}
	s.countTransition(subject.Purpose, "error")
	return fmt.Errorf("failed to record decision: %w", err)
}

func (s *Service) countTransition(purpose model.TokenPurpose, outcome string) {
	if s.metrics != nil {
		s.metrics.ConfirmationTransitions.WithLabelValues(string(purpose), outcome).Inc()
	}
}

func (s *Service) publish(ctx context.Context, evt *model.DecisionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishDecision(ctx, evt); err != nil {
		s.log.Error(err, "failed to publish decision event",
			"purpose", string(evt.Purpose),
			"subject_id", evt.SubjectID.String(),
		)
	}
}

func (s *Service) paymentView(ctx context.Context, id uuid.UUID) (*model.ConfirmationView, error) {
	rec, err := s.payments.Get(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}

	return &model.ConfirmationView{
		Purpose:         model.PurposePaymentConfirmation,
		Status:          string(rec.Status),
		Decided:         rec.Status.Terminal(),
		InterviewerName: rec.InterviewerName,
		MonthYear:       rec.MonthYear,
		InterviewCount:  rec.InterviewCount,
		TotalAmount:     rec.TotalAmount,
		Remarks:         rec.Remarks,
		RespondedAt:     rec.RespondedAt,
	}, nil
}

func (s *Service) bookingView(ctx context.Context, id uuid.UUID) (*model.ConfirmationView, error) {
	resp, err := s.bookings.GetResponse(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	req, err := s.bookings.GetRequest(ctx, resp.BookingRequestID)
	if err != nil {
		return nil, lookupError(err)
	}
	iv, err := s.interviewers.Get(ctx, resp.InterviewerID)
	if err != nil {
		return nil, lookupError(err)
	}

	start, end := req.SlotStart, req.SlotEnd
	return &model.ConfirmationView{
		Purpose:         model.PurposeBookingAvailability,
		Status:          string(resp.Status),
		Decided:         resp.Status.Terminal(),
		InterviewerName: iv.Name,
		BookingTitle:    req.Title,
		SlotStart:       &start,
		SlotEnd:         &end,
		Remarks:         resp.Remarks,
		RespondedAt:     resp.RespondedAt,
	}, nil
}

// lookupError hides missing records behind the token error so callers cannot probe ids.
func lookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return token.ErrTokenInvalid
	}
	return fmt.Errorf("failed to load confirmation subject: %w", err)
}

func paymentTarget(d model.Decision) (model.PaymentStatus, error) {
	switch d {
	case model.DecisionConfirmed:
		return model.PaymentStatusConfirmed, nil
	case model.DecisionDisputed:
		return model.PaymentStatusDisputed, nil
	}
	return "", ErrInvalidDecision
}

func bookingTarget(d model.Decision) (model.ResponseStatus, error) {
	switch d {
	case model.DecisionAvailable, model.DecisionSubmitted:
		return model.ResponseStatusAvailable, nil
	case model.DecisionNotAvailable:
		return model.ResponseStatusNotAvailable, nil
	}
	return "", ErrInvalidDecision
}

func normalizeRemarks(r *string) *string {
	if r == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*r)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
