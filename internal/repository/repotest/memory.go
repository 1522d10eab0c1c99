// Package repotest provides in-memory repository implementations for tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/repository"
)

// Store backs every repository with one mutex so transitions behave like a
// conditional UPDATE.
type Store struct {
	mu           sync.Mutex
	payments     map[uuid.UUID]*model.ConfirmationRecord
	requests     map[uuid.UUID]*model.BookingRequest
	responses    map[uuid.UUID]*model.InterviewerResponse
	interviewers map[uuid.UUID]*model.Interviewer
	outbox       []*model.OutboxEvent

	// Err, when set, is returned by every write.
	Err error
}

func NewStore() *Store {
	return &Store{
		payments:     make(map[uuid.UUID]*model.ConfirmationRecord),
		requests:     make(map[uuid.UUID]*model.BookingRequest),
		responses:    make(map[uuid.UUID]*model.InterviewerResponse),
		interviewers: make(map[uuid.UUID]*model.Interviewer),
	}
}

func (s *Store) Payments() repository.PaymentRepository         { return (*payments)(s) }
func (s *Store) Bookings() repository.BookingRepository         { return (*bookings)(s) }
func (s *Store) Interviewers() repository.InterviewerRepository { return (*interviewers)(s) }

// AddInterviewer seeds an interviewer and returns it.
func (s *Store) AddInterviewer(name, email, phone string, push bool) *model.Interviewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv := &model.Interviewer{Name: name, Email: email, Phone: phone, PushEnabled: push}
	iv.ID = uuid.New()
	s.interviewers[iv.ID] = iv
	return iv
}

// AddPayment seeds a payment record.
func (s *Store) AddPayment(rec *model.ConfirmationRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	s.payments[rec.ID] = rec
}

// AddResponse seeds a response and its request.
func (s *Store) AddResponse(req *model.BookingRequest, resp *model.InterviewerResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	resp.BookingRequestID = req.ID
	s.requests[req.ID] = req
	s.responses[resp.ID] = resp
}

// Outbox returns a snapshot of enqueued outbox events.
func (s *Store) Outbox() []*model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*model.OutboxEvent(nil), s.outbox...)
}

type payments Store

func (r *payments) CreateBatch(ctx context.Context, records []*model.ConfirmationRecord, events []*model.OutboxEvent) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	for _, rec := range records {
		for _, existing := range s.payments {
			if existing.MonthYear == rec.MonthYear && existing.InterviewerID == rec.InterviewerID {
				return repository.ErrDuplicate
			}
		}
	}
	for _, rec := range records {
		cp := *rec
		s.payments[rec.ID] = &cp
	}
	s.outbox = append(s.outbox, events...)
	return nil
}

func (r *payments) Get(ctx context.Context, id uuid.UUID) (*model.ConfirmationRecord, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *payments) ListByMonth(ctx context.Context, monthYear string) ([]*model.ConfirmationRecord, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ConfirmationRecord
	for _, rec := range s.payments {
		if rec.MonthYear == monthYear {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InterviewerName < out[j].InterviewerName })
	return out, nil
}

func (r *payments) Transition(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, remarks *string, at time.Time) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	rec, ok := s.payments[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if rec.Status != from {
		return false, nil
	}
	rec.Status = to
	rec.Remarks = remarks
	rec.RespondedAt = &at
	rec.UpdatedAt = at
	return true, nil
}

type bookings Store

func (r *bookings) CreateRequest(ctx context.Context, req *model.BookingRequest, responses []*model.InterviewerResponse, events []*model.OutboxEvent) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	cp := *req
	s.requests[req.ID] = &cp
	for _, resp := range responses {
		rc := *resp
		s.responses[resp.ID] = &rc
	}
	s.outbox = append(s.outbox, events...)
	return nil
}

func (r *bookings) GetRequest(ctx context.Context, id uuid.UUID) (*model.BookingRequest, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *bookings) GetResponse(ctx context.Context, id uuid.UUID) (*model.InterviewerResponse, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.responses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *resp
	return &cp, nil
}

func (r *bookings) ListResponseViews(ctx context.Context, bookingRequestID uuid.UUID) ([]*model.InterviewerResponseView, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.InterviewerResponseView
	for _, resp := range s.responses {
		if resp.BookingRequestID != bookingRequestID {
			continue
		}
		v := &model.InterviewerResponseView{
			ResponseID:    resp.ID,
			InterviewerID: resp.InterviewerID,
			Status:        resp.Status,
			Remarks:       resp.Remarks,
			RespondedAt:   resp.RespondedAt,
		}
		if iv, ok := s.interviewers[resp.InterviewerID]; ok {
			v.Name = iv.Name
			v.Email = iv.Email
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *bookings) TransitionResponse(ctx context.Context, id uuid.UUID, from, to model.ResponseStatus, remarks *string, at time.Time) (bool, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	resp, ok := s.responses[id]
	if !ok {
		return false, repository.ErrNotFound
	}
	if resp.Status != from {
		return false, nil
	}
	resp.Status = to
	resp.Remarks = remarks
	resp.RespondedAt = &at
	resp.UpdatedAt = at
	return true, nil
}

type interviewers Store

func (r *interviewers) Get(ctx context.Context, id uuid.UUID) (*model.Interviewer, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviewers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *iv
	return &cp, nil
}

func (r *interviewers) GetMany(ctx context.Context, ids []uuid.UUID) ([]*model.Interviewer, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Interviewer
	for _, id := range ids {
		if iv, ok := s.interviewers[id]; ok {
			cp := *iv
			out = append(out, &cp)
		}
	}
	return out, nil
}
