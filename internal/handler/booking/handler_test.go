package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recruit-api/internal/model"
	bookingService "github.com/jwalitptl/recruit-api/internal/service/booking"
	"github.com/jwalitptl/recruit-api/pkg/validator"
)

type stubService struct {
	created *model.BookingRequest
	summary *model.BookingRequestSummary
	err     error
	gotID   uuid.UUID
}

func (s *stubService) CreateRequest(ctx context.Context, in *model.CreateBookingRequest) (*model.BookingRequest, error) {
	return s.created, s.err
}

func (s *stubService) Summarize(ctx context.Context, id uuid.UUID) (*model.BookingRequestSummary, error) {
	s.gotID = id
	return s.summary, s.err
}

func setup(t *testing.T, svc Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.Register())
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func serve(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validBody = `{
	"title": "Backend loop",
	"slot_start": "2024-06-03T10:00:00Z",
	"slot_end": "2024-06-03T11:00:00Z",
	"interviewer_ids": ["3f1c6d0e-8f4b-4a51-9a43-0d7c7b1e2a10"]
}`

func TestCreateRequest(t *testing.T) {
	created := &model.BookingRequest{Title: "Backend loop"}
	r := setup(t, &stubService{created: created})

	w := serve(r, http.MethodPost, "/api/v1/bookings", validBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"title":"Backend loop"`)
}

func TestCreateRequest_Validation(t *testing.T) {
	r := setup(t, &stubService{})

	inverted := `{
		"title": "Backend loop",
		"slot_start": "2024-06-03T11:00:00Z",
		"slot_end": "2024-06-03T10:00:00Z",
		"interviewer_ids": ["3f1c6d0e-8f4b-4a51-9a43-0d7c7b1e2a10"]
	}`
	noInterviewers := `{
		"title": "Backend loop",
		"slot_start": "2024-06-03T10:00:00Z",
		"slot_end": "2024-06-03T11:00:00Z",
		"interviewer_ids": []
	}`

	for name, body := range map[string]string{"inverted slot": inverted, "no interviewers": noInterviewers} {
		w := serve(r, http.MethodPost, "/api/v1/bookings", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestCreateRequest_UnknownInterviewers(t *testing.T) {
	r := setup(t, &stubService{err: bookingService.ErrUnknownInterviewers})

	w := serve(r, http.MethodPost, "/api/v1/bookings", validBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListResponses(t *testing.T) {
	id := uuid.New()
	svc := &stubService{summary: &model.BookingRequestSummary{
		BookingRequestID: id,
		Responses:        []*model.InterviewerResponseView{},
		Pending:          2,
		Available:        1,
	}}
	r := setup(t, svc)

	w := serve(r, http.MethodGet, "/api/v1/bookings/"+id.String()+"/responses", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, svc.gotID)

	var env struct {
		Data model.BookingRequestSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Data.Pending)
	assert.Equal(t, 1, env.Data.Available)
	assert.NotNil(t, env.Data.Responses)
}

func TestListResponses_Errors(t *testing.T) {
	r := setup(t, &stubService{err: bookingService.ErrRequestNotFound})

	w := serve(r, http.MethodGet, "/api/v1/bookings/"+uuid.NewString()+"/responses", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(r, http.MethodGet, "/api/v1/bookings/not-a-uuid/responses", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
