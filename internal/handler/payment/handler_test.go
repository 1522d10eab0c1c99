package payment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recruit-api/internal/model"
	paymentService "github.com/jwalitptl/recruit-api/internal/service/payment"
	"github.com/jwalitptl/recruit-api/pkg/validator"
)

type stubService struct {
	records  []*model.ConfirmationRecord
	err      error
	gotMonth string
	gotBatch *model.DispatchPaymentBatchRequest
}

func (s *stubService) DispatchBatch(ctx context.Context, in *model.DispatchPaymentBatchRequest) ([]*model.ConfirmationRecord, error) {
	s.gotBatch = in
	return s.records, s.err
}

func (s *stubService) List(ctx context.Context, monthYear string) ([]*model.ConfirmationRecord, error) {
	s.gotMonth = monthYear
	return s.records, s.err
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

func TestDispatchBatch(t *testing.T) {
	svc := &stubService{records: []*model.ConfirmationRecord{{MonthYear: "2024-05", Status: model.PaymentStatusEmailSent}}}
	r := setup(t, svc)

	body := `{"month_year":"2024-05","lines":[{"interviewer_id":"3f1c6d0e-8f4b-4a51-9a43-0d7c7b1e2a10","interview_count":4,"total_amount":200}]}`
	w := serve(r, http.MethodPost, "/api/v1/payments/batches", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"EmailSent"`)
	require.Len(t, svc.gotBatch.Lines, 1)
	assert.Equal(t, 4, svc.gotBatch.Lines[0].InterviewCount)
}

func TestDispatchBatch_Validation(t *testing.T) {
	r := setup(t, &stubService{})

	for name, body := range map[string]string{
		"no lines":        `{"month_year":"2024-05","lines":[]}`,
		"negative amount": `{"month_year":"2024-05","lines":[{"interviewer_id":"3f1c6d0e-8f4b-4a51-9a43-0d7c7b1e2a10","total_amount":-1}]}`,
		"missing month":   `{"lines":[{"interviewer_id":"3f1c6d0e-8f4b-4a51-9a43-0d7c7b1e2a10"}]}`,
	} {
		w := serve(r, http.MethodPost, "/api/v1/payments/batches", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
}

func TestServiceErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{paymentService.ErrInvalidMonth, http.StatusBadRequest},
		{fmt.Errorf("%w: x", paymentService.ErrUnknownInterviewers), http.StatusBadRequest},
		{paymentService.ErrDuplicateLine, http.StatusBadRequest},
		{paymentService.ErrAlreadyDispatched, http.StatusConflict},
		{fmt.Errorf("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		r := setup(t, &stubService{err: tt.err})
		w := serve(r, http.MethodGet, "/api/v1/payments?month_year=2024-13", "")
		assert.Equal(t, tt.status, w.Code, tt.err.Error())
	}
}

func TestList(t *testing.T) {
	svc := &stubService{records: []*model.ConfirmationRecord{}}
	r := setup(t, svc)

	w := serve(r, http.MethodGet, "/api/v1/payments?month_year=2024-05", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-05", svc.gotMonth)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())
}
