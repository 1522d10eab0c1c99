package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	bookingHandler "github.com/jwalitptl/recruit-api/internal/handler/booking"
	confirmationHandler "github.com/jwalitptl/recruit-api/internal/handler/confirmation"
	"github.com/jwalitptl/recruit-api/internal/handler/health"
	paymentHandler "github.com/jwalitptl/recruit-api/internal/handler/payment"
	promHandler "github.com/jwalitptl/recruit-api/internal/handler/prometheus"
	pushHandler "github.com/jwalitptl/recruit-api/internal/handler/push"
	"github.com/jwalitptl/recruit-api/internal/middleware"
	"github.com/jwalitptl/recruit-api/internal/push"
	"github.com/jwalitptl/recruit-api/internal/push/hub"
	"github.com/jwalitptl/recruit-api/internal/repository/repotest"
	"github.com/jwalitptl/recruit-api/internal/service/booking"
	"github.com/jwalitptl/recruit-api/internal/service/confirmation"
	"github.com/jwalitptl/recruit-api/internal/service/event"
	"github.com/jwalitptl/recruit-api/internal/service/payment"
	"github.com/jwalitptl/recruit-api/internal/service/token"
	"github.com/jwalitptl/recruit-api/pkg/auth"
	"github.com/jwalitptl/recruit-api/pkg/logger"
	"github.com/jwalitptl/recruit-api/pkg/metrics"
	"github.com/jwalitptl/recruit-api/pkg/validator"
)

type testEnv struct {
	engine *gin.Engine
	store  *repotest.Store
	jwt    auth.JWTService
}

func newTestEnv(t *testing.T, burst int) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validator.Register())

	log := logger.Nop()
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics("recruit", reg)

	tokens, err := token.NewService(token.Config{Secret: "router-test-secret-0123456789abcdef!!"})
	require.NoError(t, err)
	store := repotest.NewStore()
	issuer := event.NewIssuer(event.IssuerConfig{PublicURL: "https://ops.example.com"})

	origin, err := url.Parse("https://ops.example.com")
	require.NoError(t, err)
	h := hub.New(hub.Config{})
	subscriber := push.NewSubscriber(nil, h, origin, 1, log, m)

	jwtSvc := auth.NewJWTService("admin-secret", "recruit-api", time.Hour)
	r := NewRouter(middleware.NewAuthMiddleware(jwtSvc), Handlers{
		Health: health.NewHandler(map[string]health.Pinger{
			"database": health.PingerFunc(func(ctx context.Context) error { return nil }),
		}),
		Confirmation: confirmationHandler.NewHandler(confirmation.NewService(
			tokens, store.Payments(), store.Bookings(), store.Interviewers(),
			confirmation.WithMetrics(m), confirmation.WithLogger(log),
		)),
		Payment: paymentHandler.NewHandler(payment.NewService(store.Payments(), store.Interviewers(), tokens, issuer, log)),
		Booking: bookingHandler.NewHandler(booking.NewService(store.Bookings(), store.Interviewers(), tokens, issuer, log)),
		Push:    pushHandler.NewHandler(h, subscriber, time.Minute),
	}, log, RouterConfig{
		RateLimitEnabled: true,
		RateLimit:        rate.Every(time.Hour),
		RateBurst:        burst,
		CORSConfig:       middleware.DefaultCORSConfig(),
		Timeout:          middleware.DefaultTimeoutConfig(),
		Metrics:          promHandler.New(reg, m),
	})
	r.Setup()

	return &testEnv{engine: r.Engine(), store: store, jwt: jwtSvc}
}

func (e *testEnv) do(t *testing.T, method, target, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	tok, err := e.jwt.GenerateAccessToken(uuid.New(), "someone@example.com", role)
	require.NoError(t, err)
	return tok
}

func TestPaymentConfirmationFlow(t *testing.T) {
	env := newTestEnv(t, 100)
	iv := env.store.AddInterviewer("Asha Rao", "asha@example.com", "", false)
	admin := env.token(t, auth.RoleAdmin)

	body := `{"month_year":"2024-05","lines":[{"interviewer_id":"` + iv.ID.String() + `","interview_count":3,"total_amount":4500}]}`
	w := env.do(t, http.MethodPost, "/api/v1/payments/batches", body, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/payments/batches", body, admin)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	events := env.store.Outbox()
	require.Len(t, events, 1)
	job, err := event.DecodeDispatchJob(events[0])
	require.NoError(t, err)
	link, err := url.Parse(job.Intent.ActionLink)
	require.NoError(t, err)
	confirmToken := link.Query().Get("token")
	require.NotEmpty(t, confirmToken)

	w = env.do(t, http.MethodGet, "/api/v1/confirm?token="+url.QueryEscape(confirmToken), "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"EmailSent"`)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	decision := `{"token":"` + confirmToken + `","status":"Confirmed"}`
	w = env.do(t, http.MethodPost, "/api/v1/confirm", decision, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/confirm", decision, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/payments?month_year=2024-05", "", admin)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Data []struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "Confirmed", listed.Data[0].Status)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newTestEnv(t, 100)

	w := env.do(t, http.MethodGet, "/api/v1/payments?month_year=2024-05", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/bookings/"+uuid.NewString()+"/responses", "", env.token(t, "interviewer"))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConfirmIsRateLimited(t *testing.T) {
	env := newTestEnv(t, 2)

	for i := 0; i < 2; i++ {
		w := env.do(t, http.MethodGet, "/api/v1/confirm?token=nope", "", "")
		assert.Equal(t, http.StatusGone, w.Code)
	}
	w := env.do(t, http.MethodGet, "/api/v1/confirm?token=nope", "", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// health is outside the public limiter
	w = env.do(t, http.MethodGet, "/api/v1/health/live", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 100)

	env.do(t, http.MethodGet, "/api/v1/health/ready", "", "")
	w := env.do(t, http.MethodGet, "/api/v1/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `recruit_http_request_duration_seconds_count{method="GET",route="/api/v1/health/ready",status="200"} 1`)
}
