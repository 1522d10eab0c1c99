package booking

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/model"
	bookingService "github.com/jwalitptl/recruit-api/internal/service/booking"
	apperrors "github.com/jwalitptl/recruit-api/pkg/errors"
	"github.com/jwalitptl/recruit-api/pkg/httputil"
)

type Service interface {
	CreateRequest(ctx context.Context, in *model.CreateBookingRequest) (*model.BookingRequest, error)
	Summarize(ctx context.Context, bookingRequestID uuid.UUID) (*model.BookingRequestSummary, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	bookings := r.Group("/bookings")
	{
		bookings.POST("", h.CreateRequest)
		bookings.GET("/:id/responses", h.ListResponses)
	}
}

func (h *Handler) CreateRequest(c *gin.Context) {
	var req model.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	created, err := h.service.CreateRequest(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, bookingService.ErrUnknownInterviewers), errors.Is(err, bookingService.ErrInvalidSlot):
			err = apperrors.BadRequest(err.Error(), err)
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, created)
}

func (h *Handler) ListResponses(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid booking request ID", err))
		return
	}

	summary, err := h.service.Summarize(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, bookingService.ErrRequestNotFound) {
			err = apperrors.NotFound("booking request", err)
		}
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, summary)
}
