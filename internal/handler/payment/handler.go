package payment

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/recruit-api/internal/model"
	paymentService "github.com/jwalitptl/recruit-api/internal/service/payment"
	apperrors "github.com/jwalitptl/recruit-api/pkg/errors"
	"github.com/jwalitptl/recruit-api/pkg/httputil"
)

type Service interface {
	DispatchBatch(ctx context.Context, in *model.DispatchPaymentBatchRequest) ([]*model.ConfirmationRecord, error)
	List(ctx context.Context, monthYear string) ([]*model.ConfirmationRecord, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	payments := r.Group("/payments")
	{
		payments.POST("/batches", h.DispatchBatch)
		payments.GET("", h.List)
	}
}

func (h *Handler) DispatchBatch(c *gin.Context) {
	var req model.DispatchPaymentBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	records, err := h.service.DispatchBatch(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, records)
}

func (h *Handler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), c.Query("month_year"))
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, paymentService.ErrInvalidMonth),
		errors.Is(err, paymentService.ErrUnknownInterviewers),
		errors.Is(err, paymentService.ErrDuplicateLine):
		return apperrors.BadRequest(err.Error(), err)
	case errors.Is(err, paymentService.ErrAlreadyDispatched):
		return apperrors.Conflict(err.Error(), err)
	}
	return err
}
