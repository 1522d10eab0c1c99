package confirmation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/recruit-api/internal/model"
	confirmationService "github.com/jwalitptl/recruit-api/internal/service/confirmation"
	"github.com/jwalitptl/recruit-api/internal/service/token"
	apperrors "github.com/jwalitptl/recruit-api/pkg/errors"
	"github.com/jwalitptl/recruit-api/pkg/httputil"
)

const (
	MsgLinkInvalid    = "This link is invalid or has expired."
	MsgAlreadyDecided = "Your response has already been recorded."
)

type Service interface {
	FetchState(ctx context.Context, token string) (*model.ConfirmationView, error)
	SubmitDecision(ctx context.Context, token string, decision model.Decision, remarks *string) (*model.DecisionAck, error)
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	confirm := r.Group("/confirm")
	{
		confirm.GET("", h.GetState)
		confirm.POST("", h.SubmitDecision)
	}
}

func (h *Handler) GetState(c *gin.Context) {
	view, err := h.service.FetchState(c.Request.Context(), c.Query("token"))
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, view)
}

func (h *Handler) SubmitDecision(c *gin.Context) {
	var req model.SubmitDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	ack, err := h.service.SubmitDecision(c.Request.Context(), req.Token, model.Decision(req.Status), req.Remarks)
	if err != nil {
		httputil.RespondWithError(c, mapError(err))
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, ack)
}

// Expired and invalid tokens are reported identically.
func mapError(err error) error {
	switch {
	case errors.Is(err, token.ErrTokenInvalid), errors.Is(err, token.ErrTokenExpired):
		return apperrors.Gone(MsgLinkInvalid, err)
	case errors.Is(err, confirmationService.ErrAlreadyDecided):
		return apperrors.Conflict(MsgAlreadyDecided, err)
	case errors.Is(err, confirmationService.ErrInvalidDecision):
		return apperrors.BadRequest(confirmationService.ErrInvalidDecision.Error(), err)
	}
	return err
}
