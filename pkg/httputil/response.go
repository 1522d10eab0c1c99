package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/recruit-api/pkg/errors"
	"github.com/jwalitptl/recruit-api/pkg/validator"
)

// Response wraps all API responses
type Response struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    interface{}            `json:"data,omitempty"`
	Errors  []validator.FieldError `json:"errors,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// RespondWithError sends an error response. Errors that are not an AppError are
// reported as internal errors without leaking their text.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal(err)
	}
	if appErr.Code == errors.ErrInternal {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(appErr.StatusCode(), NewErrorResponse(appErr.Message))
}

// RespondWithBindError sends a 400 listing the fields that failed validation.
func RespondWithBindError(c *gin.Context, err error) {
	resp := NewErrorResponse("invalid request")
	resp.Errors = validator.FieldErrors(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
