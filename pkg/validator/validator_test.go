package validator

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/recruit-api/internal/model"
)

func TestDecisionValidator(t *testing.T) {
	require.NoError(t, Register())
	require.NoError(t, Register())

	for _, status := range []string{"Confirmed", "Disputed", "Available", "Submitted", "NotAvailable"} {
		req := model.SubmitDecisionRequest{Token: "t", Status: status}
		assert.NoError(t, binding.Validator.ValidateStruct(&req), status)
	}

	req := model.SubmitDecisionRequest{Token: "t", Status: "Maybe"}
	err := binding.Validator.ValidateStruct(&req)
	require.Error(t, err)

	fields := FieldErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "status", fields[0].Field)
	assert.Contains(t, fields[0].Message, "Confirmed")
}

func TestFieldErrors_RequiredAndLength(t *testing.T) {
	require.NoError(t, Register())

	long := make([]byte, 2001)
	for i := range long {
		long[i] = 'x'
	}
	remarks := string(long)
	req := model.SubmitDecisionRequest{Status: "Confirmed", Remarks: &remarks}

	fields := FieldErrors(binding.Validator.ValidateStruct(&req))
	require.Len(t, fields, 2)
	assert.Equal(t, FieldError{Field: "token", Message: "Field is required"}, fields[0])
	assert.Equal(t, FieldError{Field: "remarks", Message: "Value is too long"}, fields[1])
}

func TestFieldErrors_NotValidation(t *testing.T) {
	fields := FieldErrors(errors.New("unexpected EOF"))
	assert.Equal(t, []FieldError{{Field: "body", Message: "Malformed request body"}}, fields)
}
