package validator

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/recruit-api/internal/model"
)

// FieldError represents a validation error
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var messages = map[string]string{
	"required": "Field is required",
	"email":    "Invalid email format",
	"min":      "Value is too short",
	"max":      "Value is too long",
	"gte":      "Value is too small",
	"gtfield":  "Value must be after the start",
	"decision": "Status must be one of Confirmed, Disputed, Available, Submitted, NotAvailable",
}

var registerOnce sync.Once

// Register installs the custom validators on gin's binding engine and reports
// fields by their json names. It is safe to call more than once.
func Register() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("unexpected binding validator engine")
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		err = v.RegisterValidation("decision", validDecision)
	})
	return err
}

func validDecision(fl validator.FieldLevel) bool {
	switch model.Decision(fl.Field().String()) {
	case model.DecisionConfirmed, model.DecisionDisputed,
		model.DecisionAvailable, model.DecisionSubmitted, model.DecisionNotAvailable:
		return true
	}
	return false
}

// FieldErrors flattens a binding error into per-field messages. Errors that are not
// validation failures (malformed JSON) yield a single body error.
func FieldErrors(err error) []FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Field: "body", Message: "Malformed request body"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, e := range verrs {
		msg := messages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}
