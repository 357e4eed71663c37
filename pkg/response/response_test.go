package response

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestValidationErrorResponse(t *testing.T) {
	t.Run("non-validation error", func(t *testing.T) {
		resp := ValidationErrorResponse(errors.New("unknown error"))

		assert.Equal(t, StatusError, resp.Status)
		assert.Empty(t, resp.Details)
	})

	t.Run("validation errors expand into details", func(t *testing.T) {
		type payload struct {
			URL   string `validate:"required,url"`
			Hours int    `validate:"omitempty,gt=0"`
		}

		err := validator.New().Struct(payload{URL: "invalid url", Hours: -1})
		assert.Error(t, err)

		resp := ValidationErrorResponse(err)

		assert.Equal(t, StatusError, resp.Status)
		assert.Len(t, resp.Details, 2)
	})
}
