package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=admin member"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(sample{Email: "a@example.com"}))
	assert.Equal(t, map[string]string{"email": "email", "role": "oneof"}, Validate(sample{Email: "nope", Role: "owner"}))
	assert.Equal(t, map[string]string{"email": "required"}, Validate(sample{}))
}
