package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("op", nil))

	base := errors.New("connection reset")
	err := Wrap("find user", base)
	assert.EqualError(t, err, "repository: find user: connection reset")
	assert.ErrorIs(t, err, base)

	assert.Same(t, err, Wrap("outer", err), "an existing *Error is not re-wrapped")
}

func TestSentinels(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("find file")))
	assert.False(t, IsDuplicate(NotFound("find file")))

	dup := Duplicate("insert user", errors.New("UNIQUE constraint failed: users.email"))
	assert.True(t, IsDuplicate(dup))
	assert.Contains(t, dup.Error(), "users.email")
}
