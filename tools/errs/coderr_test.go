package errs

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestCodeErrorMatchingByCode(t *testing.T) {
	detailed := ErrChannelNotFound.WithDetail("channel x")
	assert.True(t, ErrChannelNotFound.Is(detailed))
	assert.False(t, ErrPayloadTooLarge.Is(detailed))

	wrapped := errors.Wrap(ErrChannelNotFound.WrapMsg("channel %s", "y"), "routing")
	assert.True(t, ErrChannelNotFound.Is(wrapped))
	assert.Equal(t, CodeChannelNotFound, Code(wrapped))
}

func TestCodeOfPlainError(t *testing.T) {
	assert.Zero(t, Code(errors.New("plain")))
	assert.Zero(t, Code(nil))
}

func TestWithDetailDoesNotMutate(t *testing.T) {
	before := ErrPersistenceFailure.Error()
	_ = ErrPersistenceFailure.WithDetail("mongo timeout")
	assert.Equal(t, before, ErrPersistenceFailure.Error())
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrBadCredential, http.StatusUnauthorized},
		{ErrUserNotFound, http.StatusNotFound},
		{ErrChannelNotFound, http.StatusNotFound},
		{ErrUserExists, http.StatusConflict},
		{ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{ErrBadRequest, http.StatusBadRequest},
		{errors.New("anything else"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err))
	}
}

func TestAsCodeErrorHidesDetail(t *testing.T) {
	ce := AsCodeError(ErrUserExists.WithDetail("email=x@y"))
	assert.Equal(t, CodeUserExists, ce.Code)
	assert.Empty(t, ce.Detail)

	generic := AsCodeError(errors.New("driver: broken pipe"))
	assert.Equal(t, CodePersistenceFailure, generic.Code)
	assert.Equal(t, "internal error", generic.Msg)
}
