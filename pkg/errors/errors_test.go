package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundNamesResource(t *testing.T) {
	err := NotFound("ChatRoom", nil)

	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "ChatRoom not found", err.Message)
	assert.Equal(t, http.StatusNotFound, err.Status)
}

func TestIsMatchesWrappedAppError(t *testing.T) {
	cause := stderrors.New("boom")
	wrapped := fmt.Errorf("load room: %w", Internal("Failed to get chat room", cause))

	assert.True(t, Is(wrapped, CodeInternal))
	assert.False(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(cause, CodeInternal))
	assert.ErrorIs(t, wrapped, cause)
}

func TestErrorStringIncludesCause(t *testing.T) {
	assert.Equal(t, "BAD_REQUEST: cannot chat with yourself", BadRequest("cannot chat with yourself", nil).Error())
	assert.Equal(t, "INTERNAL_ERROR: save failed: disk full", Internal("save failed", stderrors.New("disk full")).Error())
}
