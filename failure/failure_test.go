package failure_test

import (
	"errors"
	"fmt"
	"testing"

	"mindreel/failure"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := failure.New(failure.KindNodeNotFound, "expand", `no node "Intro"`)
	wrapped := fmt.Errorf("step 3: %w", err)

	assert.True(t, errors.Is(wrapped, failure.ErrNodeNotFound))
	assert.False(t, errors.Is(wrapped, failure.ErrDriver))
	assert.Equal(t, failure.KindNodeNotFound, failure.KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("socket closed")
	err := failure.Wrap(failure.KindDriver, "click", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "DRIVER_FAILURE [click]: socket closed", err.Error())
	assert.Equal(t, failure.Kind(""), failure.KindOf(cause))
}
