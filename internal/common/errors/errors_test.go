package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelExhausted_KeepsLastErrorVerbatim(t *testing.T) {
	last := NewProviderUnavailableError("hf-flux", fmt.Errorf("%s", "402 Payment Required"))
	err := NewChannelExhaustedError("image", last)

	assert.Equal(t, "402 Payment Required", err.Message)
	assert.Equal(t, ErrCodeChannelExhausted, err.Code)
	assert.False(t, err.Retryable)
}

func TestChannelExhausted_NoProviders(t *testing.T) {
	err := NewChannelExhaustedError("video", nil)
	assert.Equal(t, "no providers configured", err.Message)
}

func TestIsCode(t *testing.T) {
	err := NewEmptyPromptError()

	assert.True(t, IsCode(err, ErrCodeEmptyPrompt))
	assert.False(t, IsCode(err, ErrCodeChannelExhausted))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeEmptyPrompt))
	assert.False(t, IsCode(nil, ErrCodeEmptyPrompt))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsCode(wrapped, ErrCodeEmptyPrompt))
}

func TestAsStandard(t *testing.T) {
	std := AsStandard(errors.New("boom"))
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), std.Code)
	assert.Equal(t, "boom", std.Details)

	original := NewRegistryInvalidError("bad schema")
	assert.Same(t, original, AsStandard(original))
}
