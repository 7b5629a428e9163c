package tts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewTTSService(t *testing.T) {
	logger := zap.NewNop()

	service, err := NewTTSService(Config{Provider: "custom"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "custom", service.GetName())

	service, err = NewTTSService(Config{Provider: "piper", PiperURL: "http://piper:5000"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "piper", service.GetName())

	_, err = NewTTSService(Config{Provider: "espeak"}, logger)
	assert.Error(t, err)
}
