package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestGetLoggerNeverNil(t *testing.T) {
	assert.NotNil(t, GetLogger())
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(nil))
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(&LogConfig{Level: "debug", Environment: "development", ServiceName: "test"}))
	assert.True(t, GetLogger().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, InitLogger(&LogConfig{Level: "warn", Environment: "production", ServiceName: "test"}))
	assert.False(t, GetLogger().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, GetLogger().Core().Enabled(zapcore.WarnLevel))
}

func TestContextRoundTrip(t *testing.T) {
	l := zap.NewExample()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}
