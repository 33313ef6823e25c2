package log_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/cosmos/voyager-eureka/internal/log"
)

func TestNewBuildsLoggerAtRequestedLevel(t *testing.T) {
	logger, err := log.New("warn", false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewDevConfigEnablesDebugWhenRequested(t *testing.T) {
	logger, err := log.New("debug", true)
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := log.New("not-a-level", false)
	require.Error(t, err)
}
