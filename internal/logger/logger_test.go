package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithModuleTagsEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Set(zap.New(core))
	t.Cleanup(func() { Set(nil) })

	WithModule("moderation").Info("account blocked", zap.String("account_id", "abc"))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "account blocked", entries[0].Message)
	require.Equal(t, "moderation", entries[0].ContextMap()["module"])
	require.Equal(t, "abc", entries[0].ContextMap()["account_id"])
}

func TestInitFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init("nonsense", "production"))
	t.Cleanup(func() { Set(nil) })

	require.False(t, L().Core().Enabled(zap.DebugLevel))
	require.True(t, L().Core().Enabled(zap.InfoLevel))
}
