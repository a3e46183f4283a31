package logger

import (
	"os"
	"path/filepath"
	"testing"

	"binsorter/internal/config"

	"github.com/stretchr/testify/require"
)

func TestLoggerWritesLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Info("classified %s", "plastic")
	l.Warning("slow detector: %dms", 900)
	l.Error("boom: %v", "bad image")

	info, err := os.ReadFile(filepath.Join(dir, InfoFile))
	require.NoError(t, err)
	require.Contains(t, string(info), "classified plastic")

	warning, err := os.ReadFile(filepath.Join(dir, WarningFile))
	require.NoError(t, err)
	require.Contains(t, string(warning), "slow detector: 900ms")

	errLog, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	require.Contains(t, string(errLog), "boom: bad image")
}

func TestCleanLogs(t *testing.T) {
	dir := t.TempDir()
	l := NewLogger(&config.Config{LogDirectory: dir})
	defer l.Close()

	l.Error("first")
	require.NoError(t, l.CleanLogs(ErrorFile))

	errLog, err := os.ReadFile(filepath.Join(dir, ErrorFile))
	require.NoError(t, err)
	require.Empty(t, errLog)

	require.Error(t, l.CleanLogs("../secrets"))
}
