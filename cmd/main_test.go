package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/a-powelson/Ryu-Firewall/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggingFailsOnUnusableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := setupLogging(config.LogConfig{Dir: filepath.Join(blocker, "logs"), Level: "info"})
	assert.ErrorContains(t, err, "create log dir")
}
