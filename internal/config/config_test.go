package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromPath_WithValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.yaml")

	configContent := `
store:
  root: "/var/tasks"
  retention_days: 7
safety:
  strict_writes: false
  max_array_length: 50
sync:
  enabled: true
  command: "sync-tool"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfigFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/var/tasks", cfg.Store.Root)
	assert.Equal(t, 7, cfg.Store.RetentionDays)
	assert.False(t, cfg.Safety.StrictWrites)
	assert.Equal(t, 50, cfg.Safety.MaxArrayLength)
	assert.True(t, cfg.Sync.Enabled)
	assert.Equal(t, "sync-tool", cfg.Sync.Command)
}

func TestLoadConfigFromPath_NonExistentFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := LoadConfigFromPath(configPath)
	require.NoError(t, err)

	assert.Equal(t, DefaultStoreRoot, cfg.Store.Root)
	assert.True(t, cfg.Safety.StrictWrites)
	assert.False(t, cfg.Sync.Enabled)
}

func TestLoadConfigFromPath_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidContent := `
store: [invalid
`
	err := os.WriteFile(configPath, []byte(invalidContent), 0644)
	require.NoError(t, err)

	_, err = LoadConfigFromPath(configPath)
	assert.Error(t, err)
}

func TestLoadConfigWithFile_WithConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "my-config.yaml")

	configContent := `
store:
  root: "/srv/tasks"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := LoadConfigWithFile(tmpDir, configPath)
	require.NoError(t, err)

	assert.Equal(t, "/srv/tasks", cfg.Store.Root)
}

func TestLoadConfigWithFile_GlobalFallback(t *testing.T) {
	globalDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", globalDir)
	globalPath := filepath.Join(globalDir, "taskengine", "config.yaml")
	require.NoError(t, os.MkdirAll(filepath.Dir(globalPath), 0755))
	require.NoError(t, os.WriteFile(globalPath, []byte("store:\n  root: \"/global/tasks\"\n"), 0644))

	cfg, err := LoadConfigWithFile(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, "/global/tasks", cfg.Store.Root)
}

func TestLoadConfigWithFile_NoConfigDefaults(t *testing.T) {
	globalDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", globalDir)

	cfg, err := LoadConfigWithFile(t.TempDir(), "")
	require.NoError(t, err)

	assert.Equal(t, DefaultStoreRoot, cfg.Store.Root)
}

func TestConfig_SafetyDefaults(t *testing.T) {
	t.Run("strict writes enabled by default", func(t *testing.T) {
		cfg, err := LoadConfigWithFile(t.TempDir(), "")
		require.NoError(t, err)

		assert.True(t, cfg.Safety.StrictWrites)
		assert.Equal(t, DefaultMaxArrayLength, cfg.Safety.MaxArrayLength)
	})

	t.Run("strict writes can be disabled with a custom array limit", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "taskengine.yaml")

		configContent := `
safety:
  strict_writes: false
  max_array_length: 10
`
		err := os.WriteFile(configPath, []byte(configContent), 0644)
		require.NoError(t, err)

		cfg, err := LoadConfigFromPath(configPath)
		require.NoError(t, err)

		assert.False(t, cfg.Safety.StrictWrites)
		assert.Equal(t, 10, cfg.Safety.MaxArrayLength)
	})
}
