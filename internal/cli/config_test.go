package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "lenient", cfg.Policy)
	assert.Empty(t, cfg.Signatures)
	assert.Equal(t, "dev", cfg.Log.Env)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Empty(t, cfg.Store.Path)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("IQL_POLICY", "strict")
	t.Setenv("IQL_LOG_LEVEL", "debug")
	t.Setenv("IQL_STORE_PATH", "/tmp/eval.db")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "strict", cfg.Policy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/eval.db", cfg.Store.Path)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`policy: strict
signatures: people.yaml
log:
  env: prod
store:
  path: journal.db
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "strict", cfg.Policy)
	assert.Equal(t, "people.yaml", cfg.Signatures)
	assert.Equal(t, "prod", cfg.Log.Env)
	assert.Equal(t, "warn", cfg.Log.Level, "unset keys keep their defaults")
	assert.Equal(t, "journal.db", cfg.Store.Path)
}

func TestLoadConfig_EnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy: strict\n"), 0644))
	t.Setenv("IQL_POLICY", "lenient")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "lenient", cfg.Policy)
}

func TestLoadConfig_InvalidPolicy(t *testing.T) {
	t.Setenv("IQL_POLICY", "paranoid")

	_, err := LoadConfig("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config key policy")
	assert.Contains(t, err.Error(), `"paranoid"`)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestSignaturePath(t *testing.T) {
	path, err := signaturePath("flag.yaml", &Config{Signatures: "config.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "flag.yaml", path)

	path, err = signaturePath("", &Config{Signatures: "config.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", path)

	_, err = signaturePath("", &Config{})
	assert.ErrorIs(t, err, errNoSignatures)
}
