package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_WritesDefaultConfigWhenMissing(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	req.NoError(err)
	req.Equal(path, resolved)
	req.Equal(Default(), cfg)

	_, statErr := os.Stat(path)
	req.NoError(statErr, "default config should be written to disk")
}

func TestLoad_FileValuesOverrideDefaults(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":4000\"\ncredentials_path: /etc/chatd/users.txt\nread_buffer_size: 256\nshutdown_timeout: 2s\n"
	req.NoError(os.WriteFile(path, []byte(content), 0o600))

	cfg, _, err := Load(nil, path)
	req.NoError(err)
	req.Equal(":4000", cfg.Addr)
	req.Equal("/etc/chatd/users.txt", cfg.CredentialsPath)
	req.Equal(256, cfg.ReadBufferSize)
	req.Equal(2*time.Second, cfg.ShutdownTimeout)
	req.Equal(Default().HTTPAddr, cfg.HTTPAddr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	req.NoError(os.WriteFile(path, []byte("addr: \":4000\"\n"), 0o600))
	t.Setenv("CHATD_ADDR", ":5000")

	cfg, _, err := Load(nil, path)
	req.NoError(err)
	req.Equal(":5000", cfg.Addr)
}

func TestLoad_RejectsNonPositiveBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("read_buffer_size: 0\n"), 0o600))

	_, _, err := Load(nil, path)
	require.Error(t, err)
}

func TestUpdateFrom_OnlyNonZero(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1", LogLevel: "debug"})

	require.Equal(t, ":1", cfg.Addr)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, Default().CredentialsPath, cfg.CredentialsPath)
	require.Equal(t, Default().ShutdownTimeout, cfg.ShutdownTimeout)
}
