package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SMMDBTUI_CONFIG", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	require.Equal(t, "https://api.smmdb.net", cfg.API.BaseURL)
	require.Equal(t, 15*time.Second, cfg.API.Timeout)
	require.Equal(t, 10, cfg.Catalog.PageSize)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.Emu.ExtraDirs)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[api]
base_url = "http://localhost:8080"
timeout = "3s"

[catalog]
page_size = 25

[emu]
extra_dirs = ["/games/smm2"]
`), 0o644))
	t.Setenv("SMMDBTUI_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	require.Equal(t, 3*time.Second, cfg.API.Timeout)
	require.Equal(t, 25, cfg.Catalog.PageSize)
	require.Equal(t, []string{"/games/smm2"}, cfg.Emu.ExtraDirs)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.Catalog.PageSize = 40
	cfg.API.Timeout = 5 * time.Second
	require.NoError(t, Save(path, cfg))

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 40, again.Catalog.PageSize)
	require.Equal(t, 5*time.Second, again.API.Timeout)
}

func TestPathPrecedence(t *testing.T) {
	t.Setenv("HOME", "/home/u")
	t.Setenv("SMMDBTUI_CONFIG", "/etc/smmdbtui.toml")
	require.Equal(t, "/x.toml", Path("/x.toml"))
	require.Equal(t, "/etc/smmdbtui.toml", Path(""))
	t.Setenv("SMMDBTUI_CONFIG", "")
	require.Equal(t, "/home/u/.config/smmdbtui/config.toml", Path(""))
}
