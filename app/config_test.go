package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_ids: [42]
coingecko:
  vs_currency: usd
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, StorageMemory, cfg.Storage.Backend)
	require.Equal(t, "longpoll", cfg.Core.Telegram.RunMode)
	require.True(t, cfg.Core.Telegram.IsAdmin(42))
	require.False(t, cfg.Core.Telegram.IsAdmin(43))
	require.NotNil(t, cfg.CoreConfig())
}

func TestLoadConfigPostgresRequiresDatabase(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
storage:
  backend: postgres
`)

	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "database.host")
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
storage:
  backend: redis
`)

	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "storage.backend")
}

func TestLoadConfigRequiresToken(t *testing.T) {
	path := writeConfig(t, `
telegram:
  run_mode: longpoll
`)

	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "token")
}
