package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Defaults(t *testing.T) {
	cfg, err := Build("", nil)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, log.InfoLevel, cfg.Level())
	assert.True(t, cfg.YNAB.UseCustomID)
	assert.False(t, cfg.YNABEnabled())
}

func TestBuild_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "financas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: debug
user_id: 3
server:
  port: "8080"
ynab:
  budget_id: file-budget
`), 0o600))

	t.Setenv("FINANCAS_YNAB_BUDGET_ID", "env-budget")
	t.Setenv("FINANCAS_YNAB_TOKEN", "secret")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("port", "", "")
	flags.String("account", "", "")
	require.NoError(t, flags.Parse([]string{"--port", "9090", "--account", "acc-1"}))

	cfg, err := Build(path, flags)
	require.NoError(t, err)
	assert.Equal(t, log.DebugLevel, cfg.Level())
	assert.Equal(t, int64(3), cfg.UserID)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "env-budget", cfg.YNAB.BudgetID)
	assert.Equal(t, "acc-1", cfg.YNAB.AccountID)
	assert.True(t, cfg.YNABEnabled())
}

func TestBuild_Invalid(t *testing.T) {
	t.Run("mysql without dsn", func(t *testing.T) {
		t.Setenv("FINANCAS_DATABASE_DRIVER", DriverMySQL)
		_, err := Build("", nil)
		assert.ErrorContains(t, err, "database.dsn")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("FINANCAS_DATABASE_DRIVER", "sqlite")
		_, err := Build("", nil)
		assert.ErrorContains(t, err, "sqlite")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Build(filepath.Join(t.TempDir(), "nope.yaml"), nil)
		assert.Error(t, err)
	})
}
