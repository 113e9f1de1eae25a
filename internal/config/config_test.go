package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thomvis/Construct-sub002/internal/store"
)

func newCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("db", "", "")
	cmd.Flags().String("driver", store.DefaultDriver, "")
	cmd.Flags().String("log-level", "info", "")
	cmd.Flags().String("log-format", "text", "")
	cmd.Flags().Int("max-readers", store.DefaultMaxReaders, "")
	cmd.Flags().String("config", "", "")
	return cmd
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	assert.Equal(t, "", v.GetString("database"))
	assert.Equal(t, "sqlite", v.GetString("driver"))
	assert.Equal(t, "info", v.GetString("log_level"))
	assert.Equal(t, "text", v.GetString("log_format"))
	assert.Equal(t, 4, v.GetInt("max_readers"))
}

func TestLoad_Flags(t *testing.T) {
	cmd := newCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--db", "x.db", "--log-level", "debug", "--max-readers", "2"}))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, &Config{Database: "x.db", Driver: "sqlite", LogLevel: "debug", LogFormat: "text", MaxReaders: 2}, cfg)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "construct.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: file.db\nlog_format: json\n"), 0o644))

	cmd := newCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path}))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "file.db", cfg.Database)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "construct.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: file.db\nlog_level: warn\nlog_format: json\n"), 0o644))
	t.Setenv("CONSTRUCT_DATABASE", "env.db")
	t.Setenv("CONSTRUCT_LOG_LEVEL", "error")

	cmd := newCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", path, "--db", "flag.db"}))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "flag.db", cfg.Database)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_IgnoresUndefinedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}
	t.Setenv("CONSTRUCT_DATABASE", "env.db")

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown driver", []string{"--driver", "postgres"}},
		{"bad log level", []string{"--log-level", "loud"}},
		{"bad log format", []string{"--log-format", "xml"}},
		{"no readers", []string{"--max-readers", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCommand()
			require.NoError(t, cmd.Flags().Parse(tt.args))
			_, err := Load(cmd)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	cmd := newCommand()
	require.NoError(t, cmd.Flags().Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
	_, err := Load(cmd)
	assert.Error(t, err)
}

func TestRequireDatabase(t *testing.T) {
	assert.Error(t, (&Config{}).RequireDatabase())
	assert.NoError(t, (&Config{Database: "x.db"}).RequireDatabase())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := (&Config{LogLevel: "warn", LogFormat: "json"}).NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "key", "k")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"key":"k"`)
}
