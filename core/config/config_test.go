package config

import (
	"os"
	"path/filepath"
	"testing"

	"ledger-recon/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 30, cfg.Database.TimeoutSeconds)
	assert.Equal(t, 1000, cfg.Reconcile.BatchSize)
	assert.Equal(t, 4, cfg.Reconcile.Workers)
	assert.Equal(t, 15.0, cfg.Reconcile.TimeToleranceMinutes)
	assert.Equal(t, 1.0, cfg.Reconcile.AmountTolerancePercent)
	assert.Equal(t, 0.8, cfg.Reconcile.MatchThreshold)
	assert.Equal(t, 42, cfg.Reconcile.MinFields)
	assert.Equal(t, ",", cfg.Reconcile.Delimiter)
	assert.False(t, cfg.Schedule.Enabled)
	assert.Equal(t, "0 0 1 * * *", cfg.Schedule.Cron)
	assert.NoError(t, cfg.Reconcile.Options().Validate())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("RECONCILE_BATCH_SIZE", "250")
	t.Setenv("RECONCILE_MATCH_THRESHOLD", "0.9")
	t.Setenv("SCHEDULE_ENABLED", "true")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Reconcile.BatchSize)
	assert.Equal(t, 0.9, cfg.Reconcile.MatchThreshold)
	assert.True(t, cfg.Schedule.Enabled)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DATABASE_DRIVER=sqlite\nDATABASE_NAME=ledger.db\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("DATABASE_DRIVER")
		os.Unsetenv("DATABASE_NAME")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "ledger.db", cfg.Database.Name)
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	content := "reconcile:\n  workers: 8\n  report_path: out/run.csv\nschedule:\n  cron: \"0 30 2 * * *\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName+".yaml"), []byte(content), 0o644))
	t.Setenv("RECONCILE_WORKERS", "2")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	// env wins over the file
	assert.Equal(t, 2, cfg.Reconcile.Workers)
	assert.Equal(t, "out/run.csv", cfg.Reconcile.ReportPath)
	assert.Equal(t, "0 30 2 * * *", cfg.Schedule.Cron)
	assert.Equal(t, 1000, cfg.Reconcile.BatchSize)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  string
		option string
	}{
		{"negative batch size", "RECONCILE_BATCH_SIZE", "-1", "batch_size"},
		{"threshold above one", "RECONCILE_MATCH_THRESHOLD", "1.5", "match_threshold"},
		{"too few fields", "RECONCILE_MIN_FIELDS", "1", "min_fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig(t.TempDir())
			var ce *reconcile.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.option, ce.Option)
		})
	}
}
