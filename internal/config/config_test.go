package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Gate.TriSignalWindow)
	assert.Equal(t, 2, cfg.Gate.TriSignalMinSignals)
	assert.True(t, cfg.Gate.TriSignalRequireDate)
	assert.Equal(t, 8, cfg.Gate.HeaderConflictKillRadius)
	assert.Equal(t, 2, cfg.Gate.MaxCrossColumnDistance)
	assert.InDelta(t, 0.45, cfg.Gate.TimelineDensityThreshold, 0.001)
	assert.Equal(t, 4, cfg.Gate.TimelineWindowSize)
	assert.InDelta(t, 0.55, cfg.Gate.ExpGateMin, 0.001)
	assert.Equal(t, 6, cfg.Gate.MinDescTokens)
	assert.InDelta(t, 0.20, cfg.Gate.PatternDiversityHardBlock, 0.001)
	assert.InDelta(t, 0.30, cfg.Gate.PatternDiversityMediumAlert, 0.001)
	assert.Equal(t, 2, cfg.Gate.MaxMergeMultiplier)
	assert.Equal(t, 4, cfg.Gate.OrgRebindWindow)
	assert.InDelta(t, 0.5, cfg.Gate.EmploymentScoreThreshold, 0.001)
	assert.Equal(t, 6, cfg.Gate.RescueWindowRadius)
	assert.Equal(t, 3, cfg.Gate.MaxExtractionPasses)
	assert.InDelta(t, 0.10, cfg.Gate.EduKeepRateSecondPass, 0.001)
	assert.Equal(t, 20, cfg.Gate.EduItemsPer100Lines)
	assert.InDelta(t, 0.1, cfg.Gate.ConfidenceFloor, 0.001)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 4, cfg.Batch.MaxConcurrentDocuments)
	assert.InDelta(t, 8.0, cfg.Batch.DocsPerSecond, 0.001)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
gate:
  tri_signal_window: 5
  exp_gate_min: 0.6
store:
  driver: postgres
log:
  level: debug
  format: console
batch:
  max_concurrent_documents: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Gate.TriSignalWindow)
	assert.InDelta(t, 0.6, cfg.Gate.ExpGateMin, 0.001)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrentDocuments)
	// Defaults still apply for unset values
	assert.Equal(t, 8, cfg.Gate.HeaderConflictKillRadius)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("CVGATE_STORE_DRIVER", "sqlite")
	t.Setenv("CVGATE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("CVGATE_GATE_TRI_SIGNAL_WINDOW", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Gate.TriSignalWindow)
}

// validConfig returns a Config with all defaults populated for validation tests.
func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig(t)
	assert.NoError(t, cfg.Validate())
}

func TestValidateThresholdBounds(t *testing.T) {
	cfg := validConfig(t)

	cfg.Gate.ExpGateMin = 1.5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate.exp_gate_min")

	cfg.Gate.ExpGateMin = 0.55
	cfg.Gate.PatternDiversityHardBlock = -0.1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate.pattern_diversity_hard_block")
}

func TestValidateThresholdOrdering(t *testing.T) {
	cfg := validConfig(t)

	cfg.Gate.PatternDiversityHardBlock = 0.5
	cfg.Gate.PatternDiversityMediumAlert = 0.3
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be <= gate.pattern_diversity_medium_alert")
}

func TestValidateWindowBounds(t *testing.T) {
	cfg := validConfig(t)

	cfg.Gate.TriSignalWindow = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate.tri_signal_window must be > 0")

	cfg.Gate.TriSignalWindow = 3
	cfg.Gate.RescueWindowRadius = -6
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate.rescue_window_radius must be > 0")
}

func TestValidateMinSignalsCap(t *testing.T) {
	cfg := validConfig(t)
	cfg.Gate.TriSignalMinSignals = 4
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gate.tri_signal_min_signals must be <= 3")
}

func TestValidateStoreDriver(t *testing.T) {
	cfg := validConfig(t)
	cfg.Store.Driver = "mysql"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	cfg := validConfig(t)

	cfg.Batch.MaxConcurrentDocuments = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.max_concurrent_documents must be between 1 and 64")

	cfg.Batch.MaxConcurrentDocuments = 65
	err = cfg.Validate()
	require.Error(t, err)

	cfg.Batch.MaxConcurrentDocuments = 64
	assert.NoError(t, cfg.Validate())
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
