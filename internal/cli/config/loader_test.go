package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	intconfig "github.com/leapstack-labs/churnpipe/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, intconfig.DefaultInput, cfg.Input)
	assert.Equal(t, intconfig.DefaultTargetColumn, cfg.TargetColumn)
	assert.Equal(t, intconfig.DefaultExperiment, cfg.Experiment)
	assert.Equal(t, intconfig.DefaultTestSize, cfg.TestSize)
	assert.Equal(t, int64(intconfig.DefaultSeed), cfg.Seed)
	assert.Equal(t, intconfig.DefaultNEstimators, cfg.NEstimators)
	assert.Equal(t, "text", cfg.Format)
	assert.False(t, cfg.Verbose)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churnpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"input: data/other.csv\nn_estimators: 50\nlearning_rate: 0.05\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "data/other.csv", cfg.Input)
	assert.Equal(t, 50, cfg.NEstimators)
	assert.Equal(t, 0.05, cfg.LearningRate)
	// Untouched keys keep their defaults.
	assert.Equal(t, intconfig.DefaultProcessed, cfg.Processed)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"), nil)
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "churnpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("experiment: from_file\n"), 0o644))

	t.Setenv("CHURNPIPE_EXPERIMENT", "from_env")
	t.Setenv("CHURNPIPE_TARGET_COLUMN", "Exited")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Experiment)
	assert.Equal(t, "Exited", cfg.TargetColumn)
}

func testFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("input", intconfig.DefaultInput, "")
	fs.String("target-column", intconfig.DefaultTargetColumn, "")
	fs.Int("n-estimators", intconfig.DefaultNEstimators, "")
	return fs
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("CHURNPIPE_INPUT", "env.csv")

	fs := testFlags()
	require.NoError(t, fs.Parse([]string{"--input", "flag.csv", "--target-column", "Label"}))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "flag.csv", cfg.Input)
	assert.Equal(t, "Label", cfg.TargetColumn, "kebab-case flag maps to snake_case key")
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	t.Setenv("CHURNPIPE_N_ESTIMATORS", "25")

	fs := testFlags()
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.NEstimators, "flag default must not mask the environment")
}

func TestLoad_InvalidConfigRejected(t *testing.T) {
	t.Setenv("CHURNPIPE_TEST_SIZE", "1.5")
	_, err := Load("", nil)
	assert.ErrorContains(t, err, "test_size")
}

func TestFindConfigFile(t *testing.T) {
	t.Run("explicit wins", func(t *testing.T) {
		assert.Equal(t, "custom.yaml", findConfigFile("custom.yaml"))
	})
	t.Run("none present", func(t *testing.T) {
		t.Chdir(t.TempDir())
		assert.Empty(t, findConfigFile(""))
	})
	t.Run("yaml preferred over yml", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "churnpipe.yml"), []byte("{}"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "churnpipe.yaml"), []byte("{}"), 0o644))
		assert.Equal(t, "churnpipe.yaml", findConfigFile(""))
	})
}
