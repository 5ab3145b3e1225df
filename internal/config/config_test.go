package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainOSC "gosc/domain/osc"
	"gosc/internal"
	"gosc/internal/errors"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Correction.Components)
	assert.Equal(t, 1e-6, cfg.Correction.Tolerance)
	assert.Equal(t, 50, cfg.Correction.MaxIter)
	assert.Equal(t, "wold", cfg.Correction.Variant)
	assert.Equal(t, "Sheet1", cfg.Data.Sheet)
	assert.Equal(t, "response", cfg.Data.ResponseColumn)
	assert.Equal(t, "info", cfg.Logging.Level)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, domainOSC.DefaultParams(domainOSC.VariantWold), p)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("OSC_COMPONENTS", "3")
	t.Setenv("OSC_TOLERANCE", "1e-8")
	t.Setenv("OSC_MAX_ITER", "200")
	t.Setenv("OSC_VARIANT", "Sjöblom")
	t.Setenv("OSC_PLS_COMPONENTS", "1")
	t.Setenv("DATA_FILE", "spectra.xlsx")
	t.Setenv("DATA_SHEET", "calibration")
	t.Setenv("DATA_RESPONSE_COLUMN", "moisture")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := FromEnv()
	require.NoError(t, err)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, domainOSC.Params{
		Components:    3,
		Tolerance:     1e-8,
		MaxIter:       200,
		Variant:       domainOSC.VariantSjoblom,
		PLSComponents: 1,
	}, p)
	assert.Equal(t, "spectra.xlsx", cfg.Data.File)
	assert.Equal(t, "calibration", cfg.Data.Sheet)
	assert.Equal(t, "moisture", cfg.Data.ResponseColumn)
	assert.Equal(t, internal.LogLevelDebug, cfg.Logger().GetLevel())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"negative components", "OSC_COMPONENTS", "-1"},
		{"zero tolerance", "OSC_TOLERANCE", "0"},
		{"zero max iter", "OSC_MAX_ITER", "0"},
		{"unknown variant", "OSC_VARIANT", "pca"},
		{"not a number", "OSC_MAX_ITER", "many"},
		{"bad log level", "LOG_LEVEL", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := FromEnv()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("OSC_VARIANT=fearn\nOSC_COMPONENTS=1\n"), 0o600))

	// godotenv does not override variables that are already set, and
	// t.Setenv restores them after the test
	t.Setenv("OSC_VARIANT", "")
	t.Setenv("OSC_COMPONENTS", "")
	require.NoError(t, os.Unsetenv("OSC_VARIANT"))
	require.NoError(t, os.Unsetenv("OSC_COMPONENTS"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fearn", cfg.Correction.Variant)
	assert.Equal(t, 1, cfg.Correction.Components)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}
