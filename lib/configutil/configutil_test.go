package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type basicAuth struct {
	User string `json:"user" env:"TEST_BASIC_USER"`
}

type testConfig struct {
	SiteURL   string    `json:"site_url" env:"TEST_SITE_URL"`
	EditMode  bool      `json:"edit_mode" env:"TEST_EDIT_MODE"`
	Delay     int       `json:"delay"`
	BasicAuth basicAuth `json:"basic_auth"`
}

func TestReadConfigLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, "pbadmin.json5"), []byte(`{
		// trailing commas and comments are fine
		site_url: "https://example.com",
		delay: 100,
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "pbadmin.local.json5"), []byte(`{
		edit_mode: true,
		delay: 250,
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "pbadmin.json5"))
	require.NoError(t, err)
	require.Equal(t, "https://example.com", cfg.SiteURL)
	require.True(t, cfg.EditMode)
	require.Equal(t, 250, cfg.Delay)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nothing.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TEST_SITE_URL", "https://panel.test")
	t.Setenv("TEST_EDIT_MODE", "true")
	t.Setenv("TEST_BASIC_USER", "staff")

	cfg := testConfig{SiteURL: "https://example.com", Delay: 5}
	err := ApplyEnv(&cfg)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		SiteURL:   "https://panel.test",
		EditMode:  true,
		Delay:     5,
		BasicAuth: basicAuth{User: "staff"},
	}, cfg)
}

func TestApplyEnvInvalidBool(t *testing.T) {
	t.Setenv("TEST_EDIT_MODE", "maybe")

	var cfg testConfig
	err := ApplyEnv(&cfg)
	require.Error(t, err)
}
