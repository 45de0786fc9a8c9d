package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate_FillsDefaults checks that empty settings receive defaults.
func TestValidate_FillsDefaults(t *testing.T) {
	t.Parallel()

	settings := new(Config)
	require.NoError(t, Validate(settings))
	require.Equal(t, Default(), settings)

	settings = &Config{ArtifactExt: ".zip"}
	require.NoError(t, Validate(settings))
	require.Equal(t, "zip", settings.ArtifactExt)
}

// TestValidate_Rejects covers malformed URLs and file name parts.
func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))
	require.Error(t, Validate(&Config{LatestReleaseURL: "not a url"}))
	require.Error(t, Validate(&Config{DownloadBaseURL: "relative/path"}))
	require.ErrorIs(t, Validate(&Config{ArtifactPrefix: "bin/selenium"}), errPathInName)
	require.ErrorIs(t, Validate(&Config{ArtifactPrefix: "   "}), errBlankField)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := Default()
	settings.ArtifactDir = filepath.Join(dir, "artifacts")
	settings.Java = "/opt/jdk/bin/java"
	settings.Timeout = 45 * time.Second

	require.NoError(t, Save(path, settings, false))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings, loaded)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}

// TestSave_RefusesOverwrite keeps an existing file unless overwrite is requested.
func TestSave_RefusesOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFilename)

	require.NoError(t, Save(path, Default(), false))
	require.ErrorIs(t, Save(path, Default(), false), ErrAlreadyExists)
	require.NoError(t, Save(path, Default(), true))
	require.ErrorIs(t, Save(path, nil, true), errConfigIsNotSet)
}

// TestLoad_ExplicitMissingFile fails when a named settings file does not exist.
func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

// TestLoad_DefaultsAndEnvironment uses defaults when the default file is absent and applies env overrides.
func TestLoad_DefaultsAndEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvPrefix+"_JAVA", "/usr/lib/jvm/bin/java")
	t.Setenv(EnvPrefix+"_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "/usr/lib/jvm/bin/java", cfg.Java)
	require.Equal(t, 5*time.Second, cfg.Timeout)
	require.Equal(t, DefaultParamsFilename, cfg.ParamsFile)
	require.Equal(t, DefaultArtifactPrefix, cfg.ArtifactPrefix)
}

// TestLoad_DotEnv reads overrides from a .env file in the working directory.
func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	// Registered so the variable is restored after godotenv sets it.
	t.Setenv(EnvPrefix+"_MODE", "")
	require.NoError(t, os.Unsetenv(EnvPrefix+"_MODE"))

	require.NoError(t, os.WriteFile(
		filepath.Join(dir, DefaultEnvFilename),
		[]byte(EnvPrefix+"_MODE=hub\n"),
		DefaultFilePermissions,
	))

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "hub", cfg.Mode)
}
