package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds the launcher settings.
type Config struct {
	// ArtifactDir is the directory holding downloaded server archives.
	ArtifactDir string `mapstructure:"artifact_dir" yaml:"artifact_dir"`
	// ArtifactPrefix is the file name prefix of server archives.
	ArtifactPrefix string `mapstructure:"artifact_prefix" yaml:"artifact_prefix"`
	// ArtifactExt is the file extension of server archives, without the dot.
	ArtifactExt string `mapstructure:"artifact_ext" yaml:"artifact_ext"`
	// LatestReleaseURL redirects to the page of the newest release.
	LatestReleaseURL string `mapstructure:"latest_release_url" yaml:"latest_release_url"`
	// DownloadBaseURL is the root under which versioned archives are published.
	DownloadBaseURL string `mapstructure:"download_base_url" yaml:"download_base_url"`
	// Java is the Java executable name or path.
	Java string `mapstructure:"java" yaml:"java"`
	// MinJavaVersion is the lowest Java version the server is known to run on.
	MinJavaVersion string `mapstructure:"min_java_version" yaml:"min_java_version"`
	// ParamsFile is the path to the server parameters TOML document.
	ParamsFile string `mapstructure:"params_file" yaml:"params_file"`
	// Mode is the server mode keyword passed after the archive path.
	Mode string `mapstructure:"mode" yaml:"mode"`
	// Timeout bounds the latest release lookup and the wait for download response headers.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// LogLevel is the minimum level of launcher log messages.
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default settings file name.
	DefaultConfigFilename = "selenium-launcher.yaml"

	// EnvPrefix prefixes environment overrides, e.g. SELENIUM_LAUNCHER_JAVA.
	EnvPrefix = "SELENIUM_LAUNCHER"

	// DefaultEnvFilename is loaded into the environment before settings are read.
	DefaultEnvFilename = ".env"

	// DefaultArtifactDir keeps archives next to the launcher.
	DefaultArtifactDir = "."

	// DefaultArtifactPrefix is the Selenium server archive prefix.
	DefaultArtifactPrefix = "selenium-server"

	// DefaultArtifactExt is the Selenium server archive extension.
	DefaultArtifactExt = "jar"

	// DefaultLatestReleaseURL redirects to the newest Selenium release tag.
	DefaultLatestReleaseURL = "https://github.com/SeleniumHQ/selenium/releases/latest"

	// DefaultDownloadBaseURL is where versioned Selenium assets are published.
	DefaultDownloadBaseURL = "https://github.com/SeleniumHQ/selenium/releases/download"

	// DefaultJava is looked up in PATH.
	DefaultJava = "java"

	// DefaultMinJavaVersion is the minimum Java version for Selenium 4.
	DefaultMinJavaVersion = "11"

	// DefaultParamsFilename is the server parameters document.
	DefaultParamsFilename = "params.toml"

	// DefaultMode starts the server in standalone mode.
	DefaultMode = "standalone"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 30 * time.Second

	// DefaultLogLevel is the default launcher log level.
	DefaultLogLevel = "info"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBlankField is returned when a required field is whitespace only after defaults.
	errBlankField = errors.New("field must not be blank")
	// errPathInName is returned when the prefix or extension contains a path separator.
	errPathInName = errors.New("must not contain path separators")
	// ErrAlreadyExists is returned by Save when the target exists and overwrite is off.
	ErrAlreadyExists = errors.New("settings file already exists")
)

// Default returns settings populated with defaults.
func Default() *Config {
	return &Config{
		ArtifactDir:      DefaultArtifactDir,
		ArtifactPrefix:   DefaultArtifactPrefix,
		ArtifactExt:      DefaultArtifactExt,
		LatestReleaseURL: DefaultLatestReleaseURL,
		DownloadBaseURL:  DefaultDownloadBaseURL,
		Java:             DefaultJava,
		MinJavaVersion:   DefaultMinJavaVersion,
		ParamsFile:       DefaultParamsFilename,
		Mode:             DefaultMode,
		Timeout:          DefaultTimeout,
		LogLevel:         DefaultLogLevel,
	}
}

// Load reads settings from path, overlays environment variables and validates the result.
// A missing file at the default path is not an error: defaults and environment apply.
// A missing file at an explicitly given path is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	// The .env file is optional.
	_ = godotenv.Load(DefaultEnvFilename)

	v := newViper()
	v.SetConfigFile(filepath.Clean(path))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// newViper returns a viper instance with every key defaulted and bound to the environment.
func newViper() *viper.Viper {
	v := viper.New()
	defaults := Default()

	v.SetDefault("artifact_dir", defaults.ArtifactDir)
	v.SetDefault("artifact_prefix", defaults.ArtifactPrefix)
	v.SetDefault("artifact_ext", defaults.ArtifactExt)
	v.SetDefault("latest_release_url", defaults.LatestReleaseURL)
	v.SetDefault("download_base_url", defaults.DownloadBaseURL)
	v.SetDefault("java", defaults.Java)
	v.SetDefault("min_java_version", defaults.MinJavaVersion)
	v.SetDefault("params_file", defaults.ParamsFile)
	v.SetDefault("mode", defaults.Mode)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	return v
}

// Save writes settings to path as YAML. Existing files are kept unless overwrite is set.
func Save(path string, cfg *Config, overwrite bool) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	path = filepath.Clean(path)

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrAlreadyExists)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults for empty fields and checks formats.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	defaults := Default()

	setDefault(&settings.ArtifactDir, defaults.ArtifactDir)
	setDefault(&settings.ArtifactPrefix, defaults.ArtifactPrefix)
	setDefault(&settings.ArtifactExt, defaults.ArtifactExt)
	setDefault(&settings.LatestReleaseURL, defaults.LatestReleaseURL)
	setDefault(&settings.DownloadBaseURL, defaults.DownloadBaseURL)
	setDefault(&settings.Java, defaults.Java)
	setDefault(&settings.MinJavaVersion, defaults.MinJavaVersion)
	setDefault(&settings.ParamsFile, defaults.ParamsFile)
	setDefault(&settings.Mode, defaults.Mode)
	setDefault(&settings.LogLevel, defaults.LogLevel)

	// Set default timeout if not specified
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	settings.ArtifactExt = strings.TrimPrefix(settings.ArtifactExt, ".")

	for name, value := range map[string]string{
		"artifact_prefix": settings.ArtifactPrefix,
		"artifact_ext":    settings.ArtifactExt,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s: %w", name, errBlankField)
		}

		if strings.ContainsAny(value, `/\`) {
			return fmt.Errorf("%s %q: %w", name, value, errPathInName)
		}
	}

	if _, err := url.ParseRequestURI(settings.LatestReleaseURL); err != nil {
		return fmt.Errorf("invalid latest release URL: %w", err)
	}

	if _, err := url.ParseRequestURI(settings.DownloadBaseURL); err != nil {
		return fmt.Errorf("invalid download base URL: %w", err)
	}

	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
