package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is looked up in the working directory when no --config is given.
const ConfigFileName = "narscan.yaml"

// Config holds the settings that may come from the config file or the environment.
type Config struct {
	CDNURL         string `yaml:"cdn_url,omitempty"`
	S3Bucket       string `yaml:"s3_bucket,omitempty"`
	S3Endpoint     string `yaml:"s3_endpoint,omitempty"`
	ExpectedRegion string `yaml:"expected_region,omitempty"`
	Region         string `yaml:"region,omitempty"`
	Parallelism    int    `yaml:"parallelism,omitempty"`
	LogFile        string `yaml:"log_file,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		CDNURL:         narscan.DefaultCDNURL,
		S3Bucket:       narscan.DefaultS3Bucket,
		ExpectedRegion: narscan.CacheRegion,
		Parallelism:    narscan.DefaultParallelism,
	}
}

// Load reads the YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Merge overlays the non-zero fields of other onto c.
func (c *Config) Merge(other Config) {
	if other.CDNURL != "" {
		c.CDNURL = other.CDNURL
	}
	if other.S3Bucket != "" {
		c.S3Bucket = other.S3Bucket
	}
	if other.S3Endpoint != "" {
		c.S3Endpoint = other.S3Endpoint
	}
	if other.ExpectedRegion != "" {
		c.ExpectedRegion = other.ExpectedRegion
	}
	if other.Region != "" {
		c.Region = other.Region
	}
	if other.Parallelism != 0 {
		c.Parallelism = other.Parallelism
	}
	if other.LogFile != "" {
		c.LogFile = other.LogFile
	}
}

// Environment variables read by FromEnv.
const (
	EnvCDNURL         = "NARSCAN_CDN_URL"
	EnvS3Bucket       = "NARSCAN_S3_BUCKET"
	EnvS3Endpoint     = "NARSCAN_S3_ENDPOINT"
	EnvExpectedRegion = "NARSCAN_EXPECTED_REGION"
	EnvRegion         = "NARSCAN_REGION"
	EnvParallelism    = "NARSCAN_PARALLELISM"
	EnvLogFile        = "NARSCAN_LOG_FILE"
)

// FromEnv reads the NARSCAN_* variables through getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		CDNURL:         getenv(EnvCDNURL),
		S3Bucket:       getenv(EnvS3Bucket),
		S3Endpoint:     getenv(EnvS3Endpoint),
		ExpectedRegion: getenv(EnvExpectedRegion),
		Region:         getenv(EnvRegion),
		LogFile:        getenv(EnvLogFile),
	}

	if v := getenv(EnvParallelism); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s=%q is not an integer: %w", EnvParallelism, v, narscan.ErrInvalidConfig)
		}
		cfg.Parallelism = n
	}

	return cfg, nil
}

// Resolve layers defaults, the config file and the environment, in that
// order of increasing precedence. An empty path looks for ConfigFileName in
// the working directory and tolerates its absence; an explicit path must exist.
func Resolve(path string, getenv func(string) string) (Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = ConfigFileName
	}

	fileCfg, err := Load(path)
	switch {
	case err == nil:
		cfg.Merge(*fileCfg)
	case errors.Is(err, ErrConfigNotFound) && !explicit:
	case errors.Is(err, ErrConfigNotFound):
		return Config{}, fmt.Errorf("%s: %w: %w", path, ErrConfigNotFound, narscan.ErrInvalidConfig)
	default:
		return Config{}, fmt.Errorf("failed to load %s: %v: %w", path, err, narscan.ErrInvalidConfig)
	}

	envCfg, err := FromEnv(getenv)
	if err != nil {
		return Config{}, err
	}
	cfg.Merge(envCfg)

	return cfg, nil
}
