package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override, e.g. GOPREPROCESS_DATA_DIR.
const EnvPrefix = "GOPREPROCESS_"

type Config struct {
	DataDir      string `json:"data_dir"`
	OutputDir    string `json:"output_dir"`
	DatasetsFile string `json:"datasets_file"`
	LogFile      string `json:"log_file"`
	LogLevel     string `json:"log_level"`

	SourceTaxon      string   `json:"source_taxon"`
	TargetTaxon      string   `json:"target_taxon"`
	Namespaces       []string `json:"namespaces"`
	OrthoReference   string   `json:"ortho_reference"`
	ExcludedEvidence []string `json:"excluded_evidence"`
	MinRelationship  string   `json:"min_relationship"`

	Workers     int  `json:"workers"`
	StrictParse bool `json:"strict_parse"`

	CacheTTLSecs           int64 `json:"cache_ttl_seconds"`
	DownloadTimeoutSeconds int64 `json:"download_timeout_seconds"`

	S3Endpoint  string `json:"s3_endpoint"`
	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
	S3UseSSL    bool   `json:"s3_use_ssl"`
}

// Default returns a fresh configuration for the rat to mouse transfer.
func Default() *Config {
	return &Config{
		DataDir:                "data",
		OutputDir:              "output",
		LogLevel:               "info",
		SourceTaxon:            "NCBITaxon:10116",
		TargetTaxon:            "NCBITaxon:10090",
		Namespaces:             DefaultNamespaces(),
		OrthoReference:         "GO_REF:0000096",
		ExcludedEvidence:       DefaultExcludedEvidence(),
		MinRelationship:        "candidate",
		CacheTTLSecs:           int64(24 * time.Hour / time.Second),
		DownloadTimeoutSeconds: int64(10 * time.Minute / time.Second),
		S3UseSSL:               true,
	}
}

// DefaultNamespaces lists the source providers whose annotations are
// transferred.
func DefaultNamespaces() []string {
	return []string{"RGD", "UniProtKB"}
}

// DefaultExcludedEvidence lists GAF evidence codes that never transfer:
// inferred annotations would otherwise be inferred again.
func DefaultExcludedEvidence() []string {
	return []string{"IEA", "ISO", "ISS", "ISA", "ISM", "IBA", "ND"}
}

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// LoadConfig loads a JSON config from the given path. If path is empty,
// looks for ./config.json. A missing file yields the defaults. A .env file in
// the working directory and GOPREPROCESS_* variables are applied on top.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = "config.json"
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c := Default()
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("open %s: %w", path, err)
	default:
		defer f.Close()
		if err := json.NewDecoder(f).Decode(c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	c.DatasetsFile = getEnv("DATASETS_FILE", c.DatasetsFile)
	c.LogFile = getEnv("LOG_FILE", c.LogFile)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SourceTaxon = getEnv("SOURCE_TAXON", c.SourceTaxon)
	c.TargetTaxon = getEnv("TARGET_TAXON", c.TargetTaxon)
	c.Namespaces = getEnvList("NAMESPACES", c.Namespaces)
	c.OrthoReference = getEnv("ORTHO_REFERENCE", c.OrthoReference)
	c.ExcludedEvidence = getEnvList("EXCLUDED_EVIDENCE", c.ExcludedEvidence)
	c.MinRelationship = getEnv("MIN_RELATIONSHIP", c.MinRelationship)
	c.Workers = getEnvInt("WORKERS", c.Workers)
	c.StrictParse = getEnvBool("STRICT_PARSE", c.StrictParse)
	c.CacheTTLSecs = int64(getEnvInt("CACHE_TTL_SECONDS", int(c.CacheTTLSecs)))
	c.DownloadTimeoutSeconds = int64(getEnvInt("DOWNLOAD_TIMEOUT_SECONDS", int(c.DownloadTimeoutSeconds)))
	c.S3Endpoint = getEnv("S3_ENDPOINT", c.S3Endpoint)
	c.S3AccessKey = getEnv("S3_ACCESS_KEY", c.S3AccessKey)
	c.S3SecretKey = getEnv("S3_SECRET_KEY", c.S3SecretKey)
	c.S3UseSSL = getEnvBool("S3_USE_SSL", c.S3UseSSL)
}

// Validate checks the settings every pipeline needs before any work starts.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return &ConfigError{Field: "data_dir", Reason: "required"}
	}
	if c.OutputDir == "" {
		return &ConfigError{Field: "output_dir", Reason: "required"}
	}
	if c.Workers < 0 {
		return &ConfigError{Field: "workers", Reason: "must not be negative"}
	}
	if c.DownloadTimeoutSeconds <= 0 {
		return &ConfigError{Field: "download_timeout_seconds", Reason: "must be positive"}
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSecs) * time.Second
}

func (c *Config) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(EnvPrefix + key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList reads a comma separated list.
func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
