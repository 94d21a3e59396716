// Package config loads and validates the adx configuration from .adx/ in
// the project root.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"adx/internal/errors"
)

// Policy values for recoverable failure modes.
const (
	PolicySkip   = "skip"
	PolicyFail   = "fail"
	PolicyIgnore = "ignore"
	PolicyLog    = "log"
)

// Config represents the complete adx configuration
type Config struct {
	Version  int    `json:"version" mapstructure:"version"`
	RepoRoot string `json:"repoRoot" mapstructure:"repoRoot"`

	Scan     ScanConfig     `json:"scan" mapstructure:"scan"`
	Policies PoliciesConfig `json:"policies" mapstructure:"policies"`
	Output   OutputConfig   `json:"output" mapstructure:"output"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// ScanConfig controls which files the gatherer visits
type ScanConfig struct {
	// Roots are the directories to scan, relative to RepoRoot unless
	// absolute. Supplied by the caller's project layout; adx does not
	// resolve autoload configuration itself.
	Roots []string `json:"roots" mapstructure:"roots"`

	// Ignore lists directory names skipped during traversal.
	Ignore []string `json:"ignore" mapstructure:"ignore"`

	// MaxFileSizeBytes skips files larger than this.
	MaxFileSizeBytes int `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`

	// Workers bounds the parallel parse phase. Zero means NumCPU.
	Workers int `json:"workers" mapstructure:"workers"`
}

// PoliciesConfig controls how recoverable problems are handled
type PoliciesConfig struct {
	// OnInvalidDeclaration: "skip" (diagnostic) or "fail" for declarations
	// that cannot satisfy the decision record contract.
	OnInvalidDeclaration string `json:"onInvalidDeclaration" mapstructure:"onInvalidDeclaration"`

	// OnParseError: "skip" (diagnostic) or "fail" for unparseable files.
	OnParseError string `json:"onParseError" mapstructure:"onParseError"`

	// OnUnresolvedReference: "ignore", "log", or "fail" for usage
	// annotations naming an unknown decision.
	OnUnresolvedReference string `json:"onUnresolvedReference" mapstructure:"onUnresolvedReference"`
}

// OutputConfig controls the generated document
type OutputConfig struct {
	// Path of the document, relative to RepoRoot unless absolute.
	Path string `json:"path" mapstructure:"path"`

	// Namespace is the document's xmlns value.
	Namespace string `json:"namespace" mapstructure:"namespace"`

	// Timestamp embeds a generation timestamp. Off by default: unchanged
	// trees must produce byte-identical documents.
	Timestamp bool `json:"timestamp" mapstructure:"timestamp"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		RepoRoot: ".",
		Scan: ScanConfig{
			Roots:            []string{"."},
			Ignore:           []string{".git", "node_modules", "vendor", "build", "dist", "__pycache__"},
			MaxFileSizeBytes: 1000000,
		},
		Policies: PoliciesConfig{
			OnInvalidDeclaration:  PolicySkip,
			OnParseError:          PolicySkip,
			OnUnresolvedReference: PolicyLog,
		},
		Output: OutputConfig{
			Path:      "architectural-decisions.xml",
			Namespace: "urn:adx:architectural-decisions:1.0",
			Timestamp: false,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from <repoRoot>/.adx/config.json, falling back
// to defaults when no config file exists.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("repoRoot", repoRoot)
	v.SetDefault("scan.roots", def.Scan.Roots)
	v.SetDefault("scan.ignore", def.Scan.Ignore)
	v.SetDefault("scan.maxFileSizeBytes", def.Scan.MaxFileSizeBytes)
	v.SetDefault("scan.workers", def.Scan.Workers)
	v.SetDefault("policies.onInvalidDeclaration", def.Policies.OnInvalidDeclaration)
	v.SetDefault("policies.onParseError", def.Policies.OnParseError)
	v.SetDefault("policies.onUnresolvedReference", def.Policies.OnUnresolvedReference)
	v.SetDefault("output.path", def.Output.Path)
	v.SetDefault("output.namespace", def.Output.Namespace)
	v.SetDefault("output.timestamp", def.Output.Timestamp)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".adx"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(errors.ConfigInvalid, "reading .adx/config.json", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid, "unmarshaling configuration", err)
	}
	if cfg.RepoRoot == "" || cfg.RepoRoot == "." {
		cfg.RepoRoot = repoRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to <repoRoot>/.adx/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".adx")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return errors.New(errors.ConfigInvalid, "unsupported config version")
	}
	if len(c.Scan.Roots) == 0 {
		return errors.New(errors.ConfigInvalid, "scan.roots must name at least one directory")
	}
	if err := validatePolicy("policies.onInvalidDeclaration", c.Policies.OnInvalidDeclaration, PolicySkip, PolicyFail); err != nil {
		return err
	}
	if err := validatePolicy("policies.onParseError", c.Policies.OnParseError, PolicySkip, PolicyFail); err != nil {
		return err
	}
	if err := validatePolicy("policies.onUnresolvedReference", c.Policies.OnUnresolvedReference, PolicyIgnore, PolicyLog, PolicyFail); err != nil {
		return err
	}
	if c.Output.Path == "" {
		return errors.New(errors.ConfigInvalid, "output.path must not be empty")
	}
	return nil
}

func validatePolicy(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return errors.New(errors.ConfigInvalid, "invalid value for "+field+": '"+value+"'")
}

// Strict returns a copy with every recoverable policy escalated to fail.
func (c *Config) Strict() *Config {
	out := *c
	out.Policies = PoliciesConfig{
		OnInvalidDeclaration:  PolicyFail,
		OnParseError:          PolicyFail,
		OnUnresolvedReference: PolicyFail,
	}
	return &out
}

// ResolveRoots returns the scan roots as absolute paths.
func (c *Config) ResolveRoots() []string {
	out := make([]string, 0, len(c.Scan.Roots))
	for _, r := range c.Scan.Roots {
		if !filepath.IsAbs(r) {
			r = filepath.Join(c.RepoRoot, r)
		}
		out = append(out, filepath.Clean(r))
	}
	return out
}

// ResolveOutputPath returns the document path as an absolute path.
func (c *Config) ResolveOutputPath() string {
	if filepath.IsAbs(c.Output.Path) {
		return c.Output.Path
	}
	return filepath.Join(c.RepoRoot, c.Output.Path)
}
