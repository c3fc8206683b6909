// Package config loads and validates arcgraph configuration.
//
// Configuration problems are the only fatal failure class: Load and Validate
// return a *ConfigurationError before any analysis starts, and nothing else
// in the engine aborts a run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arcgraph/arcgraph/pkg/models"
	"github.com/arcgraph/arcgraph/pkg/parser"
)

// ConfigurationError reports an invalid configuration. It is fatal at
// startup, before any run begins.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Config holds all configuration options for arcgraph.
type Config struct {
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`
	Ignore   IgnoreConfig   `koanf:"ignore" toml:"ignore"`
	Boundary BoundaryConfig `koanf:"boundary" toml:"boundary"`
	Output   OutputConfig   `koanf:"output" toml:"output"`
}

// AnalysisConfig controls extraction and graph scoring.
type AnalysisConfig struct {
	// Languages maps file extensions (".ext") to language names, extending
	// or overriding the built-in map.
	Languages map[string]string `koanf:"languages" toml:"languages"`
	// MaxFileSize skips files larger than this many bytes (0 = no limit).
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size"`
	// Workers bounds extraction parallelism (0 = 2x NumCPU).
	Workers int `koanf:"workers" toml:"workers"`
	// BudgetSeconds is a wall-clock budget for extraction; files not
	// processed within it are recorded as skipped (0 = no budget).
	BudgetSeconds int `koanf:"budget_seconds" toml:"budget_seconds"`
	// Complexity coefficients. All must be positive so the score stays
	// strictly monotonic in edge count, fan-out, and cycle membership.
	EdgeWeight   float64 `koanf:"edge_weight" toml:"edge_weight"`
	FanOutWeight float64 `koanf:"fan_out_weight" toml:"fan_out_weight"`
	CycleWeight  float64 `koanf:"cycle_weight" toml:"cycle_weight"`
}

// IgnoreConfig defines file exclusion patterns, parsed as gitignore syntax.
type IgnoreConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// BoundaryRule is one (pattern, type) classification rule. Rules are
// evaluated in order; the first match wins.
type BoundaryRule struct {
	Pattern string `koanf:"pattern" toml:"pattern"`
	Type    string `koanf:"type" toml:"type"`
}

// BoundaryConfig controls service boundary detection.
type BoundaryConfig struct {
	MinClusterSize int            `koanf:"min_cluster_size" toml:"min_cluster_size"`
	MaxClusterSize int            `koanf:"max_cluster_size" toml:"max_cluster_size"`
	// CouplingWarn emits a diagnostic for boundaries whose coupling score
	// exceeds this threshold.
	CouplingWarn float64        `koanf:"coupling_warn" toml:"coupling_warn"`
	Rules        []BoundaryRule `koanf:"rules" toml:"rules"`
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format  string `koanf:"format" toml:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color" toml:"color"`
	Verbose bool   `koanf:"verbose" toml:"verbose"`
}

// DefaultRules is the built-in classification table, evaluated in order.
// The ordering encodes the fixed priority api > data > business >
// infrastructure; anything unmatched defaults to utility.
var DefaultRules = []BoundaryRule{
	{Pattern: `(?i)(api[_-]?service|controller|endpoint|route|handler|rest)`, Type: "api"},
	{Pattern: `(?i)(repository|dao|database|data[_-]?service|entity|model|orm|store)`, Type: "data"},
	{Pattern: `(?i)(business|domain[_-]?service|service|usecase|workflow)`, Type: "business"},
	{Pattern: `(?i)(infra|config|logger|logging|middleware|client|adapter)`, Type: "infrastructure"},
	{Pattern: `(?i)(util|helper|tool|common|shared)`, Type: "utility"},
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Languages:    map[string]string{},
			MaxFileSize:  0,
			Workers:      0,
			EdgeWeight:   1.0,
			FanOutWeight: 0.5,
			CycleWeight:  2.0,
		},
		Ignore: IgnoreConfig{
			Patterns: []string{
				"vendor/",
				"node_modules/",
				".git/",
				"dist/",
				"build/",
				"__pycache__/",
				"*.min.js",
			},
			Gitignore: true,
		},
		Boundary: BoundaryConfig{
			MinClusterSize: 2,
			MaxClusterSize: 50,
			CouplingWarn:   0.8,
			Rules:          nil, // nil means DefaultRules
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file and validates it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var p koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		p = yaml.Parser()
	case ".json":
		p = json.Parser()
	default:
		p = toml.Parser()
	}

	if err := k.Load(file.Provider(path), p); err != nil {
		return nil, &ConfigurationError{Field: path, Reason: err.Error()}
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, &ConfigurationError{Field: path, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations, falling back to defaults.
// A config file that exists but fails validation is an error; the caller
// must not proceed to a run with it.
func LoadOrDefault() (*Config, error) {
	names := []string{
		"arcgraph.toml",
		"arcgraph.yaml",
		"arcgraph.yml",
		"arcgraph.json",
		".arcgraph.toml",
		".arcgraph.yaml",
	}
	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			return Load(name)
		}
	}
	return DefaultConfig(), nil
}

// Validate checks the configuration for fatal problems: unknown languages in
// the extension map, non-compiling boundary rules, unknown boundary types,
// an inverted cluster size range, or non-positive complexity coefficients.
func (c *Config) Validate() error {
	for ext, lang := range c.Analysis.Languages {
		if !strings.HasPrefix(ext, ".") {
			return &ConfigurationError{
				Field:  "analysis.languages",
				Reason: fmt.Sprintf("extension %q must start with a dot", ext),
			}
		}
		if !parser.Language(lang).Valid() {
			return &ConfigurationError{
				Field:  "analysis.languages",
				Reason: fmt.Sprintf("unknown language %q for extension %q", lang, ext),
			}
		}
	}

	if c.Analysis.EdgeWeight <= 0 || c.Analysis.FanOutWeight <= 0 || c.Analysis.CycleWeight <= 0 {
		return &ConfigurationError{
			Field:  "analysis",
			Reason: "complexity coefficients must be positive",
		}
	}

	if c.Boundary.MinClusterSize < 1 {
		return &ConfigurationError{
			Field:  "boundary.min_cluster_size",
			Reason: "must be at least 1",
		}
	}
	if c.Boundary.MaxClusterSize < c.Boundary.MinClusterSize {
		return &ConfigurationError{
			Field:  "boundary.max_cluster_size",
			Reason: "must be >= min_cluster_size",
		}
	}

	if _, err := c.CompiledRules(); err != nil {
		return err
	}

	return nil
}

// CompiledRule pairs a compiled matcher with its boundary type.
type CompiledRule struct {
	Pattern *regexp.Regexp
	Type    models.BoundaryType
}

// CompiledRules compiles the configured rule table (or the defaults when no
// rules are configured), preserving order.
func (c *Config) CompiledRules() ([]CompiledRule, error) {
	rules := c.Boundary.Rules
	if len(rules) == 0 {
		rules = DefaultRules
	}

	compiled := make([]CompiledRule, 0, len(rules))
	for i, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, &ConfigurationError{
				Field:  fmt.Sprintf("boundary.rules[%d].pattern", i),
				Reason: err.Error(),
			}
		}
		switch models.BoundaryType(rule.Type) {
		case models.BoundaryAPI, models.BoundaryData, models.BoundaryBusiness,
			models.BoundaryInfrastructure, models.BoundaryUtility:
		default:
			return nil, &ConfigurationError{
				Field:  fmt.Sprintf("boundary.rules[%d].type", i),
				Reason: fmt.Sprintf("unknown boundary type %q", rule.Type),
			}
		}
		compiled = append(compiled, CompiledRule{
			Pattern: re,
			Type:    models.BoundaryType(rule.Type),
		})
	}
	return compiled, nil
}

// ExtensionMap converts the configured language overrides to parser types.
func (c *Config) ExtensionMap() map[string]parser.Language {
	if len(c.Analysis.Languages) == 0 {
		return nil
	}
	m := make(map[string]parser.Language, len(c.Analysis.Languages))
	for ext, lang := range c.Analysis.Languages {
		m[strings.ToLower(ext)] = parser.Language(lang)
	}
	return m
}
