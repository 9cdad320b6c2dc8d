// Package config resolves runtime settings from built-in defaults, an
// optional YAML file and PAPERCHUNK_* environment variables. Command-line
// flags are layered on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csheth/paperchunk/internal/chunk"
	"github.com/csheth/paperchunk/internal/prompts"
	"github.com/csheth/paperchunk/internal/source"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Mode picks which artifacts are produced.
type Mode string

const (
	// ModeUnset lets the entry point choose: chunked for one paper, auto for batches.
	ModeUnset    Mode = ""
	ModeChunked  Mode = "chunked"
	ModeCombined Mode = "combined"
	// ModeAuto writes combined prompts when the paper fits under the ceiling.
	ModeAuto Mode = "auto"
)

const (
	envPrefix      = "PAPERCHUNK_"
	defaultWorkers = 4
	defaultPattern = "*.pdf"
)

// LLM configures optional dispatch of one template per chunk to a model.
type LLM struct {
	// Summarize is the template key to send; empty disables dispatch.
	Summarize string `yaml:"summarize"`
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Endpoint  string `yaml:"endpoint"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Config is the resolved runtime configuration.
type Config struct {
	chunk.Budget `yaml:",inline"`

	Mode      Mode   `yaml:"mode"`
	OutputDir string `yaml:"output_dir"`
	Workers   int    `yaml:"workers"`
	Pattern   string `yaml:"pattern"`

	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	CacheDir      string        `yaml:"cache_dir"`
	UserAgent     string        `yaml:"user_agent"`
	ArxivMetadata bool          `yaml:"arxiv_metadata"`

	// LiteralNormalize collapses all whitespace before paragraph detection.
	LiteralNormalize bool `yaml:"literal_normalize"`

	Templates []prompts.Template `yaml:"templates"`
	// Only restricts output to these template keys.
	Only []string `yaml:"only"`

	LLM LLM `yaml:"llm"`
	Log Log `yaml:"log"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Budget:        chunk.DefaultBudget(),
		OutputDir:     ".",
		Workers:       defaultWorkers,
		Pattern:       defaultPattern,
		HTTPTimeout:   source.DefaultHTTPTimeout,
		UserAgent:     source.DefaultUserAgent,
		ArxivMetadata: true,
		Log:           Log{Level: "info"},
	}
}

// DefaultPath is ~/.paperchunk/config.yaml.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".paperchunk", "config.yaml")
}

// Load layers the file at path (or PAPERCHUNK_CONFIG, or the default path)
// and the environment over Default. A missing file is only an error when it
// was named explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := true
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(envPrefix + "CONFIG"))
	}
	if path == "" {
		path = DefaultPath()
		explicit = false
	}

	found, err := loadFile(path, &cfg)
	if err != nil {
		return cfg, err
	}
	if found {
		cfg.Path = path
	} else if explicit {
		return cfg, fmt.Errorf("%w: config file %s not found", ErrInvalid, path)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	cfg.OutputDir = expandUserPath(cfg.OutputDir)
	cfg.CacheDir = expandUserPath(cfg.CacheDir)
	return cfg, cfg.Validate()
}

func loadFile(path string, cfg *Config) (bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return false, fmt.Errorf("%w: parsing %s: %w", ErrInvalid, path, err)
	}
	return true, nil
}

func applyEnv(cfg *Config) error {
	ints := map[string]*int{
		"TARGET_CHUNK_CHARS":   &cfg.TargetChars,
		"MAX_TOKENS_PER_CHUNK": &cfg.MaxTokens,
		"CHARS_PER_TOKEN":      &cfg.CharsPerToken,
		"WORKERS":              &cfg.Workers,
	}
	for key, dst := range ints {
		if v := env(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a number", ErrInvalid, envPrefix, key, v)
			}
			*dst = n
		}
	}

	strs := map[string]*string{
		"OUTPUT_DIR":    &cfg.OutputDir,
		"PATTERN":       &cfg.Pattern,
		"CACHE_DIR":     &cfg.CacheDir,
		"USER_AGENT":    &cfg.UserAgent,
		"LLM_SUMMARIZE": &cfg.LLM.Summarize,
		"LLM_PROVIDER":  &cfg.LLM.Provider,
		"LLM_MODEL":     &cfg.LLM.Model,
		"LLM_ENDPOINT":  &cfg.LLM.Endpoint,
		"LOG_LEVEL":     &cfg.Log.Level,
	}
	for key, dst := range strs {
		if v := env(key); v != "" {
			*dst = v
		}
	}
	if v := env("MODE"); v != "" {
		cfg.Mode = Mode(strings.ToLower(v))
	}
	if v := env("HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sHTTP_TIMEOUT: %w", ErrInvalid, envPrefix, err)
		}
		cfg.HTTPTimeout = d
	}
	bools := map[string]*bool{
		"LOG_JSON":          &cfg.Log.JSON,
		"ARXIV_METADATA":    &cfg.ArxivMetadata,
		"LITERAL_NORMALIZE": &cfg.LiteralNormalize,
	}
	for key, dst := range bools {
		if v := env(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalid, envPrefix, key, v)
			}
			*dst = b
		}
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(envPrefix + key))
}

// Validate reports the first problem found.
func (c Config) Validate() error {
	if err := c.Budget.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	switch c.Mode {
	case ModeUnset, ModeChunked, ModeCombined, ModeAuto:
	default:
		return fmt.Errorf("%w: mode %q must be chunked, combined or auto", ErrInvalid, c.Mode)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, c.Workers)
	}
	if strings.TrimSpace(c.Pattern) == "" {
		return fmt.Errorf("%w: pattern must not be empty", ErrInvalid)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("%w: http_timeout must be positive", ErrInvalid)
	}
	templates, err := c.ResolveTemplates()
	if err != nil {
		return err
	}
	if key := strings.TrimSpace(c.LLM.Summarize); key != "" {
		if _, ok := prompts.Lookup(templates, key); !ok {
			return fmt.Errorf("%w: llm.summarize names unknown template %q", ErrInvalid, key)
		}
	}
	return nil
}

// ResolveTemplates merges configured templates over the built-ins and
// applies the Only filter.
func (c Config) ResolveTemplates() ([]prompts.Template, error) {
	merged, err := prompts.Merge(prompts.Builtin(), c.Templates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	selected, err := prompts.Select(merged, c.Only)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return selected, nil
}

// OrDefault returns m, or fallback when m is unset.
func (m Mode) OrDefault(fallback Mode) Mode {
	if m == ModeUnset {
		return fallback
	}
	return m
}

// ResolvedMode returns c.Mode, or fallback when it is unset.
func (c Config) ResolvedMode(fallback Mode) Mode {
	return c.Mode.OrDefault(fallback)
}

func expandUserPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
