// Package config loads run settings from defaults, an optional YAML file, a
// .env file and COGS_* environment variables, in that order. Command-line
// flags are applied on top by the caller before Finalize.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Organisms    []Organism `yaml:"organisms" validate:"dive"`
	OrganismList string     `yaml:"organism_list"`
	HitDir       string     `yaml:"hit_dir" validate:"required"`
	Store        Store      `yaml:"store"`
	Retry        Retry      `yaml:"retry"`
	Align        Align      `yaml:"align"`
	Output       Output     `yaml:"output"`
	Log          Log        `yaml:"log"`
	Checkpoint   string     `yaml:"checkpoint"`
	DumpEdges    string     `yaml:"dump_edges"`
	MetricsFile  string     `yaml:"metrics_file"`
}

// Organism is an inline organism entry.
type Organism struct {
	Name string `yaml:"name" validate:"required"`
	Path string `yaml:"path" validate:"required"`
}

type Store struct {
	// Driver is memory or postgres; empty picks postgres when URL is set.
	Driver string `yaml:"driver" validate:"oneof=memory postgres"`
	URL    string `yaml:"url" validate:"required_if=Driver postgres"`
	Reset  bool   `yaml:"reset"`
}

type Retry struct {
	MaxAttempts     uint          `yaml:"max_attempts" validate:"min=1,max=50"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval" validate:"gtefield=InitialInterval"`
}

type Align struct {
	Enabled bool   `yaml:"enabled"`
	Command string `yaml:"command" validate:"required_if=Enabled true"`
	Workers int    `yaml:"workers" validate:"min=1,max=256"`
}

type Output struct {
	Format    string `yaml:"format" validate:"oneof=text tsv json jsonl fasta"`
	Header    bool   `yaml:"header"`
	Sequences bool   `yaml:"sequences"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Retry: Retry{
			MaxAttempts:     3,
			InitialInterval: 200 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Align:  Align{Command: "mafft --auto -", Workers: 4},
		Output: Output{Format: "text", Header: true},
		Log:    Log{Level: "info", Format: "console"},
	}
}

// Load layers path (optional, YAML), envFile (optional, dotenv) and the
// process environment over Default. Missing optional files are not errors
// unless named explicitly.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadYAML(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := loadDotEnv(envFile); err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv loads name into the environment without overriding variables
// that are already set. An empty name tries ".env" and ignores its absence.
func loadDotEnv(name string) error {
	explicit := name != ""
	if !explicit {
		name = ".env"
	}
	err := godotenv.Load(name)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("env file %s: %w", name, err)
	}
	return nil
}

// ApplyEnv overlays COGS_* variables read through lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("COGS_ORGANISM_LIST", &cfg.OrganismList)
	str("COGS_HIT_DIR", &cfg.HitDir)
	str("COGS_DATABASE_URL", &cfg.Store.URL)
	str("COGS_STORE", &cfg.Store.Driver)
	str("COGS_CHECKPOINT", &cfg.Checkpoint)
	str("COGS_METRICS_FILE", &cfg.MetricsFile)
	str("COGS_LOG_LEVEL", &cfg.Log.Level)
	str("COGS_LOG_FORMAT", &cfg.Log.Format)
	str("COGS_OUTPUT", &cfg.Output.Format)
	if v, ok := lookup("COGS_ALIGNER"); ok && v != "" {
		cfg.Align.Command = v
		cfg.Align.Enabled = true
	}
	if v, ok := lookup("COGS_ALIGN_WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("COGS_ALIGN_WORKERS: %w", err)
		}
		cfg.Align.Workers = n
	}
	if v, ok := lookup("COGS_RETRY_ATTEMPTS"); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("COGS_RETRY_ATTEMPTS: %w", err)
		}
		cfg.Retry.MaxAttempts = uint(n)
	}
	return nil
}

var validate = validator.New()

// Finalize fills derived defaults and validates the result.
func (c *Config) Finalize() error {
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
		if c.Store.URL != "" {
			c.Store.Driver = "postgres"
		}
	}
	if len(c.Organisms) == 0 && c.OrganismList == "" {
		return errors.New("no organisms: set organisms or organism_list")
	}
	if len(c.Organisms) > 0 && c.OrganismList != "" {
		return errors.New("organisms and organism_list are mutually exclusive")
	}
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be below %s", field, strings.ToLower(e.Param()))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
