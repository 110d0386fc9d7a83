package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables read into the config.
const envPrefix = "CERTPREP_"

// Config holds the runtime settings for the practice tool.
type Config struct {
	DBPath string `koanf:"db_path" validate:"required"`
	Listen string `koanf:"listen" validate:"required,hostname_port"`

	// DefaultUserID identifies reviews when no user is supplied by the
	// caller, for single-user installations. It is deliberately a
	// setting rather than a constant baked into the engine.
	DefaultUserID int64 `koanf:"default_user_id" validate:"gte=1"`

	// SessionSize is the default number of questions per practice session.
	SessionSize int `koanf:"session_size" validate:"gte=1,lte=200"`

	// ReposDir caches clones of git-hosted question bank sources.
	ReposDir string `koanf:"repos_dir" validate:"required"`
}

// Flags returns the command-line flag set whose defaults seed the
// config. Flag names double as config keys for the file and env layers.
func Flags() *pflag.FlagSet {
	f := pflag.NewFlagSet("certprep", pflag.ContinueOnError)
	f.String("config", "", "path to a YAML config file")
	f.String("db_path", "certprep.db", "path to the SQLite database file")
	f.String("listen", "127.0.0.1:8080", "address for the HTTP API")
	f.Int64("default_user_id", 1, "user ID for unauthenticated reviews")
	f.Int("session_size", 65, "default questions per practice session")
	f.String("repos_dir", "repos", "cache directory for git question bank sources")
	return f
}

// Load builds the config by merging, in increasing precedence: flag
// defaults, the optional YAML file, CERTPREP_* environment variables,
// and explicitly set flags.
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := f.GetString("config"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, any) {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flag config: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
