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

// Token maps a bearer token to a tenant identity. This is the development
// implementation of the identity boundary; production deployments plug in a
// real provider instead.
type Token struct {
	Token    string `koanf:"token" validate:"required"`
	ClientID string `koanf:"clientId" validate:"required"`
	UserName string `koanf:"userName"`
	Email    string `koanf:"email" validate:"omitempty,email"`
}

// Config holds everything the server needs to start.
type Config struct {
	Addr   string  `koanf:"addr" validate:"required"`
	DB     string  `koanf:"db" validate:"required"`
	Tokens []Token `koanf:"tokens" validate:"dive"`
}

func defaults() Config {
	return Config{
		Addr: ":4000",
		DB:   "cardvault.db",
	}
}

// Load merges configuration from, in increasing precedence: defaults, the
// yaml file named by the --config flag (if it exists), CARDVAULT_* env vars,
// and command-line flags. The result is validated before use.
func Load(flags *pflag.FlagSet) (Config, error) {
	cfg := defaults()
	k := koanf.New(".")

	path, _ := flags.GetString("config")
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider("CARDVAULT_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "CARDVAULT_")), "_", ".")
	}), nil); err != nil {
		return cfg, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return cfg, fmt.Errorf("failed to load flags: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
