package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix     = "TRAFFICCAST_"
	EnvConfigPath = "TRAFFICCAST_CONFIG"
)

// listKeys are comma separated when set through the environment
var listKeys = map[string]struct{}{
	"cors_origins":    {},
	"horizon_allowed": {},
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if TRAFFICCAST_CONFIG is set
//  3. env (prefix TRAFFICCAST_), including variables from a .env file in the working directory
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvConfigPath))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file layer.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	// .env never overrides variables already set in the process
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, wrapLoad(err)
	}

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, wrapLoad(err)
		}
	}

	// TRAFFICCAST_HOLDOUT_PERIODS -> holdout_periods
	envProvider := env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "config" {
			return "", nil
		}
		if _, isList := listKeys[key]; isList {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, wrapLoad(err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, wrapLoad(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks process level settings. Pipeline settings are validated by PipelineOptions.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return wrapInvalid(errors.New("addr must not be empty"))
	}
	if c.MaxUploadBytes <= 0 {
		return wrapInvalid(errors.New("max_upload_bytes must be positive"))
	}
	return nil
}

func splitList(value string) []string {
	var res []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}
