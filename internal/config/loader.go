package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvConfig names the variable that points at a config file.
const EnvConfig = "EPVPREP_CONFIG"

const envPrefix = "EPVPREP_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML, or TOML for *.toml) from path, else EPVPREP_CONFIG
//  3. env (prefix EPVPREP_, "__" separates nested keys)
func Load(_ context.Context, path string) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// EPVPREP_WORKERS -> workers, EPVPREP_PATHS__MERGED -> paths.merged
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and reports the first violation by its
// config key.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("koanf")
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})

	err := v.Struct(c)
	if err == nil {
		for i := 1; i < len(c.MetricsBuckets); i++ {
			if c.MetricsBuckets[i] <= c.MetricsBuckets[i-1] {
				return fmt.Errorf("%w: metrics_buckets must be increasing (got %v)", ErrInvalidConfig, c.MetricsBuckets)
			}
		}
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			return fmt.Errorf("%w: %s failed %s=%s (got %v)", ErrInvalidConfig, key, fe.Tag(), fe.Param(), fe.Value())
		}
		return fmt.Errorf("%w: %s failed %s", ErrInvalidConfig, key, fe.Tag())
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}

func parserFor(path string) koanf.Parser {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return tomlParser{}
	}
	return yaml.Parser()
}
