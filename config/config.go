// Package config gathers the settings the asset tools run with.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// EnvPrefix prefixes every environment variable Load reads.
const EnvPrefix = "RENDER_ASSETS_"

var ErrInvalid = errors.New("config: invalid configuration")

// Config defines the runtime settings of the asset loader and registry.
type Config struct {
	// AssetRoot is the directory manifest paths are resolved against.
	AssetRoot string
	// ManifestPath is relative to AssetRoot.
	ManifestPath string
	// Concurrency caps parallel decodes. Zero means one per CPU.
	Concurrency int

	LogLevel  string
	LogFormat string

	// StrictInvariants re-checks the registry bindings after every mutation.
	StrictInvariants bool
}

func Default() Config {
	return Config{
		AssetRoot:    "assets",
		ManifestPath: "assets.yaml",
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Load starts from Default, applies the given dotenv files (missing files
// are skipped) and finally the RENDER_ASSETS_* environment variables. Values
// already in the environment win over dotenv files.
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a configuration from lookup, which has the shape of
// os.LookupEnv.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	c := Default()
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	str("ROOT", &c.AssetRoot)
	str("MANIFEST", &c.ManifestPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	if v, ok := lookup(EnvPrefix + "CONCURRENCY"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %sCONCURRENCY=%q", ErrInvalid, EnvPrefix, v))
		}
		c.Concurrency = n
	}
	if v, ok := lookup(EnvPrefix + "STRICT"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %sSTRICT=%q", ErrInvalid, EnvPrefix, v))
		}
		c.StrictInvariants = b
	}
	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if c.AssetRoot == "" {
		errs = append(errs, fmt.Errorf("%w: empty asset root", ErrInvalid))
	}
	if c.ManifestPath == "" {
		errs = append(errs, fmt.Errorf("%w: empty manifest path", ErrInvalid))
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("%w: concurrency %d", ErrInvalid, c.Concurrency))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: log format %q", ErrInvalid, c.LogFormat))
	}
	return errors.Join(errs...)
}

// NewLogger builds a logger with the configured level and format.
func (c Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	log := logrus.New()
	log.SetLevel(level)
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log, nil
}
