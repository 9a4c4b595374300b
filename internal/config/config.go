package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/iVampireSP/typefinder"
)

const (
	// AppName is the application name.
	AppName = "typefinder"
	// FileName is the config file looked up in the host directory.
	FileName = "typefinder.cue"
	// EnvPrefix prefixes environment overrides, e.g. TYPEFINDER_SKIP_PATTERN.
	EnvPrefix = "TYPEFINDER"
)

//go:embed config_schema.cue
var configSchema string

// Config is the typefinder configuration.
type Config struct {
	Dir                 string   `mapstructure:"dir"`
	Patterns            []string `mapstructure:"patterns"`
	Modules             []string `mapstructure:"modules"`
	SkipPattern         string   `mapstructure:"skip_pattern"`
	RestrictPattern     string   `mapstructure:"restrict_pattern"`
	LoadFromHost        bool     `mapstructure:"load_from_host"`
	ReportDeclaringType bool     `mapstructure:"report_declaring_type"`
	CacheSize           int      `mapstructure:"cache_size"`
	Verbose             bool     `mapstructure:"verbose"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// ConfigFilePath is used exclusively when set.
	ConfigFilePath string
	// Dir is searched for typefinder.cue and .env when ConfigFilePath is empty.
	Dir string
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Dir:                 ".",
		Patterns:            []string{"./..."},
		Modules:             []string{},
		SkipPattern:         typefinder.DefaultSkipPattern,
		RestrictPattern:     typefinder.DefaultRestrictPattern,
		LoadFromHost:        true,
		ReportDeclaringType: true,
	}
}

// Load reads the configuration. It returns the config and the path of the
// config file used, empty when none was found.
func Load(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if err := loadDotEnv(dir); err != nil {
		return nil, "", err
	}

	v := viper.New()
	defaults := DefaultConfig()
	v.SetDefault("dir", dir)
	v.SetDefault("patterns", defaults.Patterns)
	v.SetDefault("modules", defaults.Modules)
	v.SetDefault("skip_pattern", defaults.SkipPattern)
	v.SetDefault("restrict_pattern", defaults.RestrictPattern)
	v.SetDefault("load_from_host", defaults.LoadFromHost)
	v.SetDefault("report_declaring_type", defaults.ReportDeclaringType)
	v.SetDefault("cache_size", defaults.CacheSize)
	v.SetDefault("verbose", defaults.Verbose)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", fmt.Errorf("config file not found: %s", opts.ConfigFilePath)
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", err
		}
		resolvedPath = opts.ConfigFilePath
	} else if path := filepath.Join(dir, FileName); fileExists(path) {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", err
		}
		resolvedPath = path
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.CacheSize < 0 {
		return nil, "", fmt.Errorf("cache_size must not be negative, got %d", cfg.CacheSize)
	}
	return &cfg, resolvedPath, nil
}

// Options converts the configuration into engine options.
func (c *Config) Options() typefinder.Options {
	return typefinder.Options{
		SkipPattern:         c.SkipPattern,
		RestrictPattern:     c.RestrictPattern,
		LoadFromHost:        c.LoadFromHost,
		ModuleNames:         append([]string(nil), c.Modules...),
		ReportDeclaringType: c.ReportDeclaringType,
		CacheSize:           c.CacheSize,
	}
}

// loadDotEnv loads dir/.env without overriding variables already set.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config
// schema, and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ctx := cuecontext.New()
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return fmt.Errorf("%s: %w", path, userValue.Err())
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
