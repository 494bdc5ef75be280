package app

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"bladec/pkg/blade"
	"bladec/pkg/utils/coerce"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is everything the CLI needs to build a compiler.
type Config struct {
	Env              string
	LogLevel         string
	ViewsPath        string
	CachePath        string
	Extension        string
	EchoFormat       string
	StrictComponents bool
	MetricsFile      string
	Directives       map[string]string
}

// LoadConfig reads .env, BLADE_* variables and an optional .bladec.yaml.
// configFile overrides the config file search when non-empty.
func LoadConfig(configFile string) (*Config, error) {
	// Missing .env is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("views_path", blade.DefaultViewsPath)
	v.SetDefault("cache_path", blade.DefaultCachePath)
	v.SetDefault("extension", blade.DefaultExtension)
	v.SetDefault("echo_format", blade.DefaultEchoFormat)
	v.SetDefault("strict_components", false)
	v.SetDefault("metrics_file", "")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("BLADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("env", "APP_ENV"); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".bladec")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	strict, err := coerce.ToBool(v.Get("strict_components"))
	if err != nil {
		return nil, fmt.Errorf("strict_components: %w", err)
	}
	directives, err := coerce.ToStringMap(v.Get("directives"))
	if err != nil {
		return nil, fmt.Errorf("directives: %w", err)
	}

	return &Config{
		Env:              coerce.ToString(v.Get("env")),
		LogLevel:         coerce.ToString(v.Get("log_level")),
		ViewsPath:        coerce.ToString(v.Get("views_path")),
		CachePath:        coerce.ToString(v.Get("cache_path")),
		Extension:        coerce.ToString(v.Get("extension")),
		EchoFormat:       coerce.ToString(v.Get("echo_format")),
		StrictComponents: strict,
		MetricsFile:      coerce.ToString(v.Get("metrics_file")),
		Directives:       directives,
	}, nil
}

// NewCompiler builds a compiler with its own registry holding the
// directives declared in the config file.
func (c *Config) NewCompiler() (*blade.Compiler, error) {
	registry := blade.NewRegistry()

	names := make([]string, 0, len(c.Directives))
	for name := range c.Directives {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := registry.Register(name, blade.TemplateDirective(c.Directives[name])); err != nil {
			return nil, fmt.Errorf("directive %q: %w", name, err)
		}
		slog.Debug("Registered config directive", "name", name)
	}

	return blade.New(blade.Options{
		ViewsPath:        c.ViewsPath,
		CachePath:        c.CachePath,
		Extension:        c.Extension,
		EchoFormat:       c.EchoFormat,
		StrictComponents: c.StrictComponents,
		Registry:         registry,
	}), nil
}
