// Package cliconfig manages the CLI context file at
// ~/.nodeboard/config.yaml: named API targets plus per-context cache
// tuning, with a "current" pointer the --context flag overrides.
package cliconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the production AeroNyx endpoint.
const DefaultAPIURL = "https://api.aeronyx.network"

func defaultContext() Context {
	return Context{
		Name:   "default",
		APIURL: DefaultAPIURL,
	}
}

func defaultConfig() Config {
	ctx := defaultContext()
	return Config{
		Current:  ctx.Name,
		Contexts: map[string]Context{ctx.Name: ctx},
	}
}

// ConfigPath returns ~/.nodeboard/config.yaml, creating the directory.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".nodeboard")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config file, falling back to defaults when it does not
// exist yet. The path the config came from (or should be saved to) is
// returned alongside.
func Load() (Config, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, "", err
	}
	return LoadFrom(path)
}

// LoadFrom reads a config from an explicit path.
func LoadFrom(path string) (Config, string, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return defaultConfig(), path, nil
	}
	if err != nil {
		return Config{}, path, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, path, err
	}
	if cfg.Contexts == nil || cfg.Current == "" { // minimal fixup
		d := defaultConfig()
		if cfg.Contexts == nil {
			cfg.Contexts = d.Contexts
		}
		if cfg.Current == "" {
			cfg.Current = d.Current
		}
	}
	return cfg, path, nil
}

// Save writes the config. An empty path means the default location.
func Save(cfg Config, path string) error {
	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return err
		}
	}
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// GetCurrent resolves the active context, preferring name when given.
func GetCurrent(cfg Config, name string) (Context, error) {
	if name == "" {
		name = cfg.Current
	}
	if c, ok := cfg.Contexts[name]; ok {
		if c.APIURL == "" {
			c.APIURL = DefaultAPIURL
		}
		return c, nil
	}
	if name == "" || name == "default" {
		return defaultContext(), nil
	}
	return Context{}, fmt.Errorf("context %q not found; run 'nodeboard context list'", name)
}

// Use switches the current context to name.
func Use(cfg *Config, name string) error {
	if _, ok := cfg.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	cfg.Current = name
	return nil
}

// Set adds or replaces a context by name.
func Set(cfg *Config, ctx Context) {
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]Context)
	}
	cfg.Contexts[ctx.Name] = ctx
	if cfg.Current == "" {
		cfg.Current = ctx.Name
	}
}

// EnvOverrides maps the context's cache tuning onto the NODEBOARD_* env
// keys the cache constructors read. Callers apply these only for keys
// the process environment does not already set, so explicit env wins.
func (c Context) EnvOverrides() map[string]string {
	out := make(map[string]string)
	if c.NodesTTLSeconds > 0 {
		out["NODEBOARD_NODES_TTL_SECONDS"] = strconv.Itoa(c.NodesTTLSeconds)
	}
	if c.CodesTTLSeconds > 0 {
		out["NODEBOARD_CODES_TTL_SECONDS"] = strconv.Itoa(c.CodesTTLSeconds)
	}
	return out
}
