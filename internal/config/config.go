// Package config layers command configuration: struct defaults, then an optional YAML
// file, then environment variables, then command-line flags.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// LoadYAML decodes the YAML file at path over dst. An empty path is a no-op.
func LoadYAML(path string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ParseEnv applies `env` struct tags to dst. A nil environ reads the process environment.
func ParseEnv(dst any, environ map[string]string) error {
	var opts env.Options
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(dst, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Layered fills cfg from every layer. register binds the command's flags to a config
// value; it is called twice, first to find the -config path and then to apply the flags
// over the file and environment layers so that only flags given on the command line win.
func Layered[T any](fs *flag.FlagSet, args []string, environ map[string]string, cfg *T, register func(*flag.FlagSet, *T), configPath func(*T) string) error {
	scratch := *cfg
	pre := flag.NewFlagSet(fs.Name(), flag.ContinueOnError)
	pre.SetOutput(io.Discard)
	register(pre, &scratch)
	if err := pre.Parse(args); err == nil {
		if err := LoadYAML(configPath(&scratch), cfg); err != nil {
			return err
		}
		if err := ParseEnv(cfg, environ); err != nil {
			return err
		}
	}

	register(fs, cfg)
	return fs.Parse(args)
}
