package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/theimaginaryfoundation/charsheet/sheet/store"
)

type Config struct {
	ConfigPath   string `yaml:"-"`
	ChatID       string `yaml:"-"`
	PersonaPath  string `yaml:"-"`
	ScenarioPath string `yaml:"-"`

	Store          string `yaml:"store" env:"CHARSHEET_STORE"`
	DSN            string `yaml:"dsn" env:"CHARSHEET_DSN"`
	Model          string `yaml:"model" env:"CHARSHEET_MODEL"`
	APIKey         string `yaml:"-" env:"OPENAI_API_KEY"`
	MaxSourceChars int    `yaml:"max_source_chars"`
	Overwrite      bool   `yaml:"overwrite"`
	Backup         bool   `yaml:"backup"`
	DryRun         bool   `yaml:"-"`
	Debug          bool   `yaml:"debug" env:"CHARSHEET_DEBUG"`
}

func (c Config) Validate() error {
	if c.ChatID == "" {
		return errors.New("missing -chat")
	}
	if !store.ValidChatID(c.ChatID) {
		return fmt.Errorf("invalid -chat %q", c.ChatID)
	}
	if c.Store != store.KindFile && c.Store != store.KindSQLite {
		return fmt.Errorf("unknown -store %q (want %s or %s)", c.Store, store.KindFile, store.KindSQLite)
	}
	if c.DSN == "" {
		return errors.New("missing -dsn")
	}
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.MaxSourceChars <= 0 {
		return errors.New("max source chars must be > 0")
	}
	if c.Backup && c.Store != store.KindFile {
		return errors.New("-backup needs the file store")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Store:          store.KindFile,
		DSN:            filepath.FromSlash("data/sheets"),
		Model:          "gpt-5-mini",
		MaxSourceChars: 6000,
	}
}
