package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/theimaginaryfoundation/charsheet/sheet"
	"github.com/theimaginaryfoundation/charsheet/sheet/store"
)

type Config struct {
	ConfigPath   string `yaml:"-"`
	ChatID       string `yaml:"-"`
	PayloadPath  string `yaml:"-"`
	PersonaPath  string `yaml:"-"`
	PersonaName  string `yaml:"-"`
	ScenarioPath string `yaml:"-"`
	Role         string `yaml:"-"`

	Store    string `yaml:"store" env:"CHARSHEET_STORE"`
	DSN      string `yaml:"dsn" env:"CHARSHEET_DSN"`
	Backfill bool   `yaml:"backfill"`
	JSON     bool   `yaml:"json"`
	Pretty   bool   `yaml:"pretty"`
	Debug    bool   `yaml:"debug" env:"CHARSHEET_DEBUG"`
}

func (c Config) Validate() error {
	if c.Store != store.KindFile && c.Store != store.KindSQLite {
		return fmt.Errorf("unknown -store %q (want %s or %s)", c.Store, store.KindFile, store.KindSQLite)
	}
	if c.DSN == "" {
		return errors.New("missing -dsn")
	}
	if c.PayloadPath != "" && (c.PersonaPath != "" || c.ScenarioPath != "") {
		return errors.New("-payload cannot be combined with -persona or -scenario")
	}
	if c.Role != string(sheet.RoleUser) && c.Role != string(sheet.RoleBot) {
		return fmt.Errorf("unknown -role %q (want user or bot)", c.Role)
	}
	if c.ChatID != "" && !store.ValidChatID(c.ChatID) {
		return fmt.Errorf("invalid -chat %q", c.ChatID)
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		Role:  string(sheet.RoleUser),
		Store: store.KindFile,
		DSN:   filepath.FromSlash("data/sheets"),
	}
}
