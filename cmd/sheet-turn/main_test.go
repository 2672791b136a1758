package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/charsheet/sheet"
	"github.com/theimaginaryfoundation/charsheet/sheet/store"
)

var testNow = time.Date(2024, time.March, 3, 15, 4, 0, 0, time.UTC)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("sheet-turn", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-chat", "c1",
		"-persona", "p.txt",
		"-persona-name", "Sam",
		"-scenario", "s.txt",
		"-role", "bot",
		"-store", "sqlite",
		"-dsn", "sheets.db",
		"-backfill",
		"-json",
		"-pretty",
	}, map[string]string{})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.ChatID != "c1" || cfg.PersonaPath != "p.txt" || cfg.PersonaName != "Sam" || cfg.ScenarioPath != "s.txt" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Role != "bot" || cfg.Store != store.KindSQLite || cfg.DSN != "sheets.db" {
		t.Fatalf("Role=%q Store=%q DSN=%q", cfg.Role, cfg.Store, cfg.DSN)
	}
	if !cfg.Backfill || !cfg.JSON || !cfg.Pretty {
		t.Fatalf("Backfill=%v JSON=%v Pretty=%v", cfg.Backfill, cfg.JSON, cfg.Pretty)
	}
}

func TestParseFlags_ConfigFileAndEnv(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := writeFile(t, dir, "sheet.yaml", "store: sqlite\ndsn: from-yaml.db\nbackfill: true\n")

	fs := flag.NewFlagSet("sheet-turn", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-config", p}, map[string]string{"CHARSHEET_DSN": "from-env.db"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Store != store.KindSQLite || cfg.DSN != "from-env.db" || !cfg.Backfill {
		t.Fatalf("Store=%q DSN=%q Backfill=%v", cfg.Store, cfg.DSN, cfg.Backfill)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []Config{
		{Store: "redis", DSN: "x", Role: "user"},
		{Store: store.KindFile, Role: "user"},
		{Store: store.KindFile, DSN: "x", Role: "narrator"},
		{Store: store.KindFile, DSN: "x", Role: "user", PayloadPath: "a.json", PersonaPath: "p.txt"},
		{Store: store.KindFile, DSN: "x", Role: "user", ChatID: "../escape"},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Fatalf("expected error for %+v", c)
		}
	}
}

func TestRun_PersonaFilesAndPersistence(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := defaultConfig()
	cfg.ChatID = "chat-1"
	cfg.DSN = filepath.Join(dir, "sheets")
	cfg.PersonaPath = writeFile(t, dir, "persona.txt", "I'm Sarah, 27 years old. Gender: female.")
	cfg.ScenarioPath = writeFile(t, dir, "scenario.txt", "Current date: March 3rd, 2024.\nTime: dusk")

	var out bytes.Buffer
	if err := run(context.Background(), cfg, zap.NewNop(), &out, testNow); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{"chat_id=chat-1", "directive=[Character sheet:", "Name: Sarah", "Age: 27", "Date: March 3rd, 2024", "Time: dusk", "I. Vaginal Physiology"} {
		if !strings.Contains(text, want) {
			t.Fatalf("output lacks %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Penile Physiology") {
		t.Fatalf("female sheet shows penile section:\n%s", text)
	}

	fst := store.NewFileStore(cfg.DSN)
	saved, found, err := fst.Load(context.Background(), "chat-1")
	if err != nil || !found {
		t.Fatalf("Load found=%v err=%v", found, err)
	}
	if saved.CharacterName == nil || *saved.CharacterName != "Sarah" || saved.PreviousState == nil {
		t.Fatalf("saved state incomplete: name=%v prev=%v", saved.CharacterName, saved.PreviousState)
	}

	// A bot turn without sources reuses the persisted sheet and carries no directive.
	next := defaultConfig()
	next.ChatID = "chat-1"
	next.DSN = cfg.DSN
	next.Role = string(sheet.RoleBot)
	out.Reset()
	if err := run(context.Background(), next, zap.NewNop(), &out, testNow); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(out.String(), "directive=") {
		t.Fatalf("bot turn printed a directive:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Name: Sarah") {
		t.Fatalf("persisted name lost:\n%s", out.String())
	}
}

func TestRun_PayloadJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	payload := writeFile(t, dir, "turn.json", `{
		"chatId": "host-7",
		"users": [{"name": "Sam", "chatProfile": "I am Marcus. Sex: male."}],
		"characters": [{"name": "Guide", "scenario": "A quiet town."}],
		"message": {"isBot": false, "content": "hi"},
		"state": {"health": 55}
	}`)
	cfg := defaultConfig()
	cfg.PayloadPath = payload
	cfg.Store = store.KindSQLite
	cfg.DSN = filepath.Join(dir, "sheets.db")
	cfg.JSON = true

	var out bytes.Buffer
	if err := run(context.Background(), cfg, zap.NewNop(), &out, testNow); err != nil {
		t.Fatalf("run: %v", err)
	}
	var got turnOutput
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if got.ChatID != "host-7" || got.Directive == "" {
		t.Fatalf("chat_id=%q directive=%q", got.ChatID, got.Directive)
	}
	rows := make(map[string]string)
	for _, r := range got.Sheet.Identity {
		rows[r.Key] = r.Value
	}
	if rows["characterName"] != "Marcus" || rows["characterGender"] != "Male" || rows["health"] != "55" {
		t.Fatalf("identity rows=%v", rows)
	}
	if rows["worldDate"] != "March 3, 2024" || rows["worldTime"] != "3:04 PM" {
		t.Fatalf("clock fallback rows=%v", rows)
	}
	for _, s := range got.Sheet.Sections {
		if s.Key == string(sheet.VaginalPhysiology) {
			t.Fatalf("male sheet shows vaginal section")
		}
		if s.Key == string(sheet.PenilePhysiology) && s.Ordinal != "II" {
			t.Fatalf("penile ordinal=%q, want II", s.Ordinal)
		}
	}
}

func TestLoadInput_GeneratesChatID(t *testing.T) {
	t.Parallel()

	in, err := loadInput(defaultConfig())
	if err != nil {
		t.Fatalf("loadInput: %v", err)
	}
	if !store.ValidChatID(in.chatID) || len(in.chatID) != 36 {
		t.Fatalf("chatID=%q, want a UUID", in.chatID)
	}
	if in.message.Role != sheet.RoleUser || in.sources.Persona != nil {
		t.Fatalf("input=%+v", in)
	}
}
