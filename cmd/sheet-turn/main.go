package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/charsheet/internal/config"
	"github.com/theimaginaryfoundation/charsheet/internal/logging"
	"github.com/theimaginaryfoundation/charsheet/sheet"
	"github.com/theimaginaryfoundation/charsheet/sheet/hostpayload"
	"github.com/theimaginaryfoundation/charsheet/sheet/store"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:], nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	logger, err := logging.New(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, os.Stdout, time.Now()); err != nil {
		logger.Error("turn failed", zap.Error(err))
		os.Exit(1)
	}
}

func registerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "YAML file with store/dsn/backfill/json/pretty/debug settings")
	fs.StringVar(&cfg.ChatID, "chat", cfg.ChatID, "Chat id to load and save state under (default: payload chatId, else a new UUID)")
	fs.StringVar(&cfg.PayloadPath, "payload", cfg.PayloadPath, "Host turn payload JSON (users, characters, message, state)")
	fs.StringVar(&cfg.PersonaPath, "persona", cfg.PersonaPath, "Text file with the user's persona")
	fs.StringVar(&cfg.PersonaName, "persona-name", cfg.PersonaName, "Display name used when the persona does not state a name")
	fs.StringVar(&cfg.ScenarioPath, "scenario", cfg.ScenarioPath, "Text file with the character scenario")
	fs.StringVar(&cfg.Role, "role", cfg.Role, "Author of the current message: user or bot")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "State store: file or sqlite (env CHARSHEET_STORE)")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Store location: directory for file, database path for sqlite (env CHARSHEET_DSN)")
	fs.BoolVar(&cfg.Backfill, "backfill", cfg.Backfill, "Also fill declared fields missing from persisted categories")
	fs.BoolVar(&cfg.JSON, "json", cfg.JSON, "Print the directive and rendered sheet as JSON")
	fs.BoolVar(&cfg.Pretty, "pretty", cfg.Pretty, "Indent JSON output")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
}

func parseFlags(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/sheet-turn -payload turn.json -store sqlite -dsn sheets.db")
	}

	if err := config.Layered(fs, args, environ, &cfg, registerFlags, func(c *Config) string { return c.ConfigPath }); err != nil {
		return Config{}, err
	}
	if cfg.DSN != "" {
		cfg.DSN = filepath.Clean(cfg.DSN)
	}
	return cfg, nil
}

type turnInput struct {
	chatID  string
	sources sheet.Sources
	message sheet.Message
	state   *sheet.State
}

func loadInput(cfg Config) (turnInput, error) {
	in := turnInput{chatID: cfg.ChatID}

	if cfg.PayloadPath != "" {
		b, err := os.ReadFile(cfg.PayloadPath)
		if err != nil {
			return turnInput{}, fmt.Errorf("read -payload: %w", err)
		}
		p, err := hostpayload.Parse(b)
		if err != nil {
			return turnInput{}, err
		}
		if in.chatID == "" {
			in.chatID = p.ChatID
		}
		in.sources = p.Sources
		in.message = p.Message
		if p.HasState {
			in.state = &p.State
		}
	} else {
		in.message = sheet.Message{Role: sheet.Role(cfg.Role)}
		if cfg.PersonaPath != "" {
			text, err := os.ReadFile(cfg.PersonaPath)
			if err != nil {
				return turnInput{}, fmt.Errorf("read -persona: %w", err)
			}
			in.sources.Persona = &sheet.Persona{DisplayName: cfg.PersonaName, Text: string(text)}
		}
		if cfg.ScenarioPath != "" {
			text, err := os.ReadFile(cfg.ScenarioPath)
			if err != nil {
				return turnInput{}, fmt.Errorf("read -scenario: %w", err)
			}
			scenario := string(text)
			in.sources.Scenario = &scenario
		}
	}

	if in.chatID == "" {
		in.chatID = uuid.NewString()
	}
	if !store.ValidChatID(in.chatID) {
		return turnInput{}, fmt.Errorf("invalid chat id %q", in.chatID)
	}
	return in, nil
}

type turnOutput struct {
	ChatID    string         `json:"chat_id"`
	Directive string         `json:"directive"`
	Sheet     sheet.View     `json:"sheet"`
	Changes   []sheet.Change `json:"changes"`
}

func run(ctx context.Context, cfg Config, logger *zap.Logger, out io.Writer, now time.Time) error {
	in, err := loadInput(cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store, cfg.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.Warn("close store", zap.Error(cerr))
		}
	}()

	var persisted sheet.State
	if in.state != nil {
		persisted = *in.state
		logger.Debug("using state from host payload", zap.String("chat_id", in.chatID))
	} else {
		loaded, found, err := st.Load(ctx, in.chatID)
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		if found {
			persisted = loaded
		}
		logger.Debug("loaded state", zap.String("chat_id", in.chatID), zap.Bool("found", found))
	}

	var opts []sheet.HydrateOption
	if cfg.Backfill {
		opts = append(opts, sheet.WithFieldBackfill())
	}
	sess := sheet.Open(persisted, in.sources, opts...)
	res := sess.BeforePrompt(in.message)
	if res.Error != "" {
		return errors.New(res.Error)
	}

	if err := st.Save(ctx, in.chatID, res.State); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	logger.Info("turn processed",
		zap.String("chat_id", in.chatID),
		zap.String("role", string(in.message.Role)),
		zap.Int("unresolved", len(sheet.Unresolved(res.State))),
		zap.Bool("directive", res.Directive != ""),
	)

	view := sess.Render(now)
	if cfg.JSON {
		enc := json.NewEncoder(out)
		if cfg.Pretty {
			enc.SetIndent("", "  ")
		}
		return enc.Encode(turnOutput{
			ChatID:    in.chatID,
			Directive: res.Directive,
			Sheet:     view,
			Changes:   sess.Changes(),
		})
	}

	fmt.Fprintf(out, "chat_id=%s\n", in.chatID)
	if res.Directive != "" {
		fmt.Fprintf(out, "directive=%s\n", res.Directive)
	}
	fmt.Fprintln(out)
	return writeView(out, view)
}
