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

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"go.uber.org/zap"

	"github.com/theimaginaryfoundation/charsheet/internal/config"
	"github.com/theimaginaryfoundation/charsheet/internal/logging"
	"github.com/theimaginaryfoundation/charsheet/sheet"
	"github.com/theimaginaryfoundation/charsheet/sheet/fileutils"
	"github.com/theimaginaryfoundation/charsheet/sheet/provider"
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
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "missing OPENAI_API_KEY (or pass -api-key)")
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

	client := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	f := openAIFiller{
		api:   provider.Client(&client),
		model: cfg.Model,
	}

	if err := run(ctx, cfg, f, logger, os.Stdout); err != nil {
		logger.Error("fill failed", zap.String("chat_id", cfg.ChatID), zap.Error(err))
		os.Exit(1)
	}
}

func registerFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.ConfigPath, "config", cfg.ConfigPath, "YAML file with store/dsn/model/max_source_chars/overwrite/backup/debug settings")
	fs.StringVar(&cfg.ChatID, "chat", cfg.ChatID, "Chat id whose sheet should be filled")
	fs.StringVar(&cfg.PersonaPath, "persona", cfg.PersonaPath, "Text file with the user's persona")
	fs.StringVar(&cfg.ScenarioPath, "scenario", cfg.ScenarioPath, "Text file with the character scenario")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "State store: file or sqlite (env CHARSHEET_STORE)")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "Store location: directory for file, database path for sqlite (env CHARSHEET_DSN)")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "OpenAI model used to fill TBD fields (env CHARSHEET_MODEL)")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.IntVar(&cfg.MaxSourceChars, "max-source-chars", cfg.MaxSourceChars, "Truncate persona and scenario to this many bytes in the request")
	fs.BoolVar(&cfg.Overwrite, "overwrite", cfg.Overwrite, "Accept updates for fields that already have values")
	fs.BoolVar(&cfg.Backup, "backup", cfg.Backup, "Copy the existing sheet file to <chat>.json.bak before saving (file store only)")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Print the changes without saving")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
}

func parseFlags(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExample:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/sheet-fill -chat host-7 -persona persona.txt -scenario scenario.txt -backup")
	}

	if err := config.Layered(fs, args, environ, &cfg, registerFlags, func(c *Config) string { return c.ConfigPath }); err != nil {
		return Config{}, err
	}
	if cfg.DSN != "" {
		cfg.DSN = filepath.Clean(cfg.DSN)
	}
	return cfg, nil
}

// filler proposes values for unresolved sheet fields.
type filler interface {
	Fill(ctx context.Context, req fillRequest) ([]sheet.Update, error)
}

type fillRequest struct {
	Directive  string            `json:"directive"`
	Gender     string            `json:"gender"`
	Persona    string            `json:"persona,omitempty"`
	Scenario   string            `json:"scenario,omitempty"`
	Unresolved []string          `json:"unresolved"`
	Known      map[string]string `json:"known"`
}

type fillResponse struct {
	Updates []sheet.Update `json:"updates"`
}

var fillSchema = provider.MustStrictSchema[fillResponse]()

type openAIFiller struct {
	api   provider.ResponsesAPI
	model string
}

func (f openAIFiller) Fill(ctx context.Context, req fillRequest) ([]sheet.Update, error) {
	if f.api == nil {
		return nil, errors.New("openAIFiller: api is nil")
	}
	if f.model == "" {
		return nil, errors.New("openAIFiller: model is empty")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("openAIFiller: encode request: %w", err)
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "SheetUpdates",
			Schema:      fillSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Character sheet field updates JSON"),
			Type:        "json_schema",
		},
	}
	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(string(payload), responses.EasyInputMessageRoleUser),
	}
	params := responses.ResponseNewParams{
		Model:           f.model,
		MaxOutputTokens: openai.Int(4000),
		Instructions:    openai.String(fillPrompt),
		ServiceTier:     responses.ResponseNewParamsServiceTierFlex,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := provider.CallWithRetry(ctx, f.api, params)
	if err != nil {
		return nil, err
	}

	var out fillResponse
	if err := fileutils.DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("openAIFiller: decode response: %w", err)
	}
	return out.Updates, nil
}

func readSource(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// knownFields maps the dotted path of every visible, known declared field to its value.
func knownFields(s sheet.State) map[string]string {
	gender := s.EffectiveGender()
	out := make(map[string]string)
	add := func(prefix string, g sheet.Group, fields []sheet.FieldSpec) {
		for _, fs := range fields {
			if !fs.VisibleFor(gender) {
				continue
			}
			if v, ok := g.Fields[fs.Key].Get(); ok {
				out[prefix+"."+fs.Key] = v
			}
		}
	}
	for _, c := range sheet.Categories() {
		cs, _ := sheet.Lookup(c)
		if !cs.VisibleFor(gender) {
			continue
		}
		g, ok := s.Category(cs.Category)
		if !ok {
			continue
		}
		add(string(cs.Category), g, cs.Fields)
		for _, gs := range cs.Groups {
			add(string(cs.Category)+"."+gs.Key, g.Groups[gs.Key], gs.Fields)
		}
	}
	return out
}

func buildFillRequest(s sheet.State, persona, scenario string, maxChars int) fillRequest {
	return fillRequest{
		Directive:  sheet.Directive(s),
		Gender:     string(s.EffectiveGender()),
		Persona:    fileutils.Truncate(persona, maxChars),
		Scenario:   fileutils.Truncate(scenario, maxChars),
		Unresolved: sheet.Unresolved(s),
		Known:      knownFields(s),
	}
}

// acceptUpdates drops updates for undeclared paths and, unless overwrite is set, for
// fields that are already known.
func acceptUpdates(updates []sheet.Update, unresolved []string, overwrite bool) (kept, dropped []sheet.Update) {
	open := make(map[string]bool, len(unresolved))
	for _, p := range unresolved {
		open[p] = true
	}
	for _, u := range updates {
		if !sheet.ValidPath(u.Path) || (!overwrite && !open[u.Path]) {
			dropped = append(dropped, u)
			continue
		}
		kept = append(kept, u)
	}
	return kept, dropped
}

func run(ctx context.Context, cfg Config, f filler, logger *zap.Logger, out io.Writer) error {
	persona, err := readSource(cfg.PersonaPath)
	if err != nil {
		return fmt.Errorf("read -persona: %w", err)
	}
	scenario, err := readSource(cfg.ScenarioPath)
	if err != nil {
		return fmt.Errorf("read -scenario: %w", err)
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

	persisted, found, err := st.Load(ctx, cfg.ChatID)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !found {
		logger.Warn("no persisted sheet; starting from defaults", zap.String("chat_id", cfg.ChatID))
	}

	// Identity extraction belongs to the turn; the texts here only inform the model.
	sess := sheet.Open(persisted, sheet.Sources{})
	before := sess.State()

	unresolved := sheet.Unresolved(before)
	if len(unresolved) == 0 && !cfg.Overwrite {
		fmt.Fprintf(out, "chat_id=%s nothing_to_fill\n", cfg.ChatID)
		return nil
	}

	req := buildFillRequest(before, persona, scenario, cfg.MaxSourceChars)
	logger.Debug("requesting fill", zap.String("chat_id", cfg.ChatID), zap.Int("unresolved", len(unresolved)))
	updates, err := f.Fill(ctx, req)
	if err != nil {
		return fmt.Errorf("fill: %w", err)
	}

	kept, dropped := acceptUpdates(updates, unresolved, cfg.Overwrite)
	for _, u := range dropped {
		logger.Warn("dropping update", zap.String("path", u.Path))
	}

	raw, err := json.Marshal(before)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	patched, err := sheet.ApplyUpdates(raw, kept)
	if err != nil {
		return err
	}
	var next sheet.State
	if err := json.Unmarshal(patched, &next); err != nil {
		return fmt.Errorf("decode patched state: %w", err)
	}
	sess.SetState(next)
	after := sess.State()
	changes := sheet.Diff(before, after)

	if !cfg.DryRun {
		if cfg.Backup {
			if fst, ok := st.(*store.FileStore); ok {
				p := fst.Path(cfg.ChatID)
				if _, err := fileutils.BackupFile(p, p+".bak"); err != nil {
					return fmt.Errorf("backup: %w", err)
				}
			}
		}
		if err := st.Save(ctx, cfg.ChatID, after); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}

	logger.Info("sheet filled",
		zap.String("chat_id", cfg.ChatID),
		zap.Int("applied", len(kept)),
		zap.Int("dropped", len(dropped)),
		zap.Int("remaining", len(sheet.Unresolved(after))),
		zap.Bool("dry_run", cfg.DryRun),
	)

	fmt.Fprintf(out, "chat_id=%s updates_applied=%d remaining=%d dry_run=%v\n",
		cfg.ChatID, len(kept), len(sheet.Unresolved(after)), cfg.DryRun)
	for _, c := range changes {
		fmt.Fprintf(out, "%s: %s -> %s\n", c.Path, c.From, c.To)
	}
	return nil
}
