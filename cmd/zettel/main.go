// Command zettel processes an annotated e-reader PDF export into a
// Zettelkasten of markdown notes.
//
// Full pipeline:
//
//	zettel --title "How to Take Smart Notes" annotations.pdf
//
// Re-run a single stage from the saved artifacts:
//
//	zettel --step organize
//	zettel --step generate --title "How to Take Smart Notes"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/zettel"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config file (JSON or YAML)")
		title      = flag.String("title", "", "Title of the source document")
		step       = flag.String("step", "all", "Stage to run: all, parse, transcribe, organize, generate")
		outputDir  = flag.String("out", "", "Output directory (default zettel_output)")
	)
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// A .env next to the binary's working directory may hold API keys.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("loading .env", "error", err)
	}

	cfg := zettel.DefaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *title != "" {
		cfg.Title = *title
	}
	applyEnv(&cfg)

	// Fail before any LLM work: generation needs the title at the very end.
	if (*step == "all" || *step == "generate") && cfg.Title == "" {
		slog.Error("a document title is required for note generation, pass --title")
		os.Exit(1)
	}

	p, err := zettel.New(cfg)
	if err != nil {
		slog.Error("initializing pipeline", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, p, *step, flag.Arg(0)); err != nil {
		slog.Error("pipeline failed", "step", *step, "error", err)
		os.Exit(1)
	}
	slog.Info("done", "step", *step)
}

func run(ctx context.Context, p *zettel.Pipeline, step, pdfPath string) error {
	needsPDF := step == "all" || step == "parse"
	if needsPDF && pdfPath == "" {
		return fmt.Errorf("usage: zettel [flags] <annotations.pdf>")
	}

	switch step {
	case "all":
		return p.Run(ctx, pdfPath)
	case "parse":
		_, err := p.Parse(pdfPath)
		return err
	case "transcribe":
		rec, err := p.LoadStructured()
		if err != nil {
			return err
		}
		return p.Transcribe(ctx, rec)
	case "organize":
		rec, err := p.LoadTranscribed()
		if err != nil {
			return err
		}
		_, err = p.Organize(ctx, rec)
		return err
	case "generate":
		rec, err := p.LoadTranscribed()
		if err != nil {
			return err
		}
		set, err := p.LoadOrganized()
		if err != nil {
			return err
		}
		return p.Generate(rec, set)
	default:
		return fmt.Errorf("unknown step %q (want all, parse, transcribe, organize, generate)", step)
	}
}

func loadConfig(path string, cfg *zettel.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// applyEnv layers environment variables over the file config.
func applyEnv(cfg *zettel.Config) {
	if v := os.Getenv("ZETTEL_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("ZETTEL_VISION_PROVIDER"); v != "" {
		cfg.Vision.Provider = v
	}
	if v := os.Getenv("ZETTEL_VISION_MODEL"); v != "" {
		cfg.Vision.Model = v
	}
	if v := os.Getenv("ZETTEL_VISION_API_KEY"); v != "" {
		cfg.Vision.APIKey = v
	}
	if v := os.Getenv("ZETTEL_CHAT_PROVIDER"); v != "" {
		cfg.Chat.Provider = v
	}
	if v := os.Getenv("ZETTEL_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("ZETTEL_CHAT_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}

	// Well-known provider keys fill any remaining gaps.
	if cfg.Vision.APIKey == "" {
		cfg.Vision.APIKey = providerKey(cfg.Vision.Provider)
	}
	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = providerKey(cfg.Chat.Provider)
	}
}

func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	}
	return ""
}
