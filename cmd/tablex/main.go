// Command tablex extracts the tables of a local document and writes them
// in one of the export formats.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dgallion1/tablegest/internal/cleanup"
	"github.com/dgallion1/tablegest/internal/config"
	"github.com/dgallion1/tablegest/internal/export"
	"github.com/dgallion1/tablegest/internal/parser"
	"github.com/dgallion1/tablegest/internal/tables"
)

type options struct {
	in      string
	out     string
	format  string
	useLLM  bool
	verbose bool
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var opts options
	flag.StringVar(&opts.in, "in", "", "Path to the input document (pdf, html, docx, md, csv, txt)")
	flag.StringVar(&opts.out, "out", "-", "Output path, or - for stdout")
	flag.StringVar(&opts.format, "format", "json", "Output format: json, csv, zip, md, html, pdf, docx")
	flag.BoolVar(&opts.useLLM, "llm", false, "Run the cleanup model configured by CLEANUP_* env vars")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()

	if opts.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("tablex failed")
	}
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	if opts.in == "" {
		return errors.New("-in is required")
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Library packages log through slog; keep that quiet unless -v.
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	slogger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	data, err := os.ReadFile(opts.in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	p, err := parser.ForFile(opts.in, parser.Options{LineTolerance: cfg.TextTolerance})
	if err != nil {
		return err
	}
	start := time.Now()
	doc, err := p.Parse(bytes.NewReader(data), filepath.Base(opts.in))
	if err != nil {
		return err
	}

	extractor := tables.NewExtractor(tables.Config{
		IntersectionTolerance: cfg.IntersectionTolerance,
		SnapTolerance:         cfg.SnapTolerance,
		TextTolerance:         cfg.TextTolerance,
		MinTextRows:           cfg.MinTextRows,
		PageWorkers:           cfg.PageWorkers,
	}, slogger)
	ts, err := extractor.Extract(ctx, doc)
	if err != nil {
		return err
	}
	log.Info().Str("file", opts.in).Int("pages", len(doc.Pages)).Int("tables", len(ts)).
		Dur("elapsed", time.Since(start)).Msg("extracted tables")

	if opts.useLLM {
		backend, err := cleanup.NewBackend(cleanup.Options{
			Provider: cfg.CleanupProvider,
			URL:      cfg.CleanupURL,
			Model:    cfg.CleanupModel,
			APIKey:   cfg.CleanupAPIKey,
		})
		if err != nil {
			return err
		}
		if backend == nil {
			log.Warn().Msg("-llm set but CLEANUP_PROVIDER is empty; skipping cleanup")
		} else {
			cleaner := cleanup.NewAdapter(backend, cfg.CleanupTimeout, nil, slogger).WithBatchTokens(cfg.CleanupBatchTokens)
			if len(ts) > 0 {
				out := cleaner.Attempt(ctx, ts)
				if out.Err != nil {
					log.Warn().Err(out.Err).Str("provider", backend.Name()).Msg("cleanup failed, keeping extracted tables")
				} else {
					ts = out.Tables
					log.Debug().Str("provider", backend.Name()).Msg("cleanup applied")
				}
			}
		}
	}

	if format == export.FormatCSV && len(ts) > 1 {
		log.Warn().Int("tables", len(ts)).Msg("csv holds only the first table; use -format zip for all")
	}

	var buf bytes.Buffer
	title := strings.TrimSuffix(filepath.Base(opts.in), filepath.Ext(opts.in))
	if err := export.Write(&buf, format, title, ts); err != nil {
		return err
	}
	if opts.out == "" || opts.out == "-" {
		_, err = stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", opts.out).Str("format", string(format)).Int("bytes", buf.Len()).Msg("wrote export")
	return nil
}
