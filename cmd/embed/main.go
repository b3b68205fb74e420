package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ledongthuc/pdf"
	"gopkg.in/yaml.v3"

	"github.com/aalnuaimi/legaledge/internal/bootstrap"
	"github.com/aalnuaimi/legaledge/internal/config"
	"github.com/aalnuaimi/legaledge/internal/core/domain"
	"github.com/aalnuaimi/legaledge/internal/core/ports"
	"github.com/aalnuaimi/legaledge/internal/observability/logging"
)

// manifest lists documents to load in one run.
type manifest struct {
	Documents []manifestEntry `yaml:"documents"`
}

type manifestEntry struct {
	PDF      string            `yaml:"pdf"`
	Name     string            `yaml:"name"`
	Language string            `yaml:"language"`
	Metadata map[string]string `yaml:"metadata"`
}

func main() {
	pdfPath := flag.String("pdf", "", "path to a single PDF to ingest")
	name := flag.String("name", "", "source name stored with the chunks (defaults to the file name)")
	lang := flag.String("language", "en", "document language: en, ar or both")
	manifestPath := flag.String("manifest", "", "path to a YAML manifest listing documents to ingest")
	flag.Parse()

	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("embed", cfg.LogLevel))

	if *pdfPath == "" && *manifestPath == "" {
		fmt.Fprintln(os.Stderr, "usage: embed --pdf file.pdf [--name source] [--language en|ar|both] | embed --manifest docs.yaml")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	entries, err := collectEntries(*pdfPath, *name, *lang, *manifestPath)
	if err != nil {
		slog.Error("invalid_input", "error", err)
		os.Exit(1)
	}

	var failed int
	for _, entry := range entries {
		if err := ingestPDF(ctx, app.PDFIngestUC, entry); err != nil {
			slog.Error("document_failed", "pdf", entry.PDF, "error", err)
			failed++
		}
	}
	if failed > 0 {
		slog.Error("ingest_incomplete", "failed", failed, "total", len(entries))
		os.Exit(1)
	}
	slog.Info("ingest_complete", "documents", len(entries))
}

func collectEntries(pdfPath, name, lang, manifestPath string) ([]manifestEntry, error) {
	if manifestPath != "" {
		raw, err := os.ReadFile(manifestPath)
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		var m manifest
		if err := yaml.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		if len(m.Documents) == 0 {
			return nil, fmt.Errorf("manifest lists no documents")
		}
		for i := range m.Documents {
			if err := normalizeEntry(&m.Documents[i]); err != nil {
				return nil, err
			}
		}
		return m.Documents, nil
	}

	entry := manifestEntry{PDF: pdfPath, Name: name, Language: lang}
	if err := normalizeEntry(&entry); err != nil {
		return nil, err
	}
	return []manifestEntry{entry}, nil
}

func normalizeEntry(entry *manifestEntry) error {
	if entry.PDF == "" {
		return fmt.Errorf("manifest entry without pdf path")
	}
	if entry.Name == "" {
		parts := strings.Split(entry.PDF, "/")
		entry.Name = parts[len(parts)-1]
	}
	switch domain.Language(entry.Language) {
	case domain.LanguageEnglish, domain.LanguageArabic, domain.LanguageAny:
	case "":
		entry.Language = string(domain.LanguageEnglish)
	default:
		return fmt.Errorf("unsupported language %q for %s", entry.Language, entry.PDF)
	}
	return nil
}

// ingestPDF extracts one page at a time so every chunk keeps its true page
// number. Pages the extractor cannot read are skipped with a warning, not
// fatal: scanned pages without a text layer are common in older gazettes.
func ingestPDF(ctx context.Context, ingestor ports.DocumentIngestor, entry manifestEntry) error {
	file, reader, err := pdf.Open(entry.PDF)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	totalPages := reader.NumPage()
	var ingested int
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			slog.Warn("page_extract_failed", "pdf", entry.PDF, "page", pageNum, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		pageRef := pageNum
		ids, err := ingestor.IngestText(ctx, ports.IngestRequest{
			Source:   entry.Name,
			Text:     text,
			Language: domain.Language(entry.Language),
			Page:     &pageRef,
			Metadata: entry.Metadata,
		})
		if err != nil {
			if domain.IsKind(err, domain.ErrInvalidInput) {
				// Too little usable text on the page.
				continue
			}
			return fmt.Errorf("ingest page %d: %w", pageNum, err)
		}
		ingested += len(ids)
	}

	slog.Info("document_ingested", "pdf", entry.PDF, "source", entry.Name, "pages", totalPages, "chunks", ingested)
	return nil
}
