package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/email-agent/internal/app"
	"github.com/nhle/email-agent/internal/credential"
	"github.com/nhle/email-agent/internal/imap"
	"github.com/nhle/email-agent/internal/llm"
	"github.com/nhle/email-agent/internal/model"
	"github.com/nhle/email-agent/internal/seed"
	"github.com/nhle/email-agent/internal/store"
	appsync "github.com/nhle/email-agent/internal/sync"
	"github.com/nhle/email-agent/internal/triage"
)

func main() {
	configPath := flag.String(
		"config", model.DefaultConfigPath(), "path to the config file",
	)
	inboxPath := flag.String(
		"inbox", "", "JSON seed file to ingest before starting (overrides config)",
	)
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	s, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	if err := ingestSeed(s, cfg, *inboxPath); err != nil {
		fmt.Fprintf(os.Stderr, "error ingesting seed file: %v\n", err)
		os.Exit(1)
	}

	// Without an API key the agent still runs; enrichment, chat, and
	// drafting report the engine as unavailable.
	var enricher *triage.Enricher
	client, err := llm.New(credential.APIKey(), llm.Options{
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		MaxRetries: cfg.LLM.MaxRetries,
	})
	if err == nil {
		enricher = triage.NewEnricher(s, client)
	}

	fetcher := buildFetcher(cfg)

	runner := appsync.New(s, enricher, fetcher, cfg.IMAP.FetchLimit)

	p := tea.NewProgram(
		app.New(s, enricher, runner),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running program: %v\n", err)
		os.Exit(1)
	}
}

// ingestSeed loads the configured seed file, if present, and inserts
// any emails not seen before. A missing default seed file is not an
// error; an explicitly requested one is.
func ingestSeed(s store.Store, cfg *model.AppConfig, override string) error {
	path := cfg.InboxPath
	explicit := false
	if override != "" {
		path = override
		explicit = true
	}
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return err
	}

	emails, err := seed.LoadFile(path)
	if err != nil {
		return err
	}

	_, err = seed.Ingest(context.Background(), s, emails)
	return err
}

// buildFetcher constructs the IMAP fetcher when a mailbox is
// configured. The password comes from the system keyring.
func buildFetcher(cfg *model.AppConfig) *imap.Fetcher {
	if cfg.IMAP.Host == "" || cfg.IMAP.Username == "" {
		return nil
	}

	password, err := credential.Get("imap-password")
	if err != nil || password == "" {
		return nil
	}

	return imap.NewFetcher(
		cfg.IMAP.Host,
		cfg.IMAP.Port,
		cfg.IMAP.Username,
		password,
		cfg.IMAP.TLS,
	)
}
