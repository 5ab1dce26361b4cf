package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/felo/mailnotes/internal/config"
	"github.com/felo/mailnotes/internal/mailbox"
	"github.com/felo/mailnotes/internal/store"
	"github.com/felo/mailnotes/internal/summarize"
	"github.com/felo/mailnotes/internal/synthesis"
	"github.com/felo/mailnotes/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	serve := flag.Bool("serve", false, "start the notes preview server after the run")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open note store", zap.Error(err))
	}
	defer closeStore()

	if err := runSynthesis(ctx, cfg, st, logger); err != nil {
		if !*serve {
			logger.Fatal("synthesis run failed", zap.Error(err))
		}
		logger.Warn("synthesis run skipped", zap.Error(err))
	}

	if !*serve {
		return
	}

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      web.New(st, logger).Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("notes preview listening", zap.String("url", cfg.URL()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

// runSynthesis performs one consolidation pass over the mailbox
func runSynthesis(ctx context.Context, cfg *config.Config, st store.Store, logger *zap.Logger) error {
	summarizer, err := summarize.NewOpenAIClient(summarize.OpenAIOptions{
		BaseURL: cfg.Summarizer.BaseURL,
		APIKey:  cfg.Summarizer.APIKey,
		Model:   cfg.Summarizer.Model,
		Timeout: time.Duration(cfg.Summarizer.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create summarizer: %w", err)
	}

	source := mailbox.NewDirSource(cfg.MailboxPath, cfg.ProcessedDir, cfg.FetchLimit, logger)

	engine := synthesis.New(source, summarizer, st, synthesis.Options{
		InternalDomains:      cfg.InternalDomains,
		ProjectNames:         cfg.ProjectNames,
		StripSubjectPrefixes: cfg.StripSubjectPrefixes,
	}, logger)

	stats, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	if stats.Failed > 0 {
		logger.Warn("run finished with failures", zap.Int("failed", stats.Failed))
	}
	return nil
}

// openStore builds the configured note store backend
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "sqlite":
		s, err := store.OpenSQLite(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case "drive":
		s, err := store.NewDrive(ctx, store.DriveOptions{
			CredentialsFile: cfg.Drive.CredentialsFile,
			FolderName:      cfg.Drive.FolderName,
			FolderID:        cfg.Drive.FolderID,
			Impersonate:     cfg.Drive.Impersonate,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "memory":
		return store.NewMemory(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
