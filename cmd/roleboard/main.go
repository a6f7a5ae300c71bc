package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"roleboard/internal/api"
	"roleboard/internal/app"
	"roleboard/internal/credential"
	"roleboard/internal/model"
	"roleboard/internal/notify"
	"roleboard/internal/session"
	"roleboard/internal/store"
	appsync "roleboard/internal/sync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "roleboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := model.LoadConfig(model.DefaultConfigPath())
	if err != nil {
		return err
	}

	client := api.NewClient(
		cfg.Server.BaseURL,
		time.Duration(cfg.Server.TimeoutSec)*time.Second,
	)

	cachePath := cfg.Cache.Path
	if cachePath == "" {
		cachePath = model.DefaultCachePath()
	}
	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	// A broken snapshot cache degrades to memory-only operation.
	var cache store.Store
	if s, err := store.NewSQLiteStore(cachePath); err == nil {
		cache = s
		defer s.Close()
	}

	sm := session.NewManager(client, credential.TokenStore{})
	controller := appsync.New(client, cache)
	notifier := notify.New(time.Duration(cfg.Display.NotificationTTLSec) * time.Second)

	p := tea.NewProgram(
		app.New(sm, controller, notifier),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}

	return nil
}
