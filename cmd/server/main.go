package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"notecloud/internal/auth"
	"notecloud/internal/cloud"
	"notecloud/internal/config"
	"notecloud/internal/notekit"
	"notecloud/internal/server"
	"notecloud/internal/store"
)

// noteConverter adapts the notekit parser to the store's Converter seam.
type noteConverter struct{}

func (noteConverter) Parse(data []byte) (store.Document, error) {
	doc, err := notekit.Parse(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("[main] %v", err)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpClient := &http.Client{Timeout: 30 * time.Second}
	reauth := store.NewReauthSignal()

	var tokens cloud.TokenSource
	if cfg.AccessToken != "" {
		tokens = cloud.StaticToken(cfg.AccessToken)
	} else {
		login := cloud.NewLoginClient(cloud.NewClient(httpClient, cfg.Host, nil))
		manager := auth.NewManager(login, cfg.Account, cfg.Password)
		go manager.Run(ctx, reauth.Signals())
		tokens = manager
	}
	client := cloud.NewClient(httpClient, cfg.Host, tokens)

	scopeRoot := filepath.Join(cfg.StorageRoot, cfg.Scope)
	cache := store.NewMetadataCache(store.NewFileStore(filepath.Join(scopeRoot, "folder_contents.json")))
	st := store.New(store.Config{
		StorageRoot: scopeRoot,
		CacheTTL:    cfg.CacheTTL,
	}, client, cache, noteConverter{}, reauth)

	registry := server.NewRegistry()
	registry.Add(&server.Account{
		Scope: cfg.Scope,
		Title: cfg.Account,
		Store: st,
	})

	log.Printf("[main] serving account %s from %s", cfg.Account, scopeRoot)
	return server.New(cfg.ListenAddr, registry).Run(ctx)
}
