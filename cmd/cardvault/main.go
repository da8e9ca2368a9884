package main

import (
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"cardvault/internal/config"
	"cardvault/internal/generate"
	"cardvault/internal/model"
	"cardvault/internal/storage"
	"cardvault/internal/web"
)

func main() {
	flags := pflag.NewFlagSet("cardvault", pflag.ExitOnError)
	flags.String("config", "cardvault.yaml", "Path to the yaml config file")
	flags.String("addr", ":4000", "Address to listen on")
	flags.String("db", "cardvault.db", "Path to the SQLite database file")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DB)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DB)

	stores := storage.NewStores(db)
	hierarchy := storage.NewHierarchy(stores.Directories, stores.Decks)
	shared := storage.NewSharedItemStore(db, stores, hierarchy)
	gen := generate.NewService(generate.Disabled{}, stores)

	tokens := make(web.StaticTokens, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tokens[t.Token] = model.Client{ID: t.ClientID, UserName: t.UserName, Email: t.Email}
	}

	srv := web.NewServer(db, stores, shared, gen, tokens)
	slog.Info("listening", "addr", cfg.Addr)
	if err := srv.Run(cfg.Addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
