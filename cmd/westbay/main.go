package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vikasvdk5/WestBay/internal/config"
	"github.com/vikasvdk5/WestBay/internal/natsbus"
	"github.com/vikasvdk5/WestBay/internal/notify"
	"github.com/vikasvdk5/WestBay/internal/retention"
	"github.com/vikasvdk5/WestBay/internal/store"
	"github.com/vikasvdk5/WestBay/internal/vault"
	"github.com/vikasvdk5/WestBay/internal/web"
	"github.com/vikasvdk5/WestBay/internal/worker"
	"github.com/vikasvdk5/WestBay/internal/workflow"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("westbay %s\n", version)
	case "gateway":
		if err := runGateway(); err != nil {
			slog.Error("gateway failed", "error", err)
			os.Exit(1)
		}
	case "backup":
		if err := runBackup(os.Args[2:]); err != nil {
			slog.Error("backup failed", "error", err)
			os.Exit(1)
		}
	case "vault":
		if err := runVault(os.Args[2:]); err != nil {
			slog.Error("vault command failed", "error", err)
			os.Exit(1)
		}
	case "purge":
		if err := runPurge(); err != nil {
			slog.Error("purge failed", "error", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: westbay <command>

Commands:
  gateway    Start the report orchestration service
  backup     Archive the data directory to a .tar.zst file
  vault      Manage encrypted API credentials
  purge      Delete session checkpoints past the retention age
  version    Print version
`)
}

func runGateway() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting westbay gateway", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	bus, err := natsbus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer bus.Close()
	slog.Info("nats started", "port", cfg.NATS.Port)

	events, err := natsbus.NewClient(bus)
	if err != nil {
		return fmt.Errorf("init nats client: %w", err)
	}
	defer events.Close()

	// Vault-backed API credentials, anonymous without a passphrase.
	var creds worker.CredentialSource
	if cfg.Vault.Passphrase != "" {
		v, err := vault.New(cfg.Vault.Passphrase)
		if err != nil {
			return fmt.Errorf("init vault: %w", err)
		}
		creds = &vaultCredentials{store: db, vault: v}
		slog.Info("vault credentials enabled")
	} else {
		slog.Warn("vault passphrase not set, API workers run without credentials")
	}

	retry := worker.RetryPolicy{
		MaxAttempts: cfg.Workers.MaxAttempts,
		Base:        cfg.Workers.RetryBase,
		Max:         cfg.Workers.RetryMax,
	}
	registry, err := worker.NewRegistry(
		worker.NewCollector(worker.OfflineFetcher{}, retry),
		worker.NewAPIResearcher(worker.OfflineAPIClient{}, creds, retry),
		worker.NewAnalyst(worker.LocalRenderer{}, retry),
		worker.NewNarrator(worker.LocalGenerator{}, retry),
	)
	if err != nil {
		return fmt.Errorf("build worker registry: %w", err)
	}

	var notifier workflow.Notifier
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram)
		if err != nil {
			return fmt.Errorf("init telegram notifier: %w", err)
		}
		notifier = tg
		slog.Info("telegram notifications enabled", "chat", cfg.Telegram.ChatID)
	}

	engine := workflow.NewEngine(db, registry, events, notifier)
	if err := engine.RecoverOrphans(); err != nil {
		return fmt.Errorf("recover orphaned sessions: %w", err)
	}

	purger, err := retention.New(db, cfg.Retention)
	if err != nil {
		return fmt.Errorf("init retention: %w", err)
	}
	go purger.Start(ctx)

	if cfg.Web.Enabled {
		srv := web.NewServer(db, bus, engine, cfg.Web, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()
	return nil
}

func runPurge() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	n, err := db.PurgeSessionsOlderThan(cfg.Retention.MaxAge)
	if err != nil {
		return err
	}
	fmt.Printf("Purged %d sessions older than %s\n", n, cfg.Retention.MaxAge)
	return nil
}

// vaultCredentials decrypts secrets named <service>.<key> into the flat
// credential map API clients expect.
type vaultCredentials struct {
	store *store.Store
	vault *vault.Vault
}

func (c *vaultCredentials) Credentials(service string) (map[string]string, error) {
	names, err := c.store.ListSecretNames()
	if err != nil {
		return nil, fmt.Errorf("list secrets: %w", err)
	}

	out := make(map[string]string)
	prefix := service + "."
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		sec, err := c.store.GetSecret(name)
		if err != nil {
			return nil, fmt.Errorf("get secret %s: %w", name, err)
		}
		if sec == nil {
			continue
		}
		plain, err := c.vault.Decrypt(sec.Value, sec.Nonce)
		if err != nil {
			return nil, fmt.Errorf("decrypt secret %s: %w", name, err)
		}
		out[strings.TrimPrefix(name, prefix)] = string(plain)
	}
	return out, nil
}
