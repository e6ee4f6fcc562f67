package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"flashpool/config"
	"flashpool/core/events"
	"flashpool/crypto"
	"flashpool/native/flashpool"
	"flashpool/observability"
	"flashpool/observability/logging"
	"flashpool/rpc"
)

func main() {
	configPath := flag.String("config", "./flashpool.toml", "path to the daemon configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "err", err)
		os.Exit(1)
	}

	logger := logging.Setup("flashpoold", cfg.Environment)

	owner, err := resolveOwner(cfg, logger)
	if err != nil {
		logger.Error("failed to resolve owner identity", "err", err)
		os.Exit(1)
	}

	journal := observability.NewAuditJournal(cfg.AuditLogPath)
	defer journal.Close()

	vault := flashpool.NewVault()
	pauses := flashpool.NewPauseSet()
	engine := flashpool.NewEngine(owner, crypto.ModuleAddress("vault"))
	engine.SetTransfer(vault)
	engine.SetPauses(pauses)
	engine.SetEmitter(events.Fanout{observability.Recorder{}, journal})

	for _, token := range cfg.Tokens {
		if err := engine.RegisterToken(owner, token.Symbol, token.FeeBps); err != nil {
			logger.Error("failed to register token", "symbol", token.Symbol, "err", err)
			os.Exit(1)
		}
		logger.Info("registered token", "symbol", token.Symbol, "feeBps", token.FeeBps)
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Handle("/rpc", rpc.NewServer(engine, owner, pauses))
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving JSON-RPC", "addr", cfg.ListenAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", "err", err)
	}
}

// resolveOwner loads the configured owner address, or bootstraps a fresh
// operator key into the keystore on first run.
func resolveOwner(cfg *config.Config, logger *slog.Logger) (crypto.Address, error) {
	if cfg.OwnerAddress != "" {
		return crypto.DecodeAddress(cfg.OwnerAddress)
	}

	passphrase := os.Getenv("FLASHPOOL_KEYSTORE_PASSPHRASE")
	if passphrase != "" {
		if key, err := crypto.LoadFromKeystore(cfg.KeystorePath, passphrase); err == nil {
			return key.PubKey().Address(), nil
		}
	}

	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return crypto.Address{}, err
	}
	if passphrase != "" {
		if err := crypto.SaveToKeystore(cfg.KeystorePath, key, passphrase); err != nil {
			return crypto.Address{}, err
		}
		logger.Info("generated owner key", "keystore", cfg.KeystorePath)
	} else {
		logger.Warn("generated ephemeral owner key; set FLASHPOOL_KEYSTORE_PASSPHRASE to persist it")
	}
	addr := key.PubKey().Address()
	logger.Info("pool owner", "address", addr.String())
	return addr, nil
}
