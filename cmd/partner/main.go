// Command partner starts the cognitive-partner core: it wires the Privacy
// Engine, Context Store, Gate System/Tribunal, Model Router, Monitor Suite,
// and Self-Improvement Loop into a Request Orchestrator, then serves the
// read-only collaborator API over HTTP/WebSocket.
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

	"github.com/corepath/partner/pkg/config"
	"github.com/corepath/partner/pkg/contextstore"
	"github.com/corepath/partner/pkg/events"
	"github.com/corepath/partner/pkg/feedback"
	"github.com/corepath/partner/pkg/gates"
	"github.com/corepath/partner/pkg/llm"
	"github.com/corepath/partner/pkg/monitor"
	"github.com/corepath/partner/pkg/orchestrator"
	"github.com/corepath/partner/pkg/privacy"
	"github.com/corepath/partner/pkg/router"
	"github.com/corepath/partner/pkg/vault"

	"github.com/corepath/partner/pkg/api"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	configPath := flag.String("config", getEnv("PARTNER_CONFIG", "./config/partner.yaml"), "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	passphrase := getEnv("PARTNER_VAULT_PASSPHRASE", "")
	if passphrase == "" {
		slog.Warn("PARTNER_VAULT_PASSPHRASE not set, using an insecure development default")
		passphrase = "development-only-passphrase"
	}
	credVault, err := vault.New(cfg.System.DataDir, passphrase)
	if err != nil {
		slog.Error("failed to open credential vault", "error", err)
		os.Exit(1)
	}
	for key, p := range cfg.LLMProviders {
		if p.APIKeyEnv == "" {
			continue
		}
		if secret := os.Getenv(p.APIKeyEnv); secret != "" {
			if err := credVault.Put(key, []byte(secret)); err != nil {
				slog.Error("failed to seed vault credential", "provider", key, "error", err)
				os.Exit(1)
			}
		}
	}

	privacySvc, err := privacy.NewService(cfg.System.DataDir, cfg.Privacy.DefaultEpsilonCap, cfg.Privacy.DefaultQueryCap, cfg.Privacy.BudgetResetPeriod)
	if err != nil {
		slog.Error("failed to start privacy engine", "error", err)
		os.Exit(1)
	}

	ctxStore, err := contextstore.New(cfg.System.DataDir)
	if err != nil {
		slog.Error("failed to start context store", "error", err)
		os.Exit(1)
	}

	gateSys := gates.NewSystem(cfg.Gates)

	feedbackLoop, err := feedback.NewLoop(cfg.Feedback, cfg.System.DataDir)
	if err != nil {
		slog.Error("failed to start feedback loop", "error", err)
		os.Exit(1)
	}

	tribunal, err := gates.NewTribunal(cfg.Gates, cfg.System.DataDir, feedbackLoop)
	if err != nil {
		slog.Error("failed to start tribunal", "error", err)
		os.Exit(1)
	}

	registry := config.NewModelRegistry(cfg.LLMProviders)

	perfTracker, err := router.NewPersistentTracker(cfg.System.DataDir)
	if err != nil {
		slog.Error("failed to start router performance tracker", "error", err)
		os.Exit(1)
	}
	rt := router.NewWithTracker(registry, cfg.ModelRouter, perfTracker.PerformanceTracker)
	coolDown := router.NewCoolDownManager(registry, perfTracker.PerformanceTracker, cfg.ModelRouter.ErrorRateCeiling, cfg.ModelRouter.CoolDownPeriod)

	providers := buildProviders(cfg.LLMProviders, credVault)
	resolve := func(key string) (router.Provider, bool) {
		p, ok := providers[key]
		coolDown.Check(key)
		return p, ok
	}

	ari, err := monitor.NewARI(cfg.Monitor, cfg.System.DataDir)
	if err != nil {
		slog.Error("failed to start ARI", "error", err)
		os.Exit(1)
	}
	edm, err := monitor.NewEDM(cfg.Monitor, cfg.System.DataDir, monitor.HeuristicFactChecker{})
	if err != nil {
		slog.Error("failed to start EDM", "error", err)
		os.Exit(1)
	}
	_ = monitor.NewRDI(cfg.Monitor.RDIWeights) // on-device only; constructed but not passed to the API server, the event bus or the orchestrator

	eventsMgr := events.NewManager()
	tribunal.SetPublisher(eventsMgr)
	ari.SetPublisher(eventsMgr)
	edm.SetPublisher(eventsMgr)
	feedbackLoop.SetPublisher(eventsMgr)

	orch, err := orchestrator.New(cfg.System.DataDir, privacySvc, ctxStore, gateSys, tribunal, rt, resolve, ari, edm, feedbackLoop)
	if err != nil {
		slog.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}
	pool := orchestrator.NewPool(orch, cfg.Queue.WorkerCount)

	server := api.NewServer(orch, ari, edm, feedbackLoop, privacySvc, eventsMgr, cfg.System.AllowedWSOrigins)

	addr := cfg.System.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	slog.Info("starting cognitive-partner core", "listen_addr", addr, "data_dir", cfg.System.DataDir, "providers", len(providers))

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during HTTP shutdown", "error", err)
	}

	pool.Stop()
	slog.Info("cognitive-partner core stopped")
}

// buildProviders constructs a router.Provider for every configured model:
// a LocalProvider for entries marked LocalExecution, an HTTPProvider for
// anything with a BaseURL, backed by the credential vault for auth.
func buildProviders(providers map[string]config.ModelProviderYAML, credVault *vault.Vault) map[string]router.Provider {
	out := make(map[string]router.Provider, len(providers))
	for key, p := range providers {
		switch {
		case p.LocalExecution:
			out[key] = llm.LocalProvider{}
		case p.BaseURL != "":
			out[key] = llm.NewHTTPProvider(key, p.BaseURL, credVault)
		default:
			slog.Warn("model provider has neither local_execution nor base_url set, skipping", "key", key)
		}
	}
	return out
}
