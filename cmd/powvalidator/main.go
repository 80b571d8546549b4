// powvalidator runs the Hamiltonian-cycle proof-of-work share validator as
// a standalone HTTP service.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tos-network/powvalidator/internal/api"
	"github.com/tos-network/powvalidator/internal/config"
	"github.com/tos-network/powvalidator/internal/dedupe"
	"github.com/tos-network/powvalidator/internal/newrelic"
	"github.com/tos-network/powvalidator/internal/notify"
	"github.com/tos-network/powvalidator/internal/policy"
	"github.com/tos-network/powvalidator/internal/profiling"
	"github.com/tos-network/powvalidator/internal/stream"
	"github.com/tos-network/powvalidator/internal/util"
	"github.com/tos-network/powvalidator/internal/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("powvalidator v%s (built %s)\n", version, buildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := util.InitLogger(cfg.Log.Level, cfg.Log.Format, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	util.Infof("powvalidator v%s starting", version)

	cache, err := dedupe.NewCache(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		util.Fatalf("Failed to connect to dedupe cache: %v", err)
	}
	defer cache.Close()

	validator.Init(cfg.Validator.WorkerPoolSize, cfg.Validator.JobQueueSize)

	var pprofServer *profiling.Server
	var nrAgent *newrelic.Agent

	policyServer := policy.NewPolicyServer(policy.DefaultConfig(), cache)
	policyServer.Start()

	if cfg.Profiling.Enabled {
		pprofServer = profiling.NewServer(&cfg.Profiling)
		if err := pprofServer.Start(); err != nil {
			util.Errorf("Failed to start pprof server: %v", err)
		}
	}

	if cfg.NewRelic.Enabled {
		nrAgent = newrelic.NewAgent(&cfg.NewRelic)
		if err := nrAgent.Start(); err != nil {
			util.Errorf("Failed to start New Relic agent: %v", err)
		}
	}

	notifier := notify.NewNotifier(&notify.WebhookConfig{
		DiscordURL:   cfg.Webhook.DiscordURL,
		TelegramURL:  cfg.Webhook.TelegramURL,
		TelegramBot:  cfg.Webhook.TelegramBot,
		TelegramChat: cfg.Webhook.TelegramChat,
		Enabled:      cfg.Webhook.Enabled,
		PoolName:     cfg.Webhook.PoolName,
		PoolURL:      cfg.Webhook.PoolURL,
	})

	hub := stream.NewHub()

	apiServer := api.NewServer(cfg, cache, hub, notifier, nrAgent, policyServer)
	if err := apiServer.Start(); err != nil {
		util.Fatalf("Failed to start API server: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	util.Info("powvalidator started successfully. Press Ctrl+C to stop.")

	<-sigChan
	util.Info("Shutting down...")

	if err := apiServer.Stop(); err != nil {
		util.Errorf("Error stopping API server: %v", err)
	}
	hub.Stop()
	policyServer.Stop()
	if pprofServer != nil {
		pprofServer.Stop()
	}
	if nrAgent != nil {
		nrAgent.Stop()
	}

	util.Info("powvalidator stopped")
}
