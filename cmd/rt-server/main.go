package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"redistics/internal/api"
	"redistics/internal/archive"
	"redistics/internal/config"
	"redistics/internal/model"
	"redistics/internal/monitor"
	"redistics/internal/registry"
	"redistics/internal/relay"
	"redistics/internal/vault"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	timeout, err := cfg.CommandTimeout()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	v, err := vault.New(cfg.Storage.DataDir)
	if err != nil {
		log.Fatalf("Failed to initialize vault: %v", err)
	}

	reg, err := registry.New(cfg.Storage.DataDir, v, timeout)
	if err != nil {
		log.Fatalf("Failed to initialize registry: %v", err)
	}

	// Engine-wide sinks see every stream; per-server subscribers attach at
	// monitor start.
	var sinks []model.EventSink
	var archiver *archive.Archiver
	if cfg.Archive.Enabled {
		archiver, err = archive.NewArchiver(cfg.Archive, cfg.Monitor.SinkBuffer)
		if err != nil {
			log.Fatalf("Failed to initialize archive: %v", err)
		}
		sinks = append(sinks, archiver)
	}

	engine := monitor.NewEngine(sinks...)
	reg.SetMonitorHooks(engine.Active, func(id string) {
		if err := engine.Stop(id); err != nil && err != model.ErrMonitorInactive {
			log.Printf("Error stopping monitor for %s: %v", id, err)
		}
	})

	var relayPub *relay.Publisher
	if cfg.Relay.Enabled {
		relayPub, err = relay.NewPublisher(cfg.Relay)
		if err != nil {
			log.Fatalf("Failed to connect event relay: %v", err)
		}
	}

	apiServer := api.NewServer(reg, v, engine, relayPub, timeout, cfg.Monitor.ReplayWindow)
	server := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: apiServer.Router(),
	}

	go func() {
		log.Printf("API server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v", server.Addr, err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}

	engine.StopAll()
	reg.Close()
	if relayPub != nil {
		relayPub.Close()
	}
	if archiver != nil {
		if err := archiver.Close(); err != nil {
			log.Printf("Archive close: %v", err)
		}
	}
	log.Println("Server exited.")
}
