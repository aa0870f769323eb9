package main

import (
	"context"
	"errors"
	"flag"
	"klyra/internal/config"
	"klyra/internal/http"
	"klyra/internal/presence"
	"klyra/internal/ws"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// loadConfig reads the environment and applies flags that were passed
// explicitly. An explicit -port 0 asks for an ephemeral port.
func loadConfig(args []string) (*config.Config, error) {
	flags := flag.NewFlagSet("klyra", flag.ContinueOnError)
	port := flags.Uint("port", 0, "Port to listen on (overrides RELAY_PORT)")
	label := flags.String("label", "", "Server name shown in the welcome message (overrides RELAY_LABEL)")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var flagErr error
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			if *port > 65535 {
				flagErr = errors.New("-port must be a port number")
				return
			}
			cfg.Port = uint16(*port)
		case "label":
			cfg.Label = *label
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	hub := ws.NewHub(logger, cfg.QueueLimit)
	store := presence.New()
	relay := ws.NewServer(hub, store, logger)

	status, err := relay.Start(cfg.Port, cfg.Label)
	if err != nil {
		return err
	}
	logger.Info(status)

	g, gCtx := errgroup.WithContext(ctx)

	var statusServer *http.StatusServer
	if cfg.StatusAddr != "" {
		statusServer = http.NewStatusServer(hub, store, cfg.StatusAddr, logger)
		g.Go(statusServer.Start)
	}

	// Wait for context cancellation (signal)
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down relay")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if statusServer != nil {
			if err := statusServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown error", "err", err)
			}
		}
		if err := relay.Shutdown(shutdownCtx); err != nil {
			logger.Warn("relay shutdown error", "err", err)
		}
		return nil
	})

	return g.Wait()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Application error: %v", err)
	}
}
