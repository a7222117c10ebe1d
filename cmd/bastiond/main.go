// Command bastiond is the Bastion browser core: the privacy policy
// engine and the self-update pipeline behind the shell's local API.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/config"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/server"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"go.uber.org/zap"
)

// version is stamped by the release build.
var version = "0.0.0-dev"

func main() {
	packaged := flag.Bool("packaged", false, "running from an installed build rather than a dev tree")
	flag.Parse()

	cfg := config.LoadOrDefault()

	log, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log = logging.NewDefault()
	}
	defer log.Sync()

	log.Info("bastion core starting",
		zap.String("version", version),
		zap.Bool("packaged", *packaged))

	srv := server.NewServer(cfg, server.Options{
		Version:  version,
		Packaged: *packaged,
	}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if srv.Privacy().Config().ClearDataOnExit {
		if err := srv.Privacy().ClearData(types.ClearAll); err != nil {
			log.Warn("clear-on-exit failed", zap.Error(err))
		}
	}
	if err := srv.Close(); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}
}
