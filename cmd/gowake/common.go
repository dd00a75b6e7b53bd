package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fgeck/gowake/internal/config"
	"github.com/fgeck/gowake/internal/mac"
	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/registry"
	"github.com/fgeck/gowake/internal/services/runner"
	"github.com/fgeck/gowake/internal/services/wol"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// loadSettings reads the settings file and applies flags that were set
// explicitly on the command line.
func loadSettings(cmd *cobra.Command) (*models.Settings, error) {
	parser := config.NewParser()
	cfg, err := parser.Load(configFile)
	if err != nil {
		return nil, err
	}

	if registryPath != "" {
		cfg.RegistryPath = registryPath
	}

	flags := cmd.Flags()
	if f := flags.Lookup("bcast-addr"); f != nil && f.Changed {
		cfg.Wake.BroadcastAddr = broadcastAddr
	}
	if f := flags.Lookup("bind-addr"); f != nil && f.Changed {
		cfg.Wake.BindAddr = bindAddr
	}
	if f := flags.Lookup("interface"); f != nil && f.Changed {
		cfg.Wake.Interface = ifaceName
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	log.Debug().
		Str("config", configFile).
		Str("registry", cfg.RegistryPath).
		Str("broadcast", cfg.Wake.BroadcastAddr).
		Str("bind", cfg.Wake.BindAddr).
		Msg("configuration loaded")

	return cfg, nil
}

func openRegistry(cfg *models.Settings) (*registry.Registry, error) {
	return registry.Open(registry.NewFileStore(cfg.RegistryPath), log.Logger)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("received signal, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// report is the single place errors are turned into user-facing messages.
func report(err error) {
	var (
		persistErr *registry.PersistenceError
		transErr   *wol.TransmissionError
	)

	switch {
	case errors.As(err, &persistErr) && !errors.Is(err, registry.ErrNotFound):
		log.Warn().Err(persistErr.Err).Str("file", persistErr.Path).
			Msg("change applied but could not be saved; it will not survive a restart")
	case errors.As(err, &persistErr):
		log.Error().Err(err).Msg("some machines were not found; the others were removed but could not be saved")
	case errors.Is(err, mac.ErrInvalidFormat), errors.Is(err, mac.ErrInvalidLength):
		log.Error().Err(err).Msg("invalid MAC address, expected six hex pairs separated by ':', '-' or '.' (e.g. 01:23:45:67:89:AB)")
	case errors.Is(err, registry.ErrDuplicateName):
		log.Error().Err(err).Msg("a machine with this name already exists, use edit to change it")
	case errors.Is(err, registry.ErrInvalidName):
		log.Error().Err(err).Msg("machine names must not be blank")
	case errors.Is(err, registry.ErrNotFound):
		log.Error().Err(err).Msg("no such machine, see list for registered machines")
	case errors.Is(err, registry.ErrConfigCorrupt):
		log.Error().Err(err).Msg("registry file could not be read, fix or remove it")
	case errors.As(err, &transErr):
		log.Error().Err(err).Str("op", transErr.Op).Msg("failed to send magic packet")
	case errors.Is(err, runner.ErrNoTarget):
		log.Error().Err(err).Msg("nothing to wake")
	default:
		log.Error().Err(err).Msg("command failed")
	}
}
