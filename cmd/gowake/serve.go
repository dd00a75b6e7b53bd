package main

import (
	"github.com/fgeck/gowake/internal/config"
	"github.com/fgeck/gowake/internal/services/runner"
	"github.com/fgeck/gowake/internal/services/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API for waking registered machines",
	Long: `Serve an HTTP API on top of the machine registry.

Endpoints:
  GET  /api/v1/health     server time
  GET  /api/v1/machines   registered machines
  POST /api/v1/wakeup     {"name": "office"} or {"mac": "01:23:45:67:89:AB"}
  GET  /metrics           Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "listen-addr", "l", "", "address to serve the HTTP API on (default from settings, :8080)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		if err := config.ValidateHostPort(serveAddr); err != nil {
			return err
		}
		cfg.Server.ListenAddr = serveAddr
	}

	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	runnerSvc := runner.New(log.Logger, reg)
	srv := server.New(log.Logger, runnerSvc, reg, cfg.Wake)
	return srv.Serve(ctx, cfg.Server.ListenAddr)
}
