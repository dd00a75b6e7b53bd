package main

import (
	"context"

	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func runWake(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	var runnerSvc *runner.Impl
	if nameAsMAC {
		runnerSvc = runner.New(log.Logger, nil)
	} else {
		reg, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		if reg.Len() == 0 {
			log.Warn().Str("registry", reg.Path()).Msg("no machines registered")
		}
		runnerSvc = runner.New(log.Logger, reg)
	}

	_, err = runnerSvc.Run(context.Background(), models.WakeRequest{
		Target:    args[0],
		NameAsMAC: nameAsMAC,
		Config:    cfg.Wake,
	})
	return err
}
