package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fgeck/gowake/internal/models"
	"github.com/fgeck/gowake/internal/services/listener"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	listenAddrs []string
	listenCount int
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Print magic packets received on this host",
	Long: `Listen for Wake-on-LAN magic packets and print the machine each one targets.

Useful for checking that packets sent by gowake reach a network segment.
Ports below 1024 usually need elevated privileges.`,
	Args: cobra.NoArgs,
	RunE: runListen,
}

func init() {
	listenCmd.Flags().StringSliceVarP(&listenAddrs, "addr", "a", nil, "UDP addresses to listen on (default from settings, :7 and :9)")
	listenCmd.Flags().IntVar(&listenCount, "count", 0, "exit after this many packets (0 waits forever)")
}

func runListen(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	addrs := cfg.Listen.Addrs
	if len(listenAddrs) > 0 {
		addrs = listenAddrs
	}

	// A missing or unreadable registry only means packets are shown without names.
	var resolver listener.Resolver
	if reg, err := openRegistry(cfg); err != nil {
		log.Warn().Err(err).Msg("registry unavailable, names will not be shown")
	} else {
		resolver = reg
	}

	ctx, cancel := signalContext()
	defer cancel()

	var (
		mu       sync.Mutex
		received int
	)
	out := cmd.OutOrStdout()
	handle := func(pkt models.ReceivedPacket) {
		mu.Lock()
		defer mu.Unlock()
		if listenCount > 0 && received >= listenCount {
			return
		}

		target := pkt.Target.Upper()
		if len(pkt.Names) > 0 {
			target = fmt.Sprintf("%s (%s)", target, strings.Join(pkt.Names, ", "))
		}
		fmt.Fprintf(out, "%s  %s from %s\n", pkt.ReceivedAt.Format("15:04:05"), target, pkt.Source)

		received++
		if listenCount > 0 && received >= listenCount {
			cancel()
		}
	}

	return listenUntilDone(ctx, listener.New(log.Logger, resolver), addrs, handle)
}

func listenUntilDone(ctx context.Context, svc listener.Service, addrs []string, handle listener.Handler) error {
	err := svc.Listen(ctx, addrs, handle)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
