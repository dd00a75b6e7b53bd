package main

import (
	"os"
	"strings"

	"github.com/fgeck/gowake/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Configuration flags.
	configFile   string
	registryPath string
	verbose      bool
	quiet        bool
	jsonOutput   bool

	// Wake flags.
	nameAsMAC     bool
	broadcastAddr string
	bindAddr      string
	ifaceName     string
)

var rootCmd = &cobra.Command{
	Use:   "gowake [name-or-mac]",
	Short: "Wake up machines with Wake-on-LAN magic packets",
	Long: `gowake sends Wake-on-LAN magic packets to power on machines on the local network.

Machines can be registered under a name:
  gowake add office 01:23:45:67:89:AB
  gowake office

or woken directly by MAC address:
  gowake -n 01:23:45:67:89:AB

gowake only sends the packet; it does not check that the machine came up.`,
	Args:          cobra.MaximumNArgs(1),
	RunE:          runWake,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(setupLogging)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "settings file (default is <user config dir>/gowake/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&registryPath, "registry", "r", "", "machine registry file (default is <user config dir>/gowake/machines.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output logs in JSON format")

	rootCmd.Flags().BoolVarP(&nameAsMAC, "name-as-mac", "n", false, "treat the argument as a MAC address instead of a machine name")
	rootCmd.Flags().StringVarP(&broadcastAddr, "bcast-addr", "b", models.DefaultBroadcastAddr, "broadcast address to send the magic packet to (IP:PORT)")
	rootCmd.Flags().StringVarP(&bindAddr, "bind-addr", "B", models.DefaultBindAddr, "local address to bind the UDP socket to (IP:PORT)")
	rootCmd.Flags().StringVarP(&ifaceName, "interface", "i", "", "send a raw Ethernet frame on this interface instead of UDP (needs CAP_NET_RAW)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listenCmd)
}

func setupLogging() {
	// Set output format
	if jsonOutput {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set log level
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		report(err)
	}
	return err
}
