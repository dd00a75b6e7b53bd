package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fgeck/gowake/internal/mac"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:     "add <name> <mac>",
	Aliases: []string{"a"},
	Short:   "Register a machine under a name",
	Example: "  gowake add office 01:23:45:67:89:AB",
	Args:    cobra.ExactArgs(2),
	RunE:    runAdd,
}

var editCmd = &cobra.Command{
	Use:     "edit <name> <mac>",
	Short:   "Change the MAC address of a registered machine",
	Example: "  gowake edit office 01-23-45-67-89-AC",
	Args:    cobra.ExactArgs(2),
	RunE:    runEdit,
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered machines",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

var removeCmd = &cobra.Command{
	Use:     "remove <name>...",
	Aliases: []string{"rm"},
	Short:   "Remove one or more machines from the registry",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRemove,
}

func runAdd(cmd *cobra.Command, args []string) error {
	addr, err := mac.ParseString(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	return reg.Add(args[0], addr)
}

func runEdit(cmd *cobra.Command, args []string) error {
	addr, err := mac.ParseString(args[1])
	if err != nil {
		return err
	}

	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	return reg.Edit(args[0], addr)
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if reg.Len() == 0 {
		fmt.Fprintln(out, "No machines found in registry")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for m := range reg.List() {
		fmt.Fprintf(tw, "%s\t%s\n", m.Name, m.MAC.Upper())
	}
	return tw.Flush()
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	reg, err := openRegistry(cfg)
	if err != nil {
		return err
	}
	return reg.Remove(args...)
}
