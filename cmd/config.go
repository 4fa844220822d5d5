package cmd

import (
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/config"
	"github.com/msalah0e/relmap/internal/ui"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ui.Subtle.Fprintf(cmd.OutOrStdout(), "# %s\n", filepath.Join(config.ConfigDir(), "config.toml"))
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(a.cfg)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.EnsureExists(); err != nil {
				return err
			}
			ui.Good.Fprintf(cmd.OutOrStdout(), "  %s %s\n", ui.StatusIcon(true), filepath.Join(config.ConfigDir(), "config.toml"))
			return nil
		},
	})
	return cmd
}
