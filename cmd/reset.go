package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/ui"
)

func resetCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved map and its history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ui.Warn.Fprintf(cmd.OutOrStdout(), "  %s This deletes the saved map. Re-run with --yes to confirm.\n", ui.WarnIcon())
				return nil
			}
			ws, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()
			if err := ws.repo.Clear(cmd.Context()); err != nil {
				return err
			}
			ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Cleared %s\n", ui.StatusIcon(true), ws.location)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm")
	return cmd
}
