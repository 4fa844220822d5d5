package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/ui"
)

func undoCmd(a *app) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Step back in history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(ws *workspace) error {
				n := 0
				for n < steps && ws.store.Undo() {
					n++
				}
				reportStep(cmd, ws, "Undid", "undo", n)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of steps")
	return cmd
}

func redoCmd(a *app) *cobra.Command {
	var steps int

	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Step forward in history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(ws *workspace) error {
				n := 0
				for n < steps && ws.store.Redo() {
					n++
				}
				reportStep(cmd, ws, "Redid", "redo", n)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&steps, "steps", "n", 1, "Number of steps")
	return cmd
}

func reportStep(cmd *cobra.Command, ws *workspace, verb, action string, n int) {
	out := cmd.OutOrStdout()
	if n == 0 {
		ui.Warn.Fprintf(out, "  %s Nothing to %s\n", ui.WarnIcon(), action)
		return
	}
	stats := ws.store.Snapshot().GetStats()
	ui.Good.Fprintf(out, "  %s %s %d step(s)", ui.StatusIcon(true), verb, n)
	fmt.Fprint(out, ui.Subtle.Sprintf(" · %d persons, %d relations\n", stats.Persons, stats.Relations))
}

func historyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the undo history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, func(ws *workspace) error {
				st := ws.store.History()
				rows := make([][]string, 0, len(st.Entries))
				for i, s := range st.Entries {
					mark := ""
					if i == st.Cursor {
						mark = ui.Mark
					}
					rows = append(rows, []string{
						mark,
						strconv.Itoa(i),
						strconv.Itoa(len(s.Persons)),
						strconv.Itoa(len(s.Relations)),
					})
				}
				out := cmd.OutOrStdout()
				ui.Table(out, []string{"", "STEP", "PERSONS", "RELATIONS"}, rows)
				fmt.Fprintln(out)
				fmt.Fprintf(out, "  %s\n", ui.Subtle.Sprintf("undo: %v · redo: %v", ws.store.CanUndo(), ws.store.CanRedo()))
				return nil
			})
		},
	}
}
