package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/ui"
)

func mergeCmd(a *app) *cobra.Command {
	var keepSecond bool

	cmd := &cobra.Command{
		Use:   "merge <person1> <person2>",
		Short: "Fold two persons into one, redirecting their relations",
		Long: `Merge two persons into one. The first person's record is kept unless
--keep-second is given. Relations of the removed person move to the survivor,
relations that become self-loops are dropped, and duplicate (from, to) pairs
keep their first occurrence.`,
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: a.personCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(ws *workspace) error {
				snap := ws.store.Snapshot()
				p1, err := findPerson(snap, args[0])
				if err != nil {
					return err
				}
				p2, err := findPerson(snap, args[1])
				if err != nil {
					return err
				}
				if p1.ID == p2.ID {
					return fmt.Errorf("cannot merge a person with themselves")
				}

				before := len(snap.Relations)
				ws.store.Merge(p1.ID, p2.ID, !keepSecond)
				keep, gone := p1, p2
				if keepSecond {
					keep, gone = p2, p1
				}
				dropped := before - len(ws.store.Snapshot().Relations)
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Merged %s into %s", ui.StatusIcon(true), ui.Brand.Sprint(gone.Name), ui.Brand.Sprint(keep.Name))
				if dropped > 0 {
					fmt.Fprint(cmd.OutOrStdout(), ui.Subtle.Sprintf(" (%d relation(s) dropped)", dropped))
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&keepSecond, "keep-second", false, "Keep the second person's record instead of the first")
	return cmd
}
