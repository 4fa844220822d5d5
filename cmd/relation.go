package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/ui"
)

func relationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relation",
		Aliases: []string{"rel", "r"},
		Short:   "Manage relations between persons",
	}

	cmd.AddCommand(
		relationAddCmd(a),
		relationUpdateCmd(a),
		relationRemoveCmd(a),
		relationListCmd(a),
	)
	return cmd
}

func checkLabel(label string) (string, error) {
	if !graph.ValidLabel(label) {
		return "", fmt.Errorf("label must be 1 to %d characters", graph.MaxLabelLength)
	}
	return strings.TrimSpace(label), nil
}

func relationAddCmd(a *app) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:               "add <from> <to> <label>",
		Short:             "Connect two persons with a labeled relation",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: a.personCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			label, err := checkLabel(args[2])
			if err != nil {
				return err
			}
			return a.edit(cmd, func(ws *workspace) error {
				snap := ws.store.Snapshot()
				from, err := findPerson(snap, args[0])
				if err != nil {
					return err
				}
				to, err := findPerson(snap, args[1])
				if err != nil {
					return err
				}
				if from.ID == to.ID {
					return fmt.Errorf("a person cannot relate to themselves")
				}
				r, err := ws.store.AddRelation(from.ID, to.ID, label, note)
				if err != nil {
					return err
				}
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s %s --%s--> %s %s\n",
					ui.StatusIcon(true), ui.Brand.Sprint(from.Name), r.Label, ui.Brand.Sprint(to.Name), ui.Subtle.Sprint(ui.Short(r.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Free-form note")
	return cmd
}

func relationUpdateCmd(a *app) *cobra.Command {
	var from, to, label, note string

	cmd := &cobra.Command{
		Use:     "update <relation>",
		Aliases: []string{"edit"},
		Short:   "Change a relation's endpoints, label or note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("from") && !flags.Changed("to") && !flags.Changed("label") && !flags.Changed("note") {
				return fmt.Errorf("nothing to update (use --from, --to, --label or --note)")
			}
			if flags.Changed("label") {
				checked, err := checkLabel(label)
				if err != nil {
					return err
				}
				label = checked
			}

			return a.edit(cmd, func(ws *workspace) error {
				snap := ws.store.Snapshot()
				r, err := findRelation(snap, args[0])
				if err != nil {
					return err
				}

				var patch graph.RelationPatch
				newFrom, newTo := r.From, r.To
				if flags.Changed("from") {
					p, err := findPerson(snap, from)
					if err != nil {
						return err
					}
					newFrom = p.ID
					patch.From = &newFrom
				}
				if flags.Changed("to") {
					p, err := findPerson(snap, to)
					if err != nil {
						return err
					}
					newTo = p.ID
					patch.To = &newTo
				}
				if newFrom == newTo {
					return fmt.Errorf("a person cannot relate to themselves")
				}
				if flags.Changed("label") {
					patch.Label = &label
				}
				if flags.Changed("note") {
					patch.Note = &note
				}

				changed, err := ws.store.UpdateRelation(r.ID, patch)
				if err != nil {
					return err
				}
				if !changed {
					ui.Subtle.Fprintln(cmd.OutOrStdout(), "  No changes.")
					return nil
				}
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Updated relation %s\n", ui.StatusIcon(true), ui.Short(r.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "New source person")
	cmd.Flags().StringVar(&to, "to", "", "New target person")
	cmd.Flags().StringVar(&label, "label", "", "New label")
	cmd.Flags().StringVar(&note, "note", "", "New note")
	return cmd
}

func relationRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <relation>",
		Aliases: []string{"remove", "delete"},
		Short:   "Remove a relation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(ws *workspace) error {
				r, err := findRelation(ws.store.Snapshot(), args[0])
				if err != nil {
					return err
				}
				ws.store.DeleteRelation(r.ID)
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Removed relation %s\n", ui.StatusIcon(true), ui.Short(r.ID))
				return nil
			})
		},
	}
}

func relationListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List relations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, func(ws *workspace) error {
				snap := ws.store.Snapshot()
				out := cmd.OutOrStdout()
				if len(snap.Relations) == 0 {
					ui.Subtle.Fprintln(out, "  No relations.")
					return nil
				}
				rows := make([][]string, 0, len(snap.Relations))
				for _, r := range snap.Relations {
					rows = append(rows, []string{
						ui.Short(r.ID),
						personName(snap, r.From),
						r.Label,
						personName(snap, r.To),
						r.Note,
					})
				}
				ui.Table(out, []string{"ID", "FROM", "LABEL", "TO", "NOTE"}, rows)
				return nil
			})
		},
	}
}
