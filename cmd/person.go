package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/ui"
)

// edit opens the workspace, runs fn and saves the result.
func (a *app) edit(cmd *cobra.Command, fn func(ws *workspace) error) error {
	ws, err := a.openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer ws.Close()

	if err := fn(ws); err != nil {
		return err
	}
	if err := ws.save(cmd.Context()); err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// read opens the workspace for fn without saving.
func (a *app) read(cmd *cobra.Command, fn func(ws *workspace) error) error {
	ws, err := a.openWorkspace(cmd.Context())
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ws)
}

func personCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "person",
		Aliases: []string{"p", "persons"},
		Short:   "Manage persons",
	}

	cmd.AddCommand(
		personAddCmd(a),
		personUpdateCmd(a),
		personMoveCmd(a),
		personRemoveCmd(a),
		personListCmd(a),
		personShowCmd(a),
	)
	return cmd
}

func personAddCmd(a *app) *cobra.Command {
	var fields graph.PersonFields

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a person at a random position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields.Name = strings.TrimSpace(args[0])
			if fields.Name == "" {
				return fmt.Errorf("name must not be empty")
			}
			return a.edit(cmd, func(ws *workspace) error {
				p := ws.store.AddPerson(fields)
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Added %s %s\n", ui.StatusIcon(true), ui.Brand.Sprint(p.Name), ui.Subtle.Sprint(ui.Short(p.ID)))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fields.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&fields.Note, "note", "", "Free-form note")
	cmd.Flags().StringVar(&fields.Photo, "photo", "", "Photo as a data: URL")
	return cmd
}

func personUpdateCmd(a *app) *cobra.Command {
	var name, phone, note, photo string

	cmd := &cobra.Command{
		Use:               "update <person>",
		Aliases:           []string{"edit"},
		Short:             "Change a person's fields",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.personCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch graph.PersonPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				name = strings.TrimSpace(name)
				if name == "" {
					return fmt.Errorf("name must not be empty")
				}
				patch.Name = &name
			}
			if flags.Changed("phone") {
				patch.Phone = &phone
			}
			if flags.Changed("note") {
				patch.Note = &note
			}
			if flags.Changed("photo") {
				patch.Photo = &photo
			}
			if patch.Empty() {
				return fmt.Errorf("nothing to update (use --name, --phone, --note or --photo)")
			}

			return a.edit(cmd, func(ws *workspace) error {
				p, err := findPerson(ws.store.Snapshot(), args[0])
				if err != nil {
					return err
				}
				if !ws.store.UpdatePerson(p.ID, patch) {
					ui.Subtle.Fprintln(cmd.OutOrStdout(), "  No changes.")
					return nil
				}
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Updated %s\n", ui.StatusIcon(true), ui.Brand.Sprint(ws.store.Snapshot().Person(p.ID).Name))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&phone, "phone", "", "New phone number")
	cmd.Flags().StringVar(&note, "note", "", "New note")
	cmd.Flags().StringVar(&photo, "photo", "", "New photo data: URL")
	return cmd
}

func personMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "move <person> <x> <y>",
		Short:             "Place a person on the canvas",
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: a.personCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			x, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid x %q", args[1])
			}
			y, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid y %q", args[2])
			}
			return a.edit(cmd, func(ws *workspace) error {
				p, err := findPerson(ws.store.Snapshot(), args[0])
				if err != nil {
					return err
				}
				ws.store.MovePerson(p.ID, x, y)
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Moved %s to (%g, %g)\n", ui.StatusIcon(true), ui.Brand.Sprint(p.Name), x, y)
				return nil
			})
		},
	}
}

func personRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "rm <person>",
		Aliases:           []string{"remove", "delete"},
		Short:             "Remove a person and every relation touching it",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.personCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, func(ws *workspace) error {
				snap := ws.store.Snapshot()
				p, err := findPerson(snap, args[0])
				if err != nil {
					return err
				}
				out, in := snap.RelationsOf(p.ID)
				ws.store.DeletePerson(p.ID)
				ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Removed %s", ui.StatusIcon(true), ui.Brand.Sprint(p.Name))
				if n := len(out) + len(in); n > 0 {
					fmt.Fprint(cmd.OutOrStdout(), ui.Subtle.Sprintf(" and %d relation(s)", n))
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}
}

func personListCmd(a *app) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List persons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, func(ws *workspace) error {
				snap := ws.store.Snapshot()
				persons := snap.Persons
				if query != "" {
					persons = snap.Search(query)
				}
				out := cmd.OutOrStdout()
				if len(persons) == 0 {
					ui.Subtle.Fprintln(out, "  No persons.")
					return nil
				}

				rows := make([][]string, 0, len(persons))
				for _, p := range persons {
					outgoing, incoming := snap.RelationsOf(p.ID)
					rows = append(rows, []string{
						ui.Short(p.ID),
						p.Name,
						p.Phone,
						strconv.Itoa(len(outgoing)),
						strconv.Itoa(len(incoming)),
					})
				}
				ui.Table(out, []string{"ID", "NAME", "PHONE", "OUT", "IN"}, rows)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&query, "search", "s", "", "Only persons whose name, phone or note contains this")
	return cmd
}

func personShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "show <person>",
		Short:             "Show a person and their relations",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.personCompletionFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, func(ws *workspace) error {
				snap := ws.store.Snapshot()
				p, err := findPerson(snap, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "  %s %s\n", ui.Brand.Sprint(p.Name), ui.Subtle.Sprint(p.ID))
				if p.Phone != "" {
					fmt.Fprintf(out, "  Phone:  %s\n", p.Phone)
				}
				if p.Note != "" {
					fmt.Fprintf(out, "  Note:   %s\n", p.Note)
				}
				if p.Photo != "" {
					fmt.Fprintf(out, "  Photo:  %s\n", ui.Subtle.Sprintf("%d bytes", len(p.Photo)))
				}
				fmt.Fprintf(out, "  At:     (%g, %g)\n", p.X, p.Y)

				outgoing, incoming := snap.RelationsOf(p.ID)
				if len(outgoing) > 0 {
					fmt.Fprintln(out)
					ui.Info.Fprintln(out, "  Outgoing:")
					for _, r := range outgoing {
						fmt.Fprintf(out, "    --%s--> %s\n", r.Label, personName(snap, r.To))
					}
				}
				if len(incoming) > 0 {
					fmt.Fprintln(out)
					ui.Info.Fprintln(out, "  Incoming:")
					for _, r := range incoming {
						fmt.Fprintf(out, "    %s --%s-->\n", personName(snap, r.From), r.Label)
					}
				}
				return nil
			})
		},
	}
}
