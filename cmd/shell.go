package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/editor"
	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/ui"
)

const shellHelp = `  add <name>                  add a person
  rel <from> <to> <label>     add a relation
  rm <person>                 remove a person and its relations
  unrel <relation>            remove a relation
  move <person> <x> <y>       place a person
  merge <p1> <p2> [second]    merge two persons
  connect <person>            start connecting from a person
  click <person>              click a person (selects, or completes a connection)
  canvas                      click empty canvas
  cancel                      leave connect mode
  select <person|relation>    select
  key <chord>                 press a key, e.g. ctrl+z, cmd+shift+z, C-y
  undo | redo
  group <key> <member>...     show persons as one node
  ungroup <key>
  display <key> <id>          choose which group member is drawn
  ls                          list persons and relations
  state                       show selection, mode and history
  help | quit`

func shellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Edit the map interactively with autosave",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			saver := editor.NewAutoSaver(ws, a.cfg.Editor.AutosaveDelay.Duration, a.logger, nil)
			ws.store.Subscribe(saver.Schedule)
			defer saver.Flush(context.Background())

			out := cmd.OutOrStdout()
			ui.Banner(out, "shell · type help")
			newShell(ws, cmd.InOrStdin(), out, a.logger).run()
			return nil
		},
	}
}

type shell struct {
	ws     *workspace
	in     *bufio.Scanner
	out    io.Writer
	logger *zap.Logger
}

func newShell(ws *workspace, in io.Reader, out io.Writer, logger *zap.Logger) *shell {
	return &shell{ws: ws, in: bufio.NewScanner(in), out: out, logger: logger}
}

func (sh *shell) run() {
	for {
		fmt.Fprint(sh.out, sh.prompt())
		if !sh.in.Scan() {
			fmt.Fprintln(sh.out)
			return
		}
		line := strings.TrimSpace(sh.in.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if err := sh.exec(line); err != nil {
			sh.logger.Debug("shell command failed", zap.String("line", line), zap.Error(err))
			ui.Bad.Fprintf(sh.out, "  %v\n", err)
		}
	}
}

func (sh *shell) prompt() string {
	in := sh.ws.store.Interaction()
	if in.Mode == editor.Connecting {
		return fmt.Sprintf("relmap (connecting from %s)> ", personName(sh.ws.store.Snapshot(), in.From))
	}
	return "relmap> "
}

// askLabel reads the relation label from the next input line. An empty line
// dismisses the prompt.
func (sh *shell) askLabel() (string, bool) {
	fmt.Fprint(sh.out, "  label: ")
	if !sh.in.Scan() {
		return "", false
	}
	label := strings.TrimSpace(sh.in.Text())
	return label, label != ""
}

func (sh *shell) exec(line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]
	store := sh.ws.store
	snap := store.Snapshot()

	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: expected %d argument(s), see help", name, n)
		}
		return nil
	}

	switch name {
	case "help", "?":
		fmt.Fprintln(sh.out, shellHelp)

	case "add":
		if err := need(1); err != nil {
			return err
		}
		p := store.AddPerson(graph.PersonFields{Name: strings.Join(args, " ")})
		sh.ok("Added %s %s", p.Name, ui.Subtle.Sprint(ui.Short(p.ID)))

	case "rel":
		if err := need(3); err != nil {
			return err
		}
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
		label, err := checkLabel(strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		r, err := store.AddRelation(from.ID, to.ID, label, "")
		if err != nil {
			return err
		}
		sh.ok("%s --%s--> %s", from.Name, r.Label, to.Name)

	case "rm":
		if err := need(1); err != nil {
			return err
		}
		p, err := findPerson(snap, args[0])
		if err != nil {
			return err
		}
		store.DeletePerson(p.ID)
		sh.ok("Removed %s", p.Name)

	case "unrel":
		if err := need(1); err != nil {
			return err
		}
		r, err := findRelation(snap, args[0])
		if err != nil {
			return err
		}
		store.DeleteRelation(r.ID)
		sh.ok("Removed relation %s", ui.Short(r.ID))

	case "move":
		if err := need(3); err != nil {
			return err
		}
		p, err := findPerson(snap, args[0])
		if err != nil {
			return err
		}
		x, errX := strconv.ParseFloat(args[1], 64)
		y, errY := strconv.ParseFloat(args[2], 64)
		if errX != nil || errY != nil {
			return fmt.Errorf("move: coordinates must be numbers")
		}
		store.MovePerson(p.ID, x, y)
		sh.ok("Moved %s", p.Name)

	case "merge":
		if err := need(2); err != nil {
			return err
		}
		p1, err := findPerson(snap, args[0])
		if err != nil {
			return err
		}
		p2, err := findPerson(snap, args[1])
		if err != nil {
			return err
		}
		keepFirst := len(args) < 3 || args[2] != "second"
		if !store.Merge(p1.ID, p2.ID, keepFirst) {
			return fmt.Errorf("nothing to merge")
		}
		sh.ok("Merged %s and %s", p1.Name, p2.Name)

	case "connect":
		if err := need(1); err != nil {
			return err
		}
		p, err := findPerson(snap, args[0])
		if err != nil {
			return err
		}
		store.StartConnect(p.ID)
		fmt.Fprintln(sh.out, ui.Subtle.Sprint("  click a person to connect, or cancel"))

	case "click":
		if err := need(1); err != nil {
			return err
		}
		p, err := findPerson(snap, args[0])
		if err != nil {
			return err
		}
		if r := store.ClickPerson(p.ID, sh.askLabel); r != nil {
			sh.ok("%s --%s--> %s", personName(snap, r.From), r.Label, p.Name)
		}

	case "canvas":
		store.ClickCanvas()

	case "cancel":
		store.CancelConnect()

	case "select":
		if err := need(1); err != nil {
			return err
		}
		if p, err := findPerson(snap, args[0]); err == nil {
			store.SelectPerson(p.ID)
			return nil
		}
		r, err := findRelation(snap, args[0])
		if err != nil {
			return fmt.Errorf("nothing to select for %q", args[0])
		}
		store.SelectRelation(r.ID)

	case "key":
		if err := need(1); err != nil {
			return err
		}
		ev, err := editor.ParseKey(args[0])
		if err != nil {
			return err
		}
		if !store.HandleKey(ev) {
			fmt.Fprintln(sh.out, ui.Subtle.Sprint("  (ignored)"))
		}

	case "undo":
		if !store.Undo() {
			return fmt.Errorf("nothing to undo")
		}
	case "redo":
		if !store.Redo() {
			return fmt.Errorf("nothing to redo")
		}

	case "group":
		if err := need(2); err != nil {
			return err
		}
		ids, err := resolvePersons(snap, args)
		if err != nil {
			return err
		}
		return store.VisualMerge(ids[0], ids[1:]...)

	case "ungroup":
		if err := need(1); err != nil {
			return err
		}
		p, err := findPerson(snap, args[0])
		if err != nil {
			return err
		}
		if !store.VisualUnmerge(p.ID) {
			return fmt.Errorf("%s does not key a group", p.Name)
		}

	case "display":
		if err := need(2); err != nil {
			return err
		}
		ids, err := resolvePersons(snap, args[:2])
		if err != nil {
			return err
		}
		return store.SetDisplayed(ids[0], ids[1])

	case "ls":
		sh.list()

	case "state":
		sh.state()

	default:
		return fmt.Errorf("unknown command %q, see help", name)
	}
	return nil
}

func (sh *shell) ok(format string, args ...any) {
	ui.Good.Fprintf(sh.out, "  %s %s\n", ui.StatusIcon(true), fmt.Sprintf(format, args...))
}

func (sh *shell) list() {
	v := sh.ws.store.View()
	snap := sh.ws.store.Snapshot()
	rows := make([][]string, 0, len(v.Nodes))
	for _, n := range v.Nodes {
		mark := ""
		if n.Selected {
			mark = ui.Mark
		}
		if n.Merged {
			mark += "+"
		}
		rows = append(rows, []string{mark, ui.Short(n.ID), n.Name, fmt.Sprintf("(%g, %g)", n.X, n.Y)})
	}
	ui.Table(sh.out, []string{"", "ID", "NAME", "AT"}, rows)
	if len(v.Edges) == 0 {
		return
	}
	fmt.Fprintln(sh.out)
	for _, e := range v.Edges {
		mark := " "
		if e.Selected {
			mark = ui.Mark
		}
		fmt.Fprintf(sh.out, "  %s %s %s --%s--> %s\n", mark, ui.Subtle.Sprint(ui.Short(e.ID)), personName(snap, e.From), e.DisplayLabel, personName(snap, e.To))
	}
}

func (sh *shell) state() {
	store := sh.ws.store
	sel := store.Selection()
	n, cursor := store.HistoryLen()
	fmt.Fprintf(sh.out, "  mode:      %s\n", store.Interaction().Mode)
	switch {
	case sel.PersonID != "":
		fmt.Fprintf(sh.out, "  selected:  person %s\n", personName(store.Snapshot(), sel.PersonID))
	case sel.RelationID != "":
		fmt.Fprintf(sh.out, "  selected:  relation %s\n", ui.Short(sel.RelationID))
	}
	fmt.Fprintf(sh.out, "  history:   %d/%d\n", cursor+1, n)
	for _, g := range store.MergeGroups() {
		fmt.Fprintf(sh.out, "  group:     %s shows %s\n", personName(store.Snapshot(), g.Key), personName(store.Snapshot(), g.Displayed))
	}
}

func resolvePersons(s *graph.Snapshot, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		p, err := findPerson(s, ref)
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.ID)
	}
	return ids, nil
}
