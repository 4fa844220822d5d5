package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/config"
	"github.com/msalah0e/relmap/internal/logger"
	"github.com/msalah0e/relmap/internal/metrics"
	"github.com/msalah0e/relmap/internal/ui"
)

var version = "0.3.0"

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Collector

	driver  string
	data    string
	verbose bool
}

// NewRootCmd builds the relmap command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "relmap",
		Short: "relmap · a relationship map editor",
		Long: ui.Brand.Sprint(ui.Mark+" relmap") + " · map people and how they relate\n" +
			ui.Subtle.Sprint("Add persons, connect them with labeled relations, undo anything"),
		Version:       version + " " + ui.Mark,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.openWorkspace(cmd.Context())
			if err != nil {
				return err
			}
			defer ws.Close()

			out := cmd.OutOrStdout()
			stats := ws.store.Snapshot().GetStats()
			ui.Banner(out, "relationship map")

			if stats.Persons == 0 {
				fmt.Fprintln(out, "  Empty map. Get started:")
				fmt.Fprintln(out)
				ui.Info.Fprintln(out, "  relmap person add <name>")
				ui.Info.Fprintln(out, "  relmap relation add <from> <to> <label>")
				ui.Info.Fprintln(out, "  relmap shell")
				return nil
			}

			n, cursor := ws.store.HistoryLen()
			fmt.Fprintf(out, "  %s  %d\n", ui.Brand.Sprintf("%-16s", "Persons"), stats.Persons)
			fmt.Fprintf(out, "  %s  %d\n", ui.Brand.Sprintf("%-16s", "Relations"), stats.Relations)
			if stats.Dangling > 0 {
				fmt.Fprintf(out, "  %s  %d %s\n", ui.Brand.Sprintf("%-16s", "Dangling"), stats.Dangling, ui.WarnIcon())
			}
			fmt.Fprintf(out, "  %s  %d/%d\n", ui.Brand.Sprintf("%-16s", "History"), cursor+1, n)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  %s\n", ui.Subtle.Sprint("Stored in "+ws.location))
			return nil
		},
	}

	root.SetVersionTemplate("relmap {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.driver, "driver", "", "Storage driver (file, sqlite, memory)")
	root.PersistentFlags().StringVar(&a.data, "data", "", "Storage path (directory for file, database for sqlite)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	root.AddCommand(
		personCmd(a),
		relationCmd(a),
		mergeCmd(a),
		undoCmd(a),
		redoCmd(a),
		historyCmd(a),
		exportCmd(a),
		importCmd(a),
		viewCmd(a),
		shellCmd(a),
		serveCmd(a),
		resetCmd(a),
		configCmd(a),
		completionCmd(),
	)

	return root
}

func (a *app) setup() error {
	a.cfg = config.Load()
	if a.driver != "" {
		a.cfg.Storage.Driver = strings.ToLower(a.driver)
	}
	if a.data != "" {
		a.cfg.Storage.Path = a.data
	}
	ui.SetColor(a.cfg.UI.Color)

	level := a.cfg.Log.Level
	if a.verbose {
		level = "debug"
	}
	l, err := logger.New(a.cfg.Log.Mode, level)
	if err != nil {
		return err
	}
	a.logger = l
	a.metrics = metrics.New("relmap")
	return nil
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		ui.Bad.Fprintf(os.Stderr, "relmap: %v\n", err)
	}
	return err
}
