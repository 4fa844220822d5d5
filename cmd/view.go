package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/ui"
	"github.com/msalah0e/relmap/internal/view"
)

func viewCmd(a *app) *cobra.Command {
	var noOpen bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open the map in the browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, func(ws *workspace) error {
				out := cmd.OutOrStdout()
				stats := ws.store.Snapshot().GetStats()
				if stats.Persons == 0 {
					fmt.Fprintln(out, "  Empty map. Add some persons first")
					return nil
				}

				// Write HTML to temp file and open in browser
				htmlPath := filepath.Join(os.TempDir(), "relmap.html")
				if err := os.WriteFile(htmlPath, []byte(view.HTML(ws.store.View(), "relmap")), 0o644); err != nil {
					return fmt.Errorf("failed to write HTML: %w", err)
				}

				if noOpen || openBrowser(htmlPath) != nil {
					fmt.Fprintf(out, "  HTML written to: %s\n", htmlPath)
					return nil
				}

				ui.Good.Fprintf(out, "  %s Opened map (%d persons, %d relations)\n",
					ui.StatusIcon(true), stats.Persons, stats.Relations)
				ui.Subtle.Fprintf(out, "  %s\n", htmlPath)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Only write the HTML file")
	return cmd
}

func openBrowser(target string) error {
	var openCmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		openCmd = exec.Command("open", target)
	case "linux":
		openCmd = exec.Command("xdg-open", target)
	default:
		openCmd = exec.Command("cmd", "/c", "start", target)
	}
	return openCmd.Start()
}
