package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/msalah0e/relmap/internal/codec"
	"github.com/msalah0e/relmap/internal/ui"
	"github.com/msalah0e/relmap/internal/view"
)

var exportFormats = []string{"json", "persons", "relations", "dot", "html"}

func exportCmd(a *app) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export <json|persons|relations|dot|html>",
		Short: "Export the map",
		Long: `Export the map to stdout or a file.

  json       the whole document, re-importable with 'relmap import json'
  persons    persons as CSV (name, phone, note, photo)
  relations  relations as CSV (from_name, to_name, label, note)
  dot        Graphviz with pinned positions
  html       a standalone canvas page`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: exportFormats,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.read(cmd, func(ws *workspace) error {
				snap := ws.store.Snapshot()

				var data []byte
				switch args[0] {
				case "json":
					b, err := codec.EncodeJSON(snap)
					if err != nil {
						return err
					}
					data = b
				case "persons":
					data = []byte(codec.PersonsCSV(snap.Persons))
				case "relations":
					data = []byte(codec.RelationsCSV(snap))
				case "dot":
					data = []byte(view.DOT(ws.store.View()))
				case "html":
					data = []byte(view.HTML(ws.store.View(), "relmap"))
				default:
					return fmt.Errorf("unknown format %q (want json, persons, relations, dot or html)", args[0])
				}

				if outPath == "" || outPath == "-" {
					_, err := cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", outPath, err)
				}
				ui.Good.Fprintf(cmd.ErrOrStderr(), "  %s Exported %s to %s\n", ui.StatusIcon(true), args[0], outPath)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to this file instead of stdout")
	return cmd
}

func importCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import persons and relations",
		Long: `Import data into the map. Use - to read stdin.

  import json <file>       replace the whole map and start a fresh history
  import persons <file>    add persons from CSV as one undoable step
  import relations <file>  add relations from CSV, matching persons by name`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "json <file>",
			Short: "Replace the map with a JSON document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				snap, err := codec.DecodeJSON(data)
				if err != nil {
					return importError(err)
				}
				return a.edit(cmd, func(ws *workspace) error {
					ws.store.Load(snap)
					ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Loaded %d persons and %d relations\n", ui.StatusIcon(true), len(snap.Persons), len(snap.Relations))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "persons <file>",
			Short: "Add persons from CSV",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				return a.edit(cmd, func(ws *workspace) error {
					persons, err := codec.ParsePersonsCSV(bytes.NewReader(data), ws.gen)
					if err != nil {
						return importError(err)
					}
					n := ws.store.ImportPersons(persons)
					ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Imported %d person(s)\n", ui.StatusIcon(true), n)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "relations <file>",
			Short: "Add relations from CSV",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				data, err := readInput(cmd, args[0])
				if err != nil {
					return err
				}
				return a.edit(cmd, func(ws *workspace) error {
					relations, err := codec.ParseRelationsCSV(bytes.NewReader(data), ws.store.Snapshot().Persons, ws.gen)
					if err != nil {
						return importError(err)
					}
					n := ws.store.ImportRelations(relations)
					ui.Good.Fprintf(cmd.OutOrStdout(), "  %s Imported %d relation(s)\n", ui.StatusIcon(true), n)
					return nil
				})
			},
		},
	)
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func importError(err error) error {
	if errors.Is(err, codec.ErrMalformed) {
		return fmt.Errorf("file format error: %w", err)
	}
	return err
}
