package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/msalah0e/relmap/internal/graph"
)

var (
	personsHeader   = []string{"name", "phone", "note", "photo"}
	relationsHeader = []string{"from_name", "to_name", "label", "note"}
)

// ─── Export ───

// PersonsCSV renders persons as CSV. The header is bare and every data field
// is double-quoted.
func PersonsCSV(persons []*graph.Person) string {
	rows := make([][]string, 0, len(persons))
	for _, p := range persons {
		rows = append(rows, []string{p.Name, p.Phone, p.Note, p.Photo})
	}
	return renderCSV(personsHeader, rows)
}

// RelationsCSV renders the snapshot's relations as CSV with endpoint names.
// Unknown endpoints render as empty names.
func RelationsCSV(s *graph.Snapshot) string {
	rows := make([][]string, 0, len(s.Relations))
	for _, r := range s.Relations {
		var from, to string
		if p := s.Person(r.From); p != nil {
			from = p.Name
		}
		if p := s.Person(r.To); p != nil {
			to = p.Name
		}
		rows = append(rows, []string{from, to, r.Label, r.Note})
	}
	return renderCSV(relationsHeader, rows)
}

// renderCSV writes every data field quoted, which encoding/csv only does when
// a field needs it.
func renderCSV(header []string, rows [][]string) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(header, ","))
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, f := range row {
			fields[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// ─── Import ───

// ParsePersonsCSV reads persons from CSV. The first record is the header.
// Columns map by position to name, phone, note, photo; rows without a name
// are skipped. Every person gets a fresh id and position from gen.
func ParsePersonsCSV(r io.Reader, gen graph.Generator) ([]*graph.Person, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("parse persons: %w", err)
	}

	persons := make([]*graph.Person, 0, len(records))
	for _, rec := range records {
		name := field(rec, 0)
		if name == "" {
			continue
		}
		x, y := gen.Position()
		persons = append(persons, &graph.Person{
			ID:    gen.NewID(),
			Name:  name,
			Phone: field(rec, 1),
			Note:  field(rec, 2),
			Photo: field(rec, 3),
			X:     x,
			Y:     y,
		})
	}
	return persons, nil
}

// ParseRelationsCSV reads relations from CSV, resolving from_name and to_name
// to the first person with that exact name. Rows missing from, to or label,
// or naming an unknown person, are dropped.
func ParseRelationsCSV(r io.Reader, persons []*graph.Person, gen graph.Generator) ([]*graph.Relation, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, fmt.Errorf("parse relations: %w", err)
	}

	byName := make(map[string]string, len(persons))
	for _, p := range persons {
		if _, ok := byName[p.Name]; !ok {
			byName[p.Name] = p.ID
		}
	}

	relations := make([]*graph.Relation, 0, len(records))
	for _, rec := range records {
		fromName, toName, label := field(rec, 0), field(rec, 1), field(rec, 2)
		if fromName == "" || toName == "" || label == "" {
			continue
		}
		from, okFrom := byName[fromName]
		to, okTo := byName[toName]
		if !okFrom || !okTo {
			continue
		}
		relations = append(relations, &graph.Relation{
			ID:    gen.NewID(),
			From:  from,
			To:    to,
			Label: label,
			Note:  field(rec, 3),
		})
	}
	return relations, nil
}

// readRecords returns every record after the header.
func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("line %d: %v: %w", perr.Line, perr.Err, ErrMalformed)
		}
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row: %w", ErrMalformed)
	}
	return records[1:], nil
}

func field(rec []string, i int) string {
	if i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}
