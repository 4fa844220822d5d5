// Package codec reads and writes snapshots as JSON documents and CSV tables.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/msalah0e/relmap/internal/graph"
)

// ErrMalformed is wrapped by every decode error caused by bad input.
var ErrMalformed = errors.New("malformed input")

// Default download filenames.
const (
	JSONFilename         = "human-relations.json"
	PersonsCSVFilename   = "persons.csv"
	RelationsCSVFilename = "relations.csv"
)

// EncodeJSON returns the snapshot as a pretty-printed JSON document.
func EncodeJSON(s *graph.Snapshot) ([]byte, error) {
	if s == nil {
		s = graph.Empty()
	}
	out := *s
	if out.Persons == nil {
		out.Persons = []*graph.Person{}
	}
	if out.Relations == nil {
		out.Relations = []*graph.Relation{}
	}
	return json.MarshalIndent(&out, "", "  ")
}

// DecodeJSON parses a snapshot document. Missing arrays decode as empty and
// null entries are dropped.
func DecodeJSON(data []byte) (*graph.Snapshot, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("decode snapshot: empty document: %w", ErrMalformed)
	}
	var s graph.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %v: %w", err, ErrMalformed)
	}

	persons := make([]*graph.Person, 0, len(s.Persons))
	for _, p := range s.Persons {
		if p != nil {
			persons = append(persons, p)
		}
	}
	relations := make([]*graph.Relation, 0, len(s.Relations))
	for _, r := range s.Relations {
		if r != nil {
			relations = append(relations, r)
		}
	}
	return &graph.Snapshot{Persons: persons, Relations: relations}, nil
}
