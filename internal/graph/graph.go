package graph

import (
	"strings"
)

// MaxLabelLength is the longest relation label the editor displays, in runes.
// Stored labels are never truncated.
const MaxLabelLength = 8

// Person represents a node in the relationship graph.
type Person struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Photo string  `json:"photo"`
	Phone string  `json:"phone"`
	Note  string  `json:"note"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Relation represents a labeled directed edge From -> To.
type Relation struct {
	ID    string `json:"id"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
	Note  string `json:"note"`
}

// Snapshot is an immutable record of every person and relation at one point in time.
//
// Records are shared by pointer between snapshots. A record that belongs to a
// snapshot is never modified; edits build a new Snapshot holding fresh copies of
// the changed records only.
type Snapshot struct {
	Persons   []*Person   `json:"persons"`
	Relations []*Relation `json:"relations"`
}

// PersonFields holds the user-editable attributes of a new person.
type PersonFields struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

// PersonPatch is a partial person update. Nil fields are left untouched.
type PersonPatch struct {
	Name  *string  `json:"name,omitempty"`
	Photo *string  `json:"photo,omitempty"`
	Phone *string  `json:"phone,omitempty"`
	Note  *string  `json:"note,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
}

// RelationPatch is a partial relation update. Nil fields are left untouched.
type RelationPatch struct {
	From  *string `json:"from,omitempty"`
	To    *string `json:"to,omitempty"`
	Label *string `json:"label,omitempty"`
	Note  *string `json:"note,omitempty"`
}

// Stats holds summary counts.
type Stats struct {
	Persons   int
	Relations int
	Dangling  int
}

// Empty returns a snapshot with no persons and no relations.
func Empty() *Snapshot {
	return &Snapshot{
		Persons:   make([]*Person, 0),
		Relations: make([]*Relation, 0),
	}
}

// ─── Query ───

// Person returns the person with the given id, or nil.
func (s *Snapshot) Person(id string) *Person {
	for _, p := range s.Persons {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// PersonByName returns the first person whose name matches exactly, or nil.
func (s *Snapshot) PersonByName(name string) *Person {
	for _, p := range s.Persons {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Relation returns the relation with the given id, or nil.
func (s *Snapshot) Relation(id string) *Relation {
	for _, r := range s.Relations {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// RelationsOf returns outgoing and incoming relations for a person.
func (s *Snapshot) RelationsOf(id string) ([]*Relation, []*Relation) {
	var outgoing, incoming []*Relation
	for _, r := range s.Relations {
		if r.From == id {
			outgoing = append(outgoing, r)
		}
		if r.To == id {
			incoming = append(incoming, r)
		}
	}
	return outgoing, incoming
}

// Dangling returns relations whose endpoints do not reference an existing person.
func (s *Snapshot) Dangling() []*Relation {
	ids := s.personIDs()
	var out []*Relation
	for _, r := range s.Relations {
		if !ids[r.From] || !ids[r.To] {
			out = append(out, r)
		}
	}
	return out
}

// Search finds persons whose name, phone or note contains the query (case-insensitive).
func (s *Snapshot) Search(query string) []*Person {
	q := strings.ToLower(strings.TrimSpace(query))
	var results []*Person
	for _, p := range s.Persons {
		if strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Phone), q) ||
			strings.Contains(strings.ToLower(p.Note), q) {
			results = append(results, p)
		}
	}
	return results
}

// GetStats returns summary statistics.
func (s *Snapshot) GetStats() Stats {
	return Stats{
		Persons:   len(s.Persons),
		Relations: len(s.Relations),
		Dangling:  len(s.Dangling()),
	}
}

func (s *Snapshot) personIDs() map[string]bool {
	ids := make(map[string]bool, len(s.Persons))
	for _, p := range s.Persons {
		ids[p.ID] = true
	}
	return ids
}

// TruncateLabel shortens a label to MaxLabelLength runes for display.
func TruncateLabel(label string) string {
	r := []rune(label)
	if len(r) <= MaxLabelLength {
		return label
	}
	return string(r[:MaxLabelLength])
}

// ValidLabel reports whether a trimmed label is non-empty and displayable in full.
func ValidLabel(label string) bool {
	label = strings.TrimSpace(label)
	return label != "" && len([]rune(label)) <= MaxLabelLength
}
