package editor

import (
	"strings"

	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/view"
)

// Mode is the canvas interaction mode.
type Mode int

const (
	Idle Mode = iota
	Connecting
)

func (m Mode) String() string {
	if m == Connecting {
		return "connecting"
	}
	return "idle"
}

// Interaction is the connect-mode state. From is set only while Connecting.
type Interaction struct {
	Mode Mode   `json:"mode"`
	From string `json:"from,omitempty"`
}

// LabelPrompt asks the user for a relation label. ok is false when the user
// dismissed the prompt.
type LabelPrompt func() (label string, ok bool)

func (s *Store) Interaction() Interaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interaction
}

// StartConnect enters connect mode from the given person. Unknown persons are
// ignored.
func (s *Store) StartConnect(from string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log.Current().Person(from) == nil {
		return false
	}
	s.interaction = Interaction{Mode: Connecting, From: from}
	return true
}

// CancelConnect returns to Idle.
func (s *Store) CancelConnect() {
	s.mu.Lock()
	s.interaction = Interaction{}
	s.mu.Unlock()
}

// ClickPerson handles a click on a person node.
//
// Idle: the person becomes selected. Connecting: a click on any other person
// asks prompt for a label and adds the relation when the trimmed label is
// non-empty and at most graph.MaxLabelLength runes. Either way the store is
// back in Idle afterwards. The added relation, if any, is returned.
func (s *Store) ClickPerson(id string, prompt LabelPrompt) *graph.Relation {
	s.mu.Lock()
	in := s.interaction
	if in.Mode != Connecting {
		if s.log.Current().Person(id) != nil {
			s.sel = view.Selection{PersonID: id}
		}
		s.mu.Unlock()
		return nil
	}
	s.interaction = Interaction{}
	target := s.log.Current().Person(id)
	s.mu.Unlock()

	if target == nil || id == in.From || prompt == nil {
		return nil
	}
	label, ok := prompt()
	if !ok || !graph.ValidLabel(label) {
		return nil
	}
	r, _ := s.AddRelation(in.From, id, strings.TrimSpace(label), "")
	return r
}

// ClickRelation selects a relation.
func (s *Store) ClickRelation(id string) bool {
	return s.SelectRelation(id)
}

// ClickCanvas handles a click on empty canvas: selection is cleared and
// connect mode is left.
func (s *Store) ClickCanvas() {
	s.mu.Lock()
	s.sel = view.Selection{}
	s.interaction = Interaction{}
	s.mu.Unlock()
}
