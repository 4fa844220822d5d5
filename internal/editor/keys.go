package editor

import (
	"fmt"
	"strings"
)

// KeyEvent is a key press with its modifier state.
type KeyEvent struct {
	Key   string `json:"key" validate:"required"`
	Ctrl  bool   `json:"ctrl"`
	Meta  bool   `json:"meta"`
	Shift bool   `json:"shift"`
}

// HandleKey maps undo/redo shortcuts onto the store. Ctrl or Meta with z
// undoes; with y, or with Shift and z, it redoes. It reports whether the
// event was consumed, in which case the default action must be suppressed.
func (s *Store) HandleKey(ev KeyEvent) bool {
	if !ev.Ctrl && !ev.Meta {
		return false
	}
	switch strings.ToLower(ev.Key) {
	case "z":
		if ev.Shift {
			s.Redo()
		} else {
			s.Undo()
		}
		return true
	case "y":
		s.Redo()
		return true
	}
	return false
}

// emacsModifiers are the one-letter modifiers of dash chords like "C-S-z".
var emacsModifiers = map[string]string{"C": "ctrl", "M": "meta", "S": "shift"}

// ParseKey reads a chord such as "ctrl+z", "cmd+shift+z" or "C-y". Modifier
// names are case-insensitive; the letters C, M and S only count in dash form.
func ParseKey(chord string) (KeyEvent, error) {
	chord = strings.TrimSpace(chord)
	if chord == "" {
		return KeyEvent{}, fmt.Errorf("empty key chord")
	}
	sep := "+"
	if !strings.Contains(chord, "+") && strings.Contains(chord, "-") {
		sep = "-"
	}
	parts := strings.Split(chord, sep)

	var ev KeyEvent
	for _, p := range parts[:len(parts)-1] {
		if full, ok := emacsModifiers[p]; ok && sep == "-" {
			p = full
		}
		switch strings.ToLower(p) {
		case "ctrl", "control":
			ev.Ctrl = true
		case "meta", "cmd", "command":
			ev.Meta = true
		case "shift":
			ev.Shift = true
		default:
			return KeyEvent{}, fmt.Errorf("unknown modifier %q in %q", p, chord)
		}
	}
	ev.Key = strings.ToLower(parts[len(parts)-1])
	if ev.Key == "" {
		return KeyEvent{}, fmt.Errorf("missing key in %q", chord)
	}
	return ev, nil
}
