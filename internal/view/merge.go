package view

import (
	"errors"
	"slices"
)

var (
	// ErrAlreadyGrouped is returned when an id already belongs to another merge group.
	ErrAlreadyGrouped = errors.New("already in another merge group")
	// ErrNotGrouped is returned when a key or id is not part of the addressed group.
	ErrNotGrouped = errors.New("not in merge group")
)

// MergeGroup describes one visual merge group: the person drawn on the canvas
// and the persons folded away behind it.
type MergeGroup struct {
	Key       string   `json:"key"`
	Displayed string   `json:"displayed"`
	Hidden    []string `json:"hidden"`
}

type group struct {
	members   []string // excluding the key, in insertion order
	displayed string
}

// MergeMap is a display-only grouping of persons. It is never part of a
// snapshot, so undo and redo leave it alone.
//
// An id belongs to at most one group, either as its key or as a member.
// Exactly one id of each group is displayed; the rest are hidden.
type MergeMap struct {
	groups map[string]*group
	order  []string
}

// NewMergeMap returns an empty map.
func NewMergeMap() *MergeMap {
	return &MergeMap{groups: make(map[string]*group)}
}

// Group creates the group keyed by key, or extends it, with members. The key
// starts out displayed.
func (m *MergeMap) Group(key string, members ...string) error {
	if owner, ok := m.owner(key); ok && owner != key {
		return ErrAlreadyGrouped
	}
	for _, id := range members {
		if owner, ok := m.owner(id); ok && owner != key {
			return ErrAlreadyGrouped
		}
	}

	g, ok := m.groups[key]
	if !ok {
		g = &group{displayed: key}
		m.groups[key] = g
		m.order = append(m.order, key)
	}
	for _, id := range members {
		if id == key || slices.Contains(g.members, id) {
			continue
		}
		g.members = append(g.members, id)
	}
	return nil
}

// Ungroup removes the group keyed by key. It reports whether the group existed.
func (m *MergeMap) Ungroup(key string) bool {
	if _, ok := m.groups[key]; !ok {
		return false
	}
	delete(m.groups, key)
	m.order = slices.DeleteFunc(m.order, func(k string) bool { return k == key })
	return true
}

// SetDisplayed makes id the visible person of the group keyed by key. When a
// member is displayed the key itself becomes hidden.
func (m *MergeMap) SetDisplayed(key, id string) error {
	g, ok := m.groups[key]
	if !ok {
		return ErrNotGrouped
	}
	if id != key && !slices.Contains(g.members, id) {
		return ErrNotGrouped
	}
	g.displayed = id
	return nil
}

// Groups returns every group in creation order.
func (m *MergeMap) Groups() []MergeGroup {
	if m == nil {
		return nil
	}
	out := make([]MergeGroup, 0, len(m.order))
	for _, key := range m.order {
		g := m.groups[key]
		mg := MergeGroup{Key: key, Displayed: g.displayed, Hidden: make([]string, 0, len(g.members))}
		for _, id := range append([]string{key}, g.members...) {
			if id != g.displayed {
				mg.Hidden = append(mg.Hidden, id)
			}
		}
		out = append(out, mg)
	}
	return out
}

// IsKey reports whether id is the key of a group.
func (m *MergeMap) IsKey(id string) bool {
	if m == nil {
		return false
	}
	_, ok := m.groups[id]
	return ok
}

// Len returns the number of groups.
func (m *MergeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.groups)
}

// Clone returns an independent copy.
func (m *MergeMap) Clone() *MergeMap {
	c := NewMergeMap()
	if m == nil {
		return c
	}
	for _, key := range m.order {
		g := m.groups[key]
		c.groups[key] = &group{members: slices.Clone(g.members), displayed: g.displayed}
		c.order = append(c.order, key)
	}
	return c
}

// owner returns the key of the group id belongs to.
func (m *MergeMap) owner(id string) (string, bool) {
	if _, ok := m.groups[id]; ok {
		return id, true
	}
	for key, g := range m.groups {
		if slices.Contains(g.members, id) {
			return key, true
		}
	}
	return "", false
}
