// Package editor holds the live editing session: the undo log of snapshots,
// the current selection, the visual merge map and connect mode.
package editor

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/history"
	"github.com/msalah0e/relmap/internal/metrics"
	"github.com/msalah0e/relmap/internal/view"
)

var (
	// ErrUnknownPerson is returned when a relation endpoint names no person.
	ErrUnknownPerson = errors.New("from and to must name existing persons")
	// ErrUnknownRelation is returned when a relation id resolves to nothing.
	ErrUnknownRelation = errors.New("relation not found")
)

// Options configures a Store. Zero values pick defaults.
type Options struct {
	Limit     int
	Generator graph.Generator
	Logger    *zap.Logger
	Metrics   *metrics.Collector
}

// Store applies user intents to the current snapshot. Every mutation runs the
// pure graph transform and the history push under one lock, so observers only
// ever see whole snapshots, applied in call order.
type Store struct {
	mu          sync.Mutex
	log         *history.Log[*graph.Snapshot]
	gen         graph.Generator
	builder     view.Builder
	logger      *zap.Logger
	metrics     *metrics.Collector
	sel         view.Selection
	merges      *view.MergeMap
	interaction Interaction
	subs        []func(*graph.Snapshot)
	seq         uint64 // bumped under mu on every snapshot change

	notifyMu  sync.Mutex
	delivered uint64
}

// New returns a store whose history starts at initial. A nil initial starts empty.
func New(initial *graph.Snapshot, opts Options) *Store {
	if initial == nil {
		initial = graph.Empty()
	}
	if opts.Generator == nil {
		opts.Generator = graph.NewGenerator()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Store{
		log:     history.NewWithLimit(initial, opts.Limit),
		gen:     opts.Generator,
		builder: view.Builder{Logger: opts.Logger},
		logger:  opts.Logger,
		metrics: opts.Metrics,
		merges:  view.NewMergeMap(),
	}
}

// Subscribe registers fn to run after every snapshot change, including undo,
// redo and load. fn runs outside the store lock and must not mutate the
// store. Calls arrive in change order; when changes race, a subscriber may
// skip an intermediate snapshot but never sees an older one after a newer.
func (s *Store) Subscribe(fn func(*graph.Snapshot)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// ─── Read ───

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() *graph.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Current()
}

// View builds the render list for the current state.
func (s *Store) View() view.View {
	s.mu.Lock()
	snap, sel, merges := s.log.Current(), s.sel, s.merges.Clone()
	s.mu.Unlock()
	return s.builder.Build(snap, sel, merges)
}

func (s *Store) Selection() view.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.CanUndo()
}

func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.CanRedo()
}

// HistoryLen returns the number of entries in the undo log and the cursor.
func (s *Store) HistoryLen() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.Len(), s.log.Cursor()
}

// History returns a serializable copy of the undo log.
func (s *Store) History() history.State[*graph.Snapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.log.State()
}

// RestoreHistory replaces the undo log with a saved one.
func (s *Store) RestoreHistory(st history.State[*graph.Snapshot]) bool {
	s.mu.Lock()
	ok := s.log.Restore(st)
	snap := s.log.Current()
	var seq uint64
	if ok {
		s.pruneSelection(snap)
		seq = s.bump()
	}
	s.mu.Unlock()
	if ok {
		s.notify(seq, snap)
	}
	return ok
}

// ─── Persons ───

// AddPerson creates a person at a random position.
func (s *Store) AddPerson(fields graph.PersonFields) *graph.Person {
	var added *graph.Person
	s.apply("add_person", func(cur *graph.Snapshot) *graph.Snapshot {
		next, p := graph.AddPerson(cur, fields, s.gen)
		added = p
		return next
	})
	return added
}

// UpdatePerson reports whether a person with id existed.
func (s *Store) UpdatePerson(id string, patch graph.PersonPatch) bool {
	if patch.Empty() {
		return false
	}
	return s.apply("update_person", func(cur *graph.Snapshot) *graph.Snapshot {
		return graph.UpdatePerson(cur, id, patch)
	})
}

// MovePerson stores a new canvas position, as at the end of a drag.
func (s *Store) MovePerson(id string, x, y float64) bool {
	return s.apply("move_person", func(cur *graph.Snapshot) *graph.Snapshot {
		return graph.UpdatePerson(cur, id, graph.PersonPatch{X: &x, Y: &y})
	})
}

func (s *Store) DeletePerson(id string) bool {
	return s.apply("delete_person", func(cur *graph.Snapshot) *graph.Snapshot {
		return graph.DeletePerson(cur, id)
	})
}

// ImportPersons appends already-built persons as one undoable step.
func (s *Store) ImportPersons(persons []*graph.Person) int {
	if !s.apply("import_persons", func(cur *graph.Snapshot) *graph.Snapshot {
		return graph.AppendPersons(cur, persons)
	}) {
		return 0
	}
	return countNonNil(persons)
}

// ImportRelations appends already-built relations as one undoable step.
func (s *Store) ImportRelations(relations []*graph.Relation) int {
	if !s.apply("import_relations", func(cur *graph.Snapshot) *graph.Snapshot {
		return graph.AppendRelations(cur, relations)
	}) {
		return 0
	}
	return countNonNil(relations)
}

// ─── Relations ───

// AddRelation links two existing persons. Endpoints are checked under the
// store lock, so a concurrent delete cannot leave the relation dangling.
func (s *Store) AddRelation(from, to, label, note string) (*graph.Relation, error) {
	var added *graph.Relation
	var err error
	s.apply("add_relation", func(cur *graph.Snapshot) *graph.Snapshot {
		if cur.Person(from) == nil || cur.Person(to) == nil {
			err = ErrUnknownPerson
			return cur
		}
		next, r := graph.AddRelation(cur, from, to, label, note, s.gen)
		added = r
		return next
	})
	return added, err
}

// UpdateRelation applies patch to relation id. It reports false with a nil
// error for an empty patch.
func (s *Store) UpdateRelation(id string, patch graph.RelationPatch) (bool, error) {
	if patch.Empty() {
		return false, nil
	}
	var err error
	ok := s.apply("update_relation", func(cur *graph.Snapshot) *graph.Snapshot {
		r := cur.Relation(id)
		if r == nil {
			err = ErrUnknownRelation
			return cur
		}
		if (patch.From != nil && cur.Person(*patch.From) == nil) ||
			(patch.To != nil && cur.Person(*patch.To) == nil) {
			err = ErrUnknownPerson
			return cur
		}
		return graph.UpdateRelation(cur, id, patch)
	})
	return ok, err
}

func (s *Store) DeleteRelation(id string) bool {
	return s.apply("delete_relation", func(cur *graph.Snapshot) *graph.Snapshot {
		return graph.DeleteRelation(cur, id)
	})
}

// Merge folds person1 and person2 into one person in a single undoable step.
// A selection on the removed person moves to the survivor.
func (s *Store) Merge(person1, person2 string, keepFirst bool) bool {
	keep, remove := person1, person2
	if !keepFirst {
		keep, remove = person2, person1
	}
	return s.apply("merge", func(cur *graph.Snapshot) *graph.Snapshot {
		next := graph.MergePersons(cur, person1, person2, keepFirst)
		if next != cur && s.sel.PersonID == remove {
			s.sel.PersonID = keep
		}
		return next
	})
}

// Load replaces the whole history with s, as when opening a file.
func (s *Store) Load(snap *graph.Snapshot) {
	if snap == nil {
		snap = graph.Empty()
	}
	s.mu.Lock()
	s.log.Reset(snap)
	s.sel = view.Selection{}
	s.interaction = Interaction{}
	s.metrics.Mutation("load", s.log.Len())
	seq := s.bump()
	s.mu.Unlock()
	s.notify(seq, snap)
}

// Replace pushes snap as one undoable step, as when a saved snapshot is
// newer than the saved history.
func (s *Store) Replace(snap *graph.Snapshot) bool {
	if snap == nil {
		return false
	}
	return s.apply("replace", func(*graph.Snapshot) *graph.Snapshot {
		return snap
	})
}

// ─── History ───

func (s *Store) Undo() bool {
	return s.step(s.log.Undo, s.metrics.Undo)
}

func (s *Store) Redo() bool {
	return s.step(s.log.Redo, s.metrics.Redo)
}

func (s *Store) step(move func() bool, record func()) bool {
	s.mu.Lock()
	if !move() {
		s.mu.Unlock()
		return false
	}
	record()
	snap := s.log.Current()
	s.pruneSelection(snap)
	seq := s.bump()
	s.mu.Unlock()
	s.notify(seq, snap)
	return true
}

// ─── Selection ───

// SelectPerson selects a person and clears any relation selection.
func (s *Store) SelectPerson(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log.Current().Person(id) == nil {
		return false
	}
	s.sel = view.Selection{PersonID: id}
	return true
}

// SelectRelation selects a relation and clears any person selection.
func (s *Store) SelectRelation(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.log.Current().Relation(id) == nil {
		return false
	}
	s.sel = view.Selection{RelationID: id}
	return true
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.sel = view.Selection{}
	s.mu.Unlock()
}

// ─── Visual merge ───

// VisualMerge folds members behind key on the canvas. The snapshot is untouched.
func (s *Store) VisualMerge(key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merges.Group(key, members...)
}

func (s *Store) VisualUnmerge(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merges.Ungroup(key)
}

func (s *Store) SetDisplayed(key, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merges.SetDisplayed(key, id)
}

func (s *Store) MergeGroups() []view.MergeGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merges.Groups()
}

// ─── helpers ───

// apply runs fn against the current snapshot and pushes the result. A
// transform that returns its input unchanged is not recorded.
func (s *Store) apply(op string, fn func(*graph.Snapshot) *graph.Snapshot) bool {
	s.mu.Lock()
	cur := s.log.Current()
	next := fn(cur)
	if next == cur {
		s.mu.Unlock()
		return false
	}
	s.log.Push(next)
	s.pruneSelection(next)
	s.metrics.Mutation(op, s.log.Len())
	seq := s.bump()
	s.mu.Unlock()

	s.logger.Debug("mutation applied",
		zap.String("op", op),
		zap.Int("persons", len(next.Persons)),
		zap.Int("relations", len(next.Relations)))
	s.notify(seq, next)
	return true
}

// pruneSelection drops selections that no longer resolve. Caller holds mu.
func (s *Store) pruneSelection(snap *graph.Snapshot) {
	if s.sel.PersonID != "" && snap.Person(s.sel.PersonID) == nil {
		s.sel.PersonID = ""
	}
	if s.sel.RelationID != "" && snap.Relation(s.sel.RelationID) == nil {
		s.sel.RelationID = ""
	}
	if s.interaction.Mode == Connecting && snap.Person(s.interaction.From) == nil {
		s.interaction = Interaction{}
	}
}

// bump returns the sequence number of a new snapshot change. Caller holds mu.
func (s *Store) bump() uint64 {
	s.seq++
	return s.seq
}

// notify delivers snap to subscribers unless a later change already went out.
func (s *Store) notify(seq uint64, snap *graph.Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq

	s.mu.Lock()
	subs := make([]func(*graph.Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func countNonNil[T any](items []*T) int {
	n := 0
	for _, it := range items {
		if it != nil {
			n++
		}
	}
	return n
}
