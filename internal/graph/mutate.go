package graph

// Every function in this file is a pure transform: it never modifies the input
// snapshot and returns the input itself when nothing changed.

// ─── Persons ───

// AddPerson appends a person with a fresh id and a random initial position.
func AddPerson(s *Snapshot, fields PersonFields, gen Generator) (*Snapshot, *Person) {
	x, y := gen.Position()
	p := &Person{
		ID:    gen.NewID(),
		Name:  fields.Name,
		Photo: fields.Photo,
		Phone: fields.Phone,
		Note:  fields.Note,
		X:     x,
		Y:     y,
	}
	return &Snapshot{
		Persons:   appendPerson(s.Persons, p),
		Relations: s.Relations,
	}, p
}

// AppendPersons appends already-built person records, keeping existing ones.
func AppendPersons(s *Snapshot, persons []*Person) *Snapshot {
	if len(persons) == 0 {
		return s
	}
	next := make([]*Person, 0, len(s.Persons)+len(persons))
	next = append(next, s.Persons...)
	for _, p := range persons {
		if p != nil {
			next = append(next, p)
		}
	}
	return &Snapshot{Persons: next, Relations: s.Relations}
}

// UpdatePerson replaces the matching person with a shallow-merged copy.
func UpdatePerson(s *Snapshot, id string, patch PersonPatch) *Snapshot {
	idx := indexOfPerson(s.Persons, id)
	if idx < 0 {
		return s
	}
	updated := *s.Persons[idx]
	patch.apply(&updated)

	persons := make([]*Person, len(s.Persons))
	copy(persons, s.Persons)
	persons[idx] = &updated
	return &Snapshot{Persons: persons, Relations: s.Relations}
}

// DeletePerson removes a person and every relation that touches it.
func DeletePerson(s *Snapshot, id string) *Snapshot {
	if indexOfPerson(s.Persons, id) < 0 {
		return s
	}
	persons := make([]*Person, 0, len(s.Persons)-1)
	for _, p := range s.Persons {
		if p.ID != id {
			persons = append(persons, p)
		}
	}

	// Cascade: remove all relations involving this person
	relations := make([]*Relation, 0, len(s.Relations))
	for _, r := range s.Relations {
		if r.From != id && r.To != id {
			relations = append(relations, r)
		}
	}
	return &Snapshot{Persons: persons, Relations: relations}
}

// ─── Relations ───

// AddRelation appends a relation with a fresh id. Self-loops are accepted here;
// interactive callers reject them before calling in.
func AddRelation(s *Snapshot, from, to, label, note string, gen Generator) (*Snapshot, *Relation) {
	r := &Relation{
		ID:    gen.NewID(),
		From:  from,
		To:    to,
		Label: label,
		Note:  note,
	}
	relations := make([]*Relation, 0, len(s.Relations)+1)
	relations = append(relations, s.Relations...)
	relations = append(relations, r)
	return &Snapshot{Persons: s.Persons, Relations: relations}, r
}

// AppendRelations appends already-built relation records.
func AppendRelations(s *Snapshot, relations []*Relation) *Snapshot {
	if len(relations) == 0 {
		return s
	}
	next := make([]*Relation, 0, len(s.Relations)+len(relations))
	next = append(next, s.Relations...)
	for _, r := range relations {
		if r != nil {
			next = append(next, r)
		}
	}
	return &Snapshot{Persons: s.Persons, Relations: next}
}

// UpdateRelation replaces the matching relation with a shallow-merged copy.
func UpdateRelation(s *Snapshot, id string, patch RelationPatch) *Snapshot {
	idx := indexOfRelation(s.Relations, id)
	if idx < 0 {
		return s
	}
	updated := *s.Relations[idx]
	patch.apply(&updated)

	relations := make([]*Relation, len(s.Relations))
	copy(relations, s.Relations)
	relations[idx] = &updated
	return &Snapshot{Persons: s.Persons, Relations: relations}
}

// DeleteRelation removes a single relation.
func DeleteRelation(s *Snapshot, id string) *Snapshot {
	idx := indexOfRelation(s.Relations, id)
	if idx < 0 {
		return s
	}
	relations := make([]*Relation, 0, len(s.Relations)-1)
	relations = append(relations, s.Relations[:idx]...)
	relations = append(relations, s.Relations[idx+1:]...)
	return &Snapshot{Persons: s.Persons, Relations: relations}
}

// ─── helpers ───

func (p PersonPatch) apply(dst *Person) {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Photo != nil {
		dst.Photo = *p.Photo
	}
	if p.Phone != nil {
		dst.Phone = *p.Phone
	}
	if p.Note != nil {
		dst.Note = *p.Note
	}
	if p.X != nil {
		dst.X = *p.X
	}
	if p.Y != nil {
		dst.Y = *p.Y
	}
}

// Empty reports whether the patch changes nothing.
func (p PersonPatch) Empty() bool {
	return p.Name == nil && p.Photo == nil && p.Phone == nil && p.Note == nil && p.X == nil && p.Y == nil
}

func (p RelationPatch) apply(dst *Relation) {
	if p.From != nil {
		dst.From = *p.From
	}
	if p.To != nil {
		dst.To = *p.To
	}
	if p.Label != nil {
		dst.Label = *p.Label
	}
	if p.Note != nil {
		dst.Note = *p.Note
	}
}

// Empty reports whether the patch changes nothing.
func (p RelationPatch) Empty() bool {
	return p.From == nil && p.To == nil && p.Label == nil && p.Note == nil
}

func appendPerson(persons []*Person, p *Person) []*Person {
	next := make([]*Person, 0, len(persons)+1)
	next = append(next, persons...)
	return append(next, p)
}

func indexOfPerson(persons []*Person, id string) int {
	for i, p := range persons {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func indexOfRelation(relations []*Relation, id string) int {
	for i, r := range relations {
		if r.ID == id {
			return i
		}
	}
	return -1
}
