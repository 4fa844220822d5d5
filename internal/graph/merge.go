package graph

type pairKey struct {
	from, to string
}

// MergePersons folds two persons into one in a single transform.
//
// keepFirst selects whose record survives: person1 when true, person2 otherwise.
// Relations referencing the removed person are redirected to the survivor, any
// relation left as a self-loop is dropped, and relations sharing a (From, To)
// pair are deduplicated keeping the first occurrence.
func MergePersons(s *Snapshot, person1, person2 string, keepFirst bool) *Snapshot {
	if person1 == person2 {
		return s
	}
	p1, p2 := s.Person(person1), s.Person(person2)
	if p1 == nil || p2 == nil {
		return s
	}

	keep, remove := p1, p2
	if !keepFirst {
		keep, remove = p2, p1
	}

	seen := make(map[pairKey]bool, len(s.Relations))
	relations := make([]*Relation, 0, len(s.Relations))
	for _, r := range s.Relations {
		rewritten := r
		if r.From == remove.ID || r.To == remove.ID {
			cp := *r
			if cp.From == remove.ID {
				cp.From = keep.ID
			}
			if cp.To == remove.ID {
				cp.To = keep.ID
			}
			rewritten = &cp
		}
		if rewritten.From == rewritten.To {
			continue
		}
		key := pairKey{rewritten.From, rewritten.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		relations = append(relations, rewritten)
	}

	persons := make([]*Person, 0, len(s.Persons)-1)
	for _, p := range s.Persons {
		if p.ID != remove.ID {
			persons = append(persons, p)
		}
	}
	return &Snapshot{Persons: persons, Relations: relations}
}
