// Package view derives what the canvas draws from a snapshot and the
// ephemeral editor state. Nothing here modifies the snapshot.
package view

import (
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/graph"
)

// CurveOffset is the perpendicular distance a bidirectional edge bows away
// from the straight segment.
const CurveOffset = 20.0

// Node radii.
const (
	NodeRadius   = 25.0
	MergedRadius = 32.0
)

// Palette.
const (
	colorNodeFill       = "#f3f4f6"
	colorNodeStroke     = "#9ca3af"
	colorSelectedFill   = "#3b82f6"
	colorSelectedStroke = "#1d4ed8"
	colorMergedFill     = "#fde68a"
	colorMergedStroke   = "#d97706"
	colorEdge           = "#6b7280"
	colorSelectedEdge   = "#3b82f6"
)

// Selection is the currently selected person or relation, if any.
type Selection struct {
	PersonID   string `json:"person_id,omitempty"`
	RelationID string `json:"relation_id,omitempty"`
}

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a drawable person.
type Node struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Photo    string  `json:"photo,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Radius   float64 `json:"radius"`
	Fill     string  `json:"fill"`
	Stroke   string  `json:"stroke"`
	Selected bool    `json:"selected"`
	Merged   bool    `json:"merged"`
}

// Edge is a drawable relation. Offset is signed in the frame running from the
// endpoint with the smaller person id to the larger one, so the two members of
// a bidirectional pair always carry opposite signs.
type Edge struct {
	ID           string  `json:"id"`
	From         string  `json:"from"`
	To           string  `json:"to"`
	Label        string  `json:"label"`
	DisplayLabel string  `json:"display_label"`
	Offset       float64 `json:"offset"`
	Start        Point   `json:"start"`
	Control      Point   `json:"control"`
	End          Point   `json:"end"`
	LabelAt      Point   `json:"label_at"`
	Path         string  `json:"path"`
	Stroke       string  `json:"stroke"`
	Selected     bool    `json:"selected"`
}

// View is the full render list.
type View struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Builder computes views. A nil Logger discards diagnostics.
type Builder struct {
	Logger *zap.Logger
}

// Build computes a view with a silent builder.
func Build(s *graph.Snapshot, sel Selection, merges *MergeMap) View {
	return Builder{}.Build(s, sel, merges)
}

// Build computes the nodes and edges to draw.
func (b Builder) Build(s *graph.Snapshot, sel Selection, merges *MergeMap) View {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}

	visible := visiblePersons(s, merges)
	byID := make(map[string]*graph.Person, len(s.Persons))
	for _, p := range s.Persons {
		byID[p.ID] = p
	}
	shown := make(map[string]bool, len(visible))

	v := View{Nodes: make([]Node, 0, len(visible)), Edges: make([]Edge, 0, len(s.Relations))}
	for _, p := range visible {
		shown[p.ID] = true
		v.Nodes = append(v.Nodes, node(p, sel, merges.IsKey(p.ID)))
	}

	rels := make([]*graph.Relation, 0, len(s.Relations))
	for _, r := range s.Relations {
		if byID[r.From] == nil || byID[r.To] == nil {
			log.Debug("skipping dangling relation",
				zap.String("relation", r.ID),
				zap.String("from", r.From),
				zap.String("to", r.To))
			continue
		}
		if !shown[r.From] || !shown[r.To] {
			continue
		}
		rels = append(rels, r)
	}

	offsets := curveOffsets(rels)
	for _, r := range rels {
		v.Edges = append(v.Edges, edge(r, byID[r.From], byID[r.To], offsets[r.ID], sel))
	}
	return v
}

// visiblePersons applies the merge map: hidden ids are dropped and every
// group's displayed person is kept. Snapshot order is preserved.
func visiblePersons(s *graph.Snapshot, merges *MergeMap) []*graph.Person {
	hidden := make(map[string]bool)
	displayed := make(map[string]bool)
	for _, g := range merges.Groups() {
		for _, id := range g.Hidden {
			hidden[id] = true
		}
		displayed[g.Displayed] = true
	}

	seen := make(map[string]bool, len(s.Persons))
	out := make([]*graph.Person, 0, len(s.Persons))
	for _, p := range s.Persons {
		if seen[p.ID] {
			continue
		}
		if hidden[p.ID] && !displayed[p.ID] {
			continue
		}
		seen[p.ID] = true
		out = append(out, p)
	}
	return out
}

// curveOffsets assigns ±CurveOffset to every relation whose reverse is also
// drawn and 0 to the rest. The side is decided once per direction: the
// smallest relation id between the two persons picks its side by idSide, every
// relation running the same way shares it and the other direction takes the
// opposite, so parallel edges never land on a reverse edge's curve.
func curveOffsets(rels []*graph.Relation) map[string]float64 {
	type pair struct{ from, to string }
	byPair := make(map[pair][]*graph.Relation)
	for _, r := range rels {
		k := pair{r.From, r.To}
		byPair[k] = append(byPair[k], r)
	}

	offsets := make(map[string]float64, len(rels))
	for _, r := range rels {
		forward, reverse := byPair[pair{r.From, r.To}], byPair[pair{r.To, r.From}]
		if len(reverse) == 0 || r.From == r.To {
			offsets[r.ID] = 0
			continue
		}
		lead, leadForward := smallestID(forward), true
		if back := smallestID(reverse); back.ID < lead.ID {
			lead, leadForward = back, false
		}
		side := idSide(lead.ID)
		if !leadForward {
			side = -side
		}
		offsets[r.ID] = side * CurveOffset
	}
	return offsets
}

func smallestID(rels []*graph.Relation) *graph.Relation {
	first := rels[0]
	for _, r := range rels[1:] {
		if r.ID < first.ID {
			first = r
		}
	}
	return first
}

// idSide returns +1 when the sum of the first and last rune codes of id is
// even and -1 when it is odd.
func idSide(id string) float64 {
	runes := []rune(id)
	if len(runes) == 0 {
		return 1
	}
	if (int(runes[0])+int(runes[len(runes)-1]))%2 == 0 {
		return 1
	}
	return -1
}

func node(p *graph.Person, sel Selection, merged bool) Node {
	n := Node{
		ID:     p.ID,
		Name:   p.Name,
		Photo:  p.Photo,
		X:      p.X,
		Y:      p.Y,
		Radius: NodeRadius,
		Fill:   colorNodeFill,
		Stroke: colorNodeStroke,
		Merged: merged,
	}
	if merged {
		n.Radius = MergedRadius
		n.Fill = colorMergedFill
		n.Stroke = colorMergedStroke
	}
	if sel.PersonID == p.ID {
		n.Selected = true
		n.Fill = colorSelectedFill
		n.Stroke = colorSelectedStroke
	}
	return n
}

func edge(r *graph.Relation, from, to *graph.Person, offset float64, sel Selection) Edge {
	start := Point{from.X, from.Y}
	end := Point{to.X, to.Y}

	// Perpendicular is taken in the canonical frame of the pair.
	a, b := from, to
	if a.ID > b.ID {
		a, b = b, a
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	dist := math.Hypot(dx, dy)

	control := Point{(start.X + end.X) / 2, (start.Y + end.Y) / 2}
	if dist > 0 && offset != 0 {
		control.X += -dy / dist * offset
		control.Y += dx / dist * offset
	}

	e := Edge{
		ID:           r.ID,
		From:         r.From,
		To:           r.To,
		Label:        r.Label,
		DisplayLabel: graph.TruncateLabel(r.Label),
		Offset:       offset,
		Start:        start,
		Control:      control,
		End:          end,
		LabelAt:      control,
		Path:         quadPath(start, control, end),
		Stroke:       colorEdge,
	}
	if sel.RelationID == r.ID {
		e.Selected = true
		e.Stroke = colorSelectedEdge
	}
	return e
}

func quadPath(start, control, end Point) string {
	return "M " + num(start.X) + " " + num(start.Y) +
		" Q " + num(control.X) + " " + num(control.Y) +
		" " + num(end.X) + " " + num(end.Y)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
