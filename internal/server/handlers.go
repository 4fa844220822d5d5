package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/msalah0e/relmap/internal/codec"
	"github.com/msalah0e/relmap/internal/editor"
	"github.com/msalah0e/relmap/internal/graph"
	"github.com/msalah0e/relmap/internal/view"
)

// ─── Requests ───

type personRequest struct {
	Name  string `json:"name" validate:"required"`
	Photo string `json:"photo"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

type moveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type relationRequest struct {
	From  string `json:"from" validate:"required"`
	To    string `json:"to" validate:"required,nefield=From"`
	Label string `json:"label" validate:"required,label"`
	Note  string `json:"note"`
}

type relationPatchRequest struct {
	From  *string `json:"from,omitempty"`
	To    *string `json:"to,omitempty"`
	Label *string `json:"label,omitempty" validate:"omitempty,label"`
	Note  *string `json:"note,omitempty"`
}

type mergeRequest struct {
	Person1   string `json:"person1" validate:"required"`
	Person2   string `json:"person2" validate:"required"`
	KeepFirst *bool  `json:"keep_first"`
}

type selectRequest struct {
	PersonID   string `json:"person_id" validate:"required_without=RelationID"`
	RelationID string `json:"relation_id"`
}

type connectRequest struct {
	From string `json:"from" validate:"required"`
}

type clickRequest struct {
	PersonID string `json:"person_id" validate:"required"`
	Label    string `json:"label"`
}

type visualMergeRequest struct {
	Key     string   `json:"key" validate:"required"`
	Members []string `json:"members" validate:"required,min=1,dive,required"`
}

type displayedRequest struct {
	ID string `json:"id" validate:"required"`
}

// ─── Responses ───

type historyInfo struct {
	Len    int `json:"len"`
	Cursor int `json:"cursor"`
}

type stateResponse struct {
	Persons     int                `json:"persons"`
	Relations   int                `json:"relations"`
	Dangling    int                `json:"dangling"`
	Selection   view.Selection     `json:"selection"`
	Interaction editor.Interaction `json:"interaction"`
	CanUndo     bool               `json:"can_undo"`
	CanRedo     bool               `json:"can_redo"`
	History     historyInfo        `json:"history"`
	Merges      []view.MergeGroup  `json:"merges"`
}

type changedResponse struct {
	Changed bool `json:"changed"`
}

type importResponse struct {
	Imported int `json:"imported"`
}

func (s *Server) state() stateResponse {
	stats := s.store.Snapshot().GetStats()
	n, cursor := s.store.HistoryLen()
	merges := s.store.MergeGroups()
	if merges == nil {
		merges = []view.MergeGroup{}
	}
	return stateResponse{
		Persons:     stats.Persons,
		Relations:   stats.Relations,
		Dangling:    stats.Dangling,
		Selection:   s.store.Selection(),
		Interaction: s.store.Interaction(),
		CanUndo:     s.store.CanUndo(),
		CanRedo:     s.store.CanRedo(),
		History:     historyInfo{Len: n, Cursor: cursor},
		Merges:      merges,
	}
}

// ─── Pages ───

func (s *Server) handleCanvas(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, view.HTML(s.store.View(), s.cfg.Title))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.View())
}

// ─── Persons ───

func (s *Server) handleListPersons(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	persons := snap.Persons
	if q := r.URL.Query().Get("q"); q != "" {
		persons = snap.Search(q)
	}
	if persons == nil {
		persons = []*graph.Person{}
	}
	writeJSON(w, http.StatusOK, persons)
}

func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if !decode(w, r, &req) {
		return
	}
	p := s.store.AddPerson(graph.PersonFields{
		Name:  strings.TrimSpace(req.Name),
		Photo: req.Photo,
		Phone: req.Phone,
		Note:  req.Note,
	})
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p := s.store.Snapshot().Person(id)
	if p == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}
	outgoing, incoming := s.store.Snapshot().RelationsOf(id)
	writeJSON(w, http.StatusOK, struct {
		*graph.Person
		Outgoing []*graph.Relation `json:"outgoing"`
		Incoming []*graph.Relation `json:"incoming"`
	}{p, nonNil(outgoing), nonNil(incoming)})
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.store.Snapshot().Person(id) == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}
	var patch graph.PersonPatch
	if !decode(w, r, &patch) {
		return
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		writeError(w, http.StatusBadRequest, "name must not be empty")
		return
	}
	s.store.UpdatePerson(id, patch)
	writeJSON(w, http.StatusOK, s.store.Snapshot().Person(id))
}

func (s *Server) handleMovePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req moveRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.store.MovePerson(id, req.X, req.Y) && s.store.Snapshot().Person(id) == nil {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot().Person(id))
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if !s.store.DeletePerson(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Relations ───

func (s *Server) handleListRelations(w http.ResponseWriter, _ *http.Request) {
	relations := s.store.Snapshot().Relations
	if relations == nil {
		relations = []*graph.Relation{}
	}
	writeJSON(w, http.StatusOK, relations)
}

func (s *Server) handleAddRelation(w http.ResponseWriter, r *http.Request) {
	var req relationRequest
	if !decode(w, r, &req) {
		return
	}
	rel, err := s.store.AddRelation(req.From, req.To, strings.TrimSpace(req.Label), req.Note)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (s *Server) handleGetRelation(w http.ResponseWriter, r *http.Request) {
	rel := s.store.Snapshot().Relation(chi.URLParam(r, "id"))
	if rel == nil {
		writeError(w, http.StatusNotFound, "relation not found")
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (s *Server) handleUpdateRelation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cur := s.store.Snapshot().Relation(id)
	if cur == nil {
		writeError(w, http.StatusNotFound, "relation not found")
		return
	}
	var req relationPatchRequest
	if !decode(w, r, &req) {
		return
	}
	from, to := cur.From, cur.To
	if req.From != nil {
		from = *req.From
	}
	if req.To != nil {
		to = *req.To
	}
	if from == to {
		writeError(w, http.StatusBadRequest, "to must differ from from")
		return
	}
	if req.Label != nil {
		trimmed := strings.TrimSpace(*req.Label)
		req.Label = &trimmed
	}
	patch := graph.RelationPatch{From: req.From, To: req.To, Label: req.Label, Note: req.Note}
	if _, err := s.store.UpdateRelation(id, patch); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, editor.ErrUnknownRelation) {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot().Relation(id))
}

func (s *Server) handleDeleteRelation(w http.ResponseWriter, r *http.Request) {
	if !s.store.DeleteRelation(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "relation not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Merge / history ───

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if !decode(w, r, &req) {
		return
	}
	keepFirst := req.KeepFirst == nil || *req.KeepFirst
	writeJSON(w, http.StatusOK, changedResponse{Changed: s.store.Merge(req.Person1, req.Person2, keepFirst)})
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	s.store.Undo()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleRedo(w http.ResponseWriter, _ *http.Request) {
	s.store.Redo()
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var ev editor.KeyEvent
	if !decode(w, r, &ev) {
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Handled bool `json:"handled"`
		stateResponse
	}{s.store.HandleKey(ev), s.state()})
}

// ─── Selection / connect ───

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decode(w, r, &req) {
		return
	}
	var ok bool
	if req.PersonID != "" {
		ok = s.store.SelectPerson(req.PersonID)
	} else {
		ok = s.store.SelectRelation(req.RelationID)
	}
	if !ok {
		writeError(w, http.StatusNotFound, "nothing to select")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Selection())
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.store.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStartConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.store.StartConnect(req.From) {
		writeError(w, http.StatusNotFound, "person not found")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Interaction())
}

func (s *Server) handleCancelConnect(w http.ResponseWriter, _ *http.Request) {
	s.store.CancelConnect()
	w.WriteHeader(http.StatusNoContent)
}

// handleConnectClick is a click on a person node. In connect mode the label
// in the body answers the label prompt; an empty label dismisses it.
func (s *Server) handleConnectClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if !decode(w, r, &req) {
		return
	}
	rel := s.store.ClickPerson(req.PersonID, func() (string, bool) {
		return req.Label, req.Label != ""
	})
	writeJSON(w, http.StatusOK, struct {
		Relation    *graph.Relation    `json:"relation"`
		Selection   view.Selection     `json:"selection"`
		Interaction editor.Interaction `json:"interaction"`
	}{rel, s.store.Selection(), s.store.Interaction()})
}

func (s *Server) handleCanvasClick(w http.ResponseWriter, _ *http.Request) {
	s.store.ClickCanvas()
	w.WriteHeader(http.StatusNoContent)
}

// ─── Visual merge ───

func (s *Server) handleListVisualMerges(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.state().Merges)
}

func (s *Server) handleVisualMerge(w http.ResponseWriter, r *http.Request) {
	var req visualMergeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.VisualMerge(req.Key, req.Members...); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.state().Merges)
}

func (s *Server) handleVisualUnmerge(w http.ResponseWriter, r *http.Request) {
	if !s.store.VisualUnmerge(chi.URLParam(r, "key")) {
		writeError(w, http.StatusNotFound, "merge group not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDisplayed(w http.ResponseWriter, r *http.Request) {
	var req displayedRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.store.SetDisplayed(chi.URLParam(r, "key"), req.ID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.state().Merges)
}

// ─── Export ───

func (s *Server) handleExportJSON(w http.ResponseWriter, _ *http.Request) {
	data, err := codec.EncodeJSON(s.store.Snapshot())
	if err != nil {
		s.logger.Error("export json", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	attach(w, "application/json", codec.JSONFilename)
	_, _ = w.Write(data)
}

func (s *Server) handleExportPersonsCSV(w http.ResponseWriter, _ *http.Request) {
	attach(w, "text/csv; charset=utf-8", codec.PersonsCSVFilename)
	_, _ = io.WriteString(w, codec.PersonsCSV(s.store.Snapshot().Persons))
}

func (s *Server) handleExportRelationsCSV(w http.ResponseWriter, _ *http.Request) {
	attach(w, "text/csv; charset=utf-8", codec.RelationsCSVFilename)
	_, _ = io.WriteString(w, codec.RelationsCSV(s.store.Snapshot()))
}

func (s *Server) handleExportDOT(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
	_, _ = io.WriteString(w, view.DOT(s.store.View()))
}

// ─── Import ───

// handleImportJSON replaces the whole document. Malformed input leaves the
// state untouched.
func (s *Server) handleImportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	snap, err := codec.DecodeJSON(data)
	if err != nil {
		s.importFailed(w, err)
		return
	}
	s.store.Load(snap)
	writeJSON(w, http.StatusOK, s.state())
}

func (s *Server) handleImportPersonsCSV(w http.ResponseWriter, r *http.Request) {
	persons, err := codec.ParsePersonsCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes), s.cfg.Generator)
	if err != nil {
		s.importFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Imported: s.store.ImportPersons(persons)})
}

func (s *Server) handleImportRelationsCSV(w http.ResponseWriter, r *http.Request) {
	relations, err := codec.ParseRelationsCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes), s.store.Snapshot().Persons, s.cfg.Generator)
	if err != nil {
		s.importFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Imported: s.store.ImportRelations(relations)})
}

func (s *Server) importFailed(w http.ResponseWriter, err error) {
	s.logger.Warn("import rejected", zap.Error(err))
	if errors.Is(err, codec.ErrMalformed) {
		writeError(w, http.StatusBadRequest, "file format error: "+err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func attach(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func nonNil(rs []*graph.Relation) []*graph.Relation {
	if rs == nil {
		return []*graph.Relation{}
	}
	return rs
}
