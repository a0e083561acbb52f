package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/core"
	"fintrack/internal/form"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

type categoriesResponse struct {
	Categories []string `json:"categories"`
	Default    string   `json:"default"`
	Months     []string `json:"months"`
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	NewResponse().JSON(categoriesResponse{
		Categories: names,
		Default:    string(core.DefaultCategory),
		Months:     core.Months(),
	}).Write(w)
}

type entriesResponse struct {
	Entries  []entryView `json:"entries"`
	Count    int         `json:"count"`
	Total    int         `json:"total"`
	Filter   filterView  `json:"filter"`
	Revision uint64      `json:"revision"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilterQuery(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	entries, rev := s.store.Snapshot()
	filtered := f.Apply(entries)
	NewResponse().JSON(entriesResponse{
		Entries:  newEntryViews(filtered),
		Count:    len(filtered),
		Total:    len(entries),
		Filter:   newFilterView(f),
		Revision: rev,
	}).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			ErrorResponse(http.StatusRequestEntityTooLarge, "Request body too large").Write(w)
			return
		}
		BadRequestError("Invalid request format").Write(w)
		return
	}

	draft, err := DraftFromBody(parser)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	entry, err := draft.Submit(s.now(), s.newID)
	if errors.Is(err, form.ErrIncomplete) {
		NewResponse().Status(http.StatusNoContent).Write(w)
		return
	}
	if err != nil {
		UnprocessableEntityError("Invalid entry: " + err.Error()).Write(w)
		return
	}

	if err := s.store.Add(ctx, entry); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			ConflictError("Entry already exists").Write(w)
			return
		}
		logger.ErrorContext(ctx, "Entry save failed",
			log.FieldEntryID, entry.ID,
			log.FieldOperation, log.OpCreate,
			log.FieldError, err.Error())
		InternalServerError("Could not save the entry").Write(w)
		return
	}

	NewResponse().
		Status(http.StatusCreated).
		TriggerEntriesChanged(s.store.Revision()).
		TriggerFormReset().
		TriggerSuccessNotification("Saved " + entry.Description + " " + entry.Amount.Format()).
		JSON(newEntryView(entry)).
		Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	removed, err := s.store.Remove(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		NotFoundError("Entry not found").Write(w)
		return
	}
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Entry delete failed",
			log.FieldEntryID, id,
			log.FieldOperation, log.OpDelete,
			log.FieldError, err.Error())
		InternalServerError("Could not delete the entry").Write(w)
		return
	}

	NewResponse().
		Status(http.StatusNoContent).
		TriggerEntriesChanged(s.store.Revision()).
		TriggerSuccessNotification("Deleted " + removed.Description).
		Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(newTotalsView(s.summary())).Write(w)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(newChartView(s.chart())).Write(w)
}
