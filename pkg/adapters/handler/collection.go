package handler

import (
	"net/http"
	"strconv"

	"github.com/wadjakorntonsri/editor-cms/pkg/core/domain"
	"github.com/wadjakorntonsri/editor-cms/pkg/ports"
)

type ColumnHandler struct {
	service  ports.ColumnService
	composer ports.LinkComposer
}

func NewColumnHandler(service ports.ColumnService, composer ports.LinkComposer) *ColumnHandler {
	return &ColumnHandler{service: service, composer: composer}
}

type addLinksRequest struct {
	Links []domain.LinkRecord `json:"links"`
}

func (h *ColumnHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 25
	}
	sort := r.URL.Query().Get("sort")

	columns, err := h.service.ListColumns(r.Context(), limit, sort)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  columns,
		"limit": limit,
	})
}

func (h *ColumnHandler) CreateColumn(w http.ResponseWriter, r *http.Request) {
	var form domain.ColumnForm
	if !decodeAndValidate(w, r, &form) {
		return
	}

	column, err := h.service.CreateColumn(r.Context(), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, column)
}

func (h *ColumnHandler) GetColumn(w http.ResponseWriter, r *http.Request) {
	column, err := h.service.GetColumn(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, column)
}

// UpdateColumn saves the full edit form.
func (h *ColumnHandler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	var form domain.ColumnForm
	if !decodeAndValidate(w, r, &form) {
		return
	}

	column, err := h.service.UpdateColumn(r.Context(), r.PathValue("id"), form)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, column)
}

func (h *ColumnHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	column, err := h.service.GetColumn(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	links := column.Links
	if links == nil {
		links = []domain.LinkRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": links})
}

// AddLinks appends a batch in one request, bypassing the composer.
func (h *ColumnHandler) AddLinks(w http.ResponseWriter, r *http.Request) {
	var req addLinksRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.service.AddLinks(r.Context(), r.PathValue("id"), req.Links)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- Composer ---

func (h *ColumnHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending := h.composer.Pending(userFromContext(r.Context()), r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": pending})
}

func (h *ColumnHandler) AddPending(w http.ResponseWriter, r *http.Request) {
	var l domain.LinkRecord
	if !decodeAndValidate(w, r, &l) {
		return
	}
	index := h.composer.Add(userFromContext(r.Context()), r.PathValue("id"), l)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"index": index})
}

func (h *ColumnHandler) UpdatePending(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	var l domain.LinkRecord
	if !decodeAndValidate(w, r, &l) {
		return
	}
	if err := h.composer.Update(userFromContext(r.Context()), r.PathValue("id"), index, l); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ColumnHandler) RemovePending(w http.ResponseWriter, r *http.Request) {
	index, ok := pathIndex(w, r)
	if !ok {
		return
	}
	if err := h.composer.Remove(userFromContext(r.Context()), r.PathValue("id"), index); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitPending sends the pending batch through the append protocol.
func (h *ColumnHandler) SubmitPending(w http.ResponseWriter, r *http.Request) {
	res, err := h.composer.Submit(r.Context(), userFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ColumnHandler) SessionLog(w http.ResponseWriter, r *http.Request) {
	entries := h.composer.SessionLog(userFromContext(r.Context()), r.PathValue("id"))
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": entries})
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		http.Error(w, "Invalid index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}
