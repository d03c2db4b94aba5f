package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"spscope/application"
	"spscope/domain/contracts"
	"spscope/logging"
)

// maxItemBodyBytes caps the JSON body accepted when creating an item
const maxItemBodyBytes = 1 << 20

// ContentHandlers serves web and list content through scoped operations.
type ContentHandlers struct {
	service        application.ListContentService
	defaultSiteURL string
	logger         *logging.Logger
}

// NewContentHandlers creates content handlers. defaultSiteURL is used when a request has no site parameter.
func NewContentHandlers(service application.ListContentService, defaultSiteURL string) *ContentHandlers {
	return &ContentHandlers{
		service:        service,
		defaultSiteURL: defaultSiteURL,
		logger:         logging.Default().WithComponent("content_handler"),
	}
}

// GetWeb returns a summary of the root web of the requested site
func (h *ContentHandlers) GetWeb(w http.ResponseWriter, r *http.Request) {
	siteURL, ok := h.siteURL(w, r)
	if !ok {
		return
	}

	web, err := h.service.GetWeb(r.Context(), siteURL)
	if err != nil {
		h.writeError(w, err, "site_url", siteURL)
		return
	}
	writeJSON(w, http.StatusOK, web)
}

// GetItems returns every item of a list. Pass elevated=true to read as the elevated identity.
func (h *ContentHandlers) GetItems(w http.ResponseWriter, r *http.Request) {
	siteURL, ok := h.siteURL(w, r)
	if !ok {
		return
	}
	listName := chi.URLParam(r, "listName")

	elevated := false
	if v := r.URL.Query().Get("elevated"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			http.Error(w, "invalid elevated parameter", http.StatusBadRequest)
			return
		}
		elevated = parsed
	}

	items, err := h.service.GetItems(r.Context(), siteURL, listName, elevated)
	if err != nil {
		h.writeError(w, err, "site_url", siteURL, "list", listName)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"list":  listName,
		"count": len(items),
		"items": items,
	})
}

// AddItem creates an item from a JSON object of field values
func (h *ContentHandlers) AddItem(w http.ResponseWriter, r *http.Request) {
	siteURL, ok := h.siteURL(w, r)
	if !ok {
		return
	}
	listName := chi.URLParam(r, "listName")

	var fields map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxItemBodyBytes)).Decode(&fields); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(fields) == 0 {
		http.Error(w, "item has no fields", http.StatusBadRequest)
		return
	}

	item, err := h.service.AddItem(r.Context(), siteURL, listName, fields)
	if err != nil {
		h.writeError(w, err, "site_url", siteURL, "list", listName)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ContentHandlers) siteURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	siteURL := r.URL.Query().Get("site")
	if siteURL == "" {
		siteURL = h.defaultSiteURL
	}
	if siteURL == "" {
		http.Error(w, "missing site parameter", http.StatusBadRequest)
		return "", false
	}
	return siteURL, true
}

func (h *ContentHandlers) writeError(w http.ResponseWriter, err error, attrs ...any) {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, contracts.ErrUnsafeUpdatesDisabled):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("Scoped operation failed", append(attrs, "error", err.Error())...)
		http.Error(w, "operation failed", http.StatusInternalServerError)
	}
}
