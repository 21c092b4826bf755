package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"dinoplay/logging"
	"dinoplay/models"
	"dinoplay/services"
	"dinoplay/utils"
)

// CatalogHandler serves the listing page
type CatalogHandler struct {
	library *services.LibraryService
	log     zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(library *services.LibraryService) *CatalogHandler {
	return &CatalogHandler{
		library: library,
		log:     logging.WithComponent("catalog_handler"),
	}
}

type loadMoreResponse struct {
	Fetched bool `json:"fetched"`
	models.LibraryState
}

// GetVideos handles GET /api/videos
func (h *CatalogHandler) GetVideos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.library.GetState())
}

// GetCategories handles GET /api/categories
func (h *CatalogHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.library.Categories())
}

// Search handles POST /api/videos/search
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	var request models.SearchRequest
	if err := utils.ReadJSON(r.Body, &request); err != nil {
		h.log.Warn().Err(err).Msg("Search: Error decoding JSON")
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if request.Query == "" {
		writeError(w, http.StatusBadRequest, "Query is required")
		return
	}
	if err := h.library.Search(r.Context(), request.Query); err != nil {
		h.fail(w, r, "Search", err)
		return
	}
	writeJSON(w, http.StatusOK, h.library.GetState())
}

// FilterByCategory handles POST /api/videos/category
func (h *CatalogHandler) FilterByCategory(w http.ResponseWriter, r *http.Request) {
	var request models.CategoryRequest
	if err := utils.ReadJSON(r.Body, &request); err != nil {
		h.log.Warn().Err(err).Msg("FilterByCategory: Error decoding JSON")
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if request.Category == "" {
		writeError(w, http.StatusBadRequest, "Category is required")
		return
	}
	if err := h.library.FilterByCategory(r.Context(), request.Category); err != nil {
		h.fail(w, r, "FilterByCategory", err)
		return
	}
	writeJSON(w, http.StatusOK, h.library.GetState())
}

// LoadMore handles POST /api/videos/more
func (h *CatalogHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	fetched, err := h.library.LoadMore(r.Context())
	if err != nil {
		h.fail(w, r, "LoadMore", err)
		return
	}
	writeJSON(w, http.StatusOK, loadMoreResponse{Fetched: fetched, LibraryState: h.library.GetState()})
}

func (h *CatalogHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	log := logging.WithContext(r.Context(), h.log)
	log.Error().Err(err).Msgf("%s: Failed to fetch videos", op)
	writeError(w, statusFor(err), "Failed to fetch videos")
}
