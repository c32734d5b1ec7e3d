package catalog

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ravenshaw3/watch-media-server/internal/httputil"
)

type Handler struct {
	repo        *Repository
	libraryPath func() string
}

// NewHandler wires catalog read endpoints. libraryPath is resolved per
// request because settings can change it at runtime.
func NewHandler(repo *Repository, libraryPath func() string) *Handler {
	return &Handler{repo: repo, libraryPath: libraryPath}
}

func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Get("/{id}", h.getByID)
	return r
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	mediaType := MediaType(r.URL.Query().Get("type"))
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	items, err := h.repo.ListPage(mediaType, limit, offset)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to list media")
		return
	}
	if items == nil {
		items = []*MediaItem{}
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_ID", "invalid media id")
		return
	}

	item, err := h.repo.GetByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusNotFound, "NOT_FOUND", "media item not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, item)
}

// LibraryInfo serves the dashboard summary.
func (h *Handler) LibraryInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.repo.Info()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "failed to load library info")
		return
	}
	info.LibraryPath = h.libraryPath()
	httputil.WriteJSON(w, http.StatusOK, info)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
