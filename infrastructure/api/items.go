package api

import (
	"net/http"
	"sharecircle/auth"
	"sharecircle/domain"
	"sharecircle/domain/geo"
	"sharecircle/errors"
	"sharecircle/storage"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/samber/lo"
)

// CreateItem expects a multipart form with name, description, category,
// availableUntil, location (GeoJSON point as a string) and up to five images.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid token. Please log in again.")
		return
	}
	if !parseMultipart(w, r, maxItemRequestBytes, "Invalid multipart form") {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	input := domain.NewItem{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: r.FormValue("description"),
		Category:    r.FormValue("category"),
		Owner:       owner,
	}

	if raw := r.FormValue("location"); raw != "" {
		var location Location
		if err := json.Unmarshal([]byte(raw), &location); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid location format")
			return
		}
		input.Location = lo.ToPtr(location.Point())
	}

	if raw := r.FormValue("availableUntil"); raw != "" {
		availableUntil, err := parseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid availableUntil format")
			return
		}
		input.AvailableUntil = &availableUntil
	}

	item, err := h.items.Create(r.Context(), input, r.MultipartForm.File["images"])
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": "Item created successfully",
			"item":    toItemResponse(item),
		})
	case errors.Is(err, errors.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, itemErrorMessage(err))
	case errors.Is(err, errors.ErrUnsupportedMedia):
		writeError(w, http.StatusBadRequest, storage.ItemImageRule.RejectMessage)
	case errors.Is(err, errors.ErrTooManyFiles):
		writeError(w, http.StatusBadRequest, "Too many files")
	case errors.Is(err, errors.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
	default:
		h.log.Error("Item creation failed", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "Error creating item")
	}
}

// SearchItems answers GET /items/search?query=...
func (h *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	items, err := h.queries.SearchByText(r.Context(), query)
	if err != nil {
		status := httpStatus(err)
		if status == http.StatusInternalServerError {
			writeError(w, status, "Error searching items")
			return
		}
		writeError(w, status, "Search query is required")
		return
	}
	writeJSON(w, http.StatusOK, toItemResponses(items))
}

// ItemsNearby answers GET /items?longitude=..&latitude=..&radius=.. (radius in km).
func (h *Handler) ItemsNearby(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	rawLongitude, rawLatitude, rawRadius := values.Get("longitude"), values.Get("latitude"), values.Get("radius")
	if rawLongitude == "" || rawLatitude == "" || rawRadius == "" {
		writeError(w, http.StatusBadRequest, "Longitude, latitude, and radius are required")
		return
	}

	longitude, errLon := strconv.ParseFloat(rawLongitude, 64)
	latitude, errLat := strconv.ParseFloat(rawLatitude, 64)
	radius, errRadius := strconv.ParseFloat(rawRadius, 64)
	if errLon != nil || errLat != nil || errRadius != nil {
		writeError(w, http.StatusBadRequest, "Longitude, latitude, and radius must be numbers")
		return
	}

	items, err := h.queries.FindWithinRadius(r.Context(), geo.NewPoint(longitude, latitude), radius)
	if err != nil {
		status := httpStatus(err)
		if status == http.StatusInternalServerError {
			h.log.Error("Radius query failed", "error", err)
			writeError(w, status, "Error fetching items")
			return
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toItemResponses(items))
}

// RecentItems answers GET /items/recent?limit=10&skip=0.
func (h *Handler) RecentItems(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))

	items, err := h.items.Recent(r.Context(), limit, skip)
	if err != nil {
		h.log.Error("Recent items failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch recent items")
		return
	}
	writeJSON(w, http.StatusOK, toItemResponses(items))
}

func (h *Handler) SeedItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.Seed(r.Context())
	if err != nil {
		h.log.Error("Seeding failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to seed items")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Seed items created successfully",
		"items":   toItemResponses(items),
	})
}

func (h *Handler) ItemsByUser(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.ByOwner(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		h.log.Error("Items by user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch items by user")
		return
	}
	writeJSON(w, http.StatusOK, toItemResponses(items))
}

func itemErrorMessage(err error) string {
	if errors.Is(err, errors.ErrInvalidLocation) {
		return "Invalid location format"
	}
	return "Name and location are required"
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
