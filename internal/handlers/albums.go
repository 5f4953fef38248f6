package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bbm-admin/apiserver/internal/services"
	"github.com/bbm-admin/apiserver/internal/store"
	"github.com/bbm-admin/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// AlbumHandler provides HTTP handlers for albums.
type AlbumHandler struct {
	albumService *services.AlbumService
	log          *logrus.Entry
}

// NewAlbumHandler constructs a handler with the provided service.
func NewAlbumHandler(albumService *services.AlbumService) *AlbumHandler {
	return &AlbumHandler{
		albumService: albumService,
		log:          logrus.WithField("component", "albums"),
	}
}

// AlbumRouter registers album routes on the given router. Listing is
// public; mutations require a session.
func AlbumRouter(r chi.Router, albumService *services.AlbumService, requireSession func(http.Handler) http.Handler) {
	handler := NewAlbumHandler(albumService)

	r.Get("/", handler.ListAlbums)
	r.With(requireSession).Post("/", handler.CreateAlbum)
	r.Route("/{albumID}", func(r chi.Router) {
		r.With(requireSession).Patch("/", handler.UpdateAlbum)
		r.With(requireSession).Delete("/", handler.DeleteAlbum)
	})
}

type CreateAlbumRequest struct {
	Name        string  `json:"name" validate:"required,min=1"`
	Description *string `json:"description"`
	CoverURL    *string `json:"coverUrl" validate:"omitempty,url"`
}

func (h *AlbumHandler) ListAlbums(w http.ResponseWriter, r *http.Request) {
	summary := r.URL.Query().Get("summary") == "true"

	albums, err := h.albumService.List(r.Context(), parseLimit(r), summary)
	if err != nil {
		h.log.WithError(err).Error("failed to list albums")
		writeError(w, http.StatusInternalServerError, "Failed to fetch albums")
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

func (h *AlbumHandler) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req CreateAlbumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	created, err := h.albumService.Create(r.Context(), types.Album{
		Name:        req.Name,
		Description: req.Description,
		CoverURL:    req.CoverURL,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to create album")
		writeError(w, http.StatusInternalServerError, "Failed to create album")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *AlbumHandler) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "albumID")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "Invalid album ID")
		return
	}

	patch, fieldErrors, err := parseAlbumPatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:   "Invalid data",
			Details: fieldErrors,
		})
		return
	}

	updated, err := h.albumService.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Album not found")
			return
		}
		h.log.WithError(err).Error("failed to update album")
		writeError(w, http.StatusInternalServerError, "Failed to update album")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AlbumHandler) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "albumID")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "Invalid album ID")
		return
	}

	if err := h.albumService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Album not found")
			return
		}
		h.log.WithError(err).Error("failed to delete album")
		writeError(w, http.StatusInternalServerError, "Failed to delete album")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// parseAlbumPatch decodes a partial album update. Raw JSON is
// inspected so that an explicit null (clear the field) can be told
// apart from an absent key.
func parseAlbumPatch(r *http.Request) (types.AlbumUpdate, []FieldError, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return types.AlbumUpdate{}, nil, err
	}

	var patch types.AlbumUpdate
	var fieldErrors []FieldError

	if value, ok := raw["name"]; ok {
		var name string
		if err := json.Unmarshal(value, &name); err != nil || strings.TrimSpace(name) == "" {
			fieldErrors = append(fieldErrors, FieldError{Field: "name", Message: "must be a non-empty string"})
		} else {
			patch.Name = &name
		}
	}

	if value, ok := raw["description"]; ok {
		if string(value) == "null" {
			patch.ClearDescription = true
		} else {
			var description string
			if err := json.Unmarshal(value, &description); err != nil {
				fieldErrors = append(fieldErrors, FieldError{Field: "description", Message: "must be a string or null"})
			} else {
				patch.Description = &description
			}
		}
	}

	if value, ok := raw["coverUrl"]; ok {
		if string(value) == "null" {
			patch.ClearCover = true
		} else {
			var coverURL string
			if err := json.Unmarshal(value, &coverURL); err != nil || validate.Var(coverURL, "url") != nil {
				fieldErrors = append(fieldErrors, FieldError{Field: "coverUrl", Message: "must be a valid URL or null"})
			} else {
				patch.CoverURL = &coverURL
			}
		}
	}

	return patch, fieldErrors, nil
}
