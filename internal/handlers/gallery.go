package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bbm-admin/apiserver/internal/services"
	"github.com/bbm-admin/apiserver/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const (
	maxUploadBytes     = 32 << 20
	maxMultipartMemory = 32 << 20
	formFieldFile      = "file"
	formFieldAlbumID   = "albumId"
)

// GalleryHandler provides HTTP handlers for the image gallery.
type GalleryHandler struct {
	imageService *services.ImageService
	log          *logrus.Entry
}

// NewGalleryHandler constructs a handler with the provided service.
func NewGalleryHandler(imageService *services.ImageService) *GalleryHandler {
	return &GalleryHandler{
		imageService: imageService,
		log:          logrus.WithField("component", "gallery"),
	}
}

// GalleryRouter registers gallery routes on the given router. Listing
// is public; deletes and uploads require a session.
func GalleryRouter(r chi.Router, imageService *services.ImageService, requireSession func(http.Handler) http.Handler) {
	handler := NewGalleryHandler(imageService)

	r.Get("/", handler.ListImages)
	r.With(requireSession).Delete("/", handler.DeleteImages)
	r.With(requireSession).Post("/upload", handler.UploadImage)
}

func (h *GalleryHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	albumID := strings.TrimSpace(r.URL.Query().Get("albumId"))

	images, err := h.imageService.List(r.Context(), albumID, parseLimit(r))
	if err != nil {
		h.log.WithError(err).Error("failed to list images")
		writeError(w, http.StatusInternalServerError, "Failed to fetch gallery")
		return
	}
	writeJSON(w, http.StatusOK, images)
}

// DeleteImagesRequest accepts a single id or an array of ids.
type DeleteImagesRequest struct {
	ID  string   `json:"id"`
	IDs []string `json:"ids"`
}

// DeleteImagesResponse reports how many rows were actually removed.
type DeleteImagesResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}

func (h *GalleryHandler) DeleteImages(w http.ResponseWriter, r *http.Request) {
	var req DeleteImagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ids := req.IDs
	if len(ids) == 0 && strings.TrimSpace(req.ID) != "" {
		ids = []string{req.ID}
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "Provide ids array or id for image(s) to delete")
		return
	}

	deleted, err := h.imageService.Delete(r.Context(), ids)
	if err != nil {
		h.log.WithError(err).Error("failed to delete images")
		writeError(w, http.StatusInternalServerError, "Failed to delete image(s)")
		return
	}
	writeJSON(w, http.StatusOK, DeleteImagesResponse{Success: true, Deleted: deleted})
}

func (h *GalleryHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := r.MultipartForm.File[formFieldFile]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	if len(files) > 1 {
		writeError(w, http.StatusBadRequest, "Only one file per upload")
		return
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}
	data, err := readFileLimited(file, maxUploadBytes)
	_ = file.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	input := services.UploadInput{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	}
	if albumID := strings.TrimSpace(r.FormValue(formFieldAlbumID)); albumID != "" {
		input.AlbumID = &albumID
	}

	created, err := h.imageService.Upload(r.Context(), input)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "Object storage is not configured")
			return
		}
		h.log.WithError(err).Error("failed to upload image")
		writeError(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
