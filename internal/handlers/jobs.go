package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bbm-admin/apiserver/internal/services"
	"github.com/bbm-admin/apiserver/internal/store"
	"github.com/bbm-admin/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const defaultListLimit = 100

// JobHandler provides HTTP handlers for job postings.
type JobHandler struct {
	jobService *services.JobService
	log        *logrus.Entry
}

// NewJobHandler constructs a handler with the provided service.
func NewJobHandler(jobService *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobService,
		log:        logrus.WithField("component", "jobs"),
	}
}

// JobRouter registers job routes on the given router. Listing is
// public (the careers site reads it anonymously); every mutation and
// the by-id read require a session.
func JobRouter(r chi.Router, jobService *services.JobService, requireSession func(http.Handler) http.Handler) {
	handler := NewJobHandler(jobService)

	r.Get("/", handler.ListJobs)
	r.With(requireSession).Post("/", handler.CreateJob)
	r.Route("/{jobID}", func(r chi.Router) {
		r.With(requireSession).Get("/", handler.GetJob)
		r.With(requireSession).Patch("/", handler.UpdateJob)
		r.With(requireSession).Delete("/", handler.DeleteJob)
	})
}

// CreateJobRequest mirrors the job creation schema. Salary accepts a
// number or a numeric string; jobStatus defaults to published.
type CreateJobRequest struct {
	Title          string        `json:"title" validate:"required,min=3"`
	JobDescription string        `json:"jobDescription" validate:"required"`
	JobType        string        `json:"jobType" validate:"required,oneof=Permanent Part-time Internship"`
	Location       string        `json:"location" validate:"required"`
	Salary         *types.Salary `json:"salary" validate:"required,gte=0"`
	JobTime        string        `json:"jobTime" validate:"required"`
	JobStatus      string        `json:"jobStatus" validate:"omitempty,oneof=published draft closed"`
}

// UpdateJobRequest is any subset of the creation fields.
type UpdateJobRequest struct {
	Title          *string       `json:"title" validate:"omitempty,min=3"`
	JobDescription *string       `json:"jobDescription" validate:"omitempty,min=1"`
	JobType        *string       `json:"jobType" validate:"omitempty,oneof=Permanent Part-time Internship"`
	Location       *string       `json:"location" validate:"omitempty,min=1"`
	Salary         *types.Salary `json:"salary" validate:"omitempty,gte=0"`
	JobTime        *string       `json:"jobTime" validate:"omitempty,min=1"`
	JobStatus      *string       `json:"jobStatus" validate:"omitempty,oneof=published draft closed"`
}

func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobService.List(r.Context(), parseLimit(r))
	if err != nil {
		h.log.WithError(err).Error("failed to list jobs")
		writeError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	job, err := h.jobService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.WithError(err).Error("failed to fetch job")
		writeError(w, http.StatusInternalServerError, "Failed to fetch job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	created, err := h.jobService.Create(r.Context(), types.Job{
		Title:          req.Title,
		JobDescription: req.JobDescription,
		JobType:        req.JobType,
		Location:       req.Location,
		Salary:         *req.Salary,
		JobTime:        req.JobTime,
		JobStatus:      req.JobStatus,
	})
	if err != nil {
		h.log.WithError(err).Error("failed to create job")
		writeError(w, http.StatusInternalServerError, "Failed to create job")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	var req UpdateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeValidationError(w, err)
		return
	}

	updated, err := h.jobService.Update(r.Context(), id, types.JobUpdate{
		Title:          req.Title,
		JobDescription: req.JobDescription,
		JobType:        req.JobType,
		Location:       req.Location,
		Salary:         req.Salary,
		JobTime:        req.JobTime,
		JobStatus:      req.JobStatus,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.WithError(err).Error("failed to update job")
		writeError(w, http.StatusInternalServerError, "Failed to update job")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	id, err := parseJobID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID")
		return
	}

	if err := h.jobService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		h.log.WithError(err).Error("failed to delete job")
		writeError(w, http.StatusInternalServerError, "Failed to delete job")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func parseJobID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "jobID")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, errors.New("invalid job id")
	}
	return id, nil
}

// parseLimit reads the optional limit query parameter. Absent means no
// limit; an unparseable value falls back to the default cap.
func parseLimit(r *http.Request) int {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return defaultListLimit
	}
	return limit
}
