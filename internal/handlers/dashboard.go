package handlers

import (
	"net/http"

	"github.com/bbm-admin/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// DashboardHandler serves the aggregate counts behind the dashboard
// summary cards.
type DashboardHandler struct {
	jobService *services.JobService
	log        *logrus.Entry
}

func NewDashboardHandler(jobService *services.JobService) *DashboardHandler {
	return &DashboardHandler{
		jobService: jobService,
		log:        logrus.WithField("component", "dashboard"),
	}
}

// DashboardRouter registers dashboard routes on the given router.
func DashboardRouter(r chi.Router, jobService *services.JobService, requireSession func(http.Handler) http.Handler) {
	handler := NewDashboardHandler(jobService)

	r.With(requireSession).Get("/stats", handler.Stats)
}

// Stats recomputes the four job counts on every call; there is no
// caching, and a failed sub-query fails the whole response.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobService.Stats(r.Context())
	if err != nil {
		h.log.WithError(err).Error("failed to compute stats")
		writeError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
