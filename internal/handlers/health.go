package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/bbm-admin/apiserver/config"
	"github.com/bbm-admin/apiserver/internal/db"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// HealthHandler reports database connectivity diagnostics.
type HealthHandler struct {
	db  *sql.DB
	cfg config.Config
	log *logrus.Entry
}

func NewHealthHandler(database *sql.DB, cfg config.Config) *HealthHandler {
	return &HealthHandler{
		db:  database,
		cfg: cfg,
		log: logrus.WithField("component", "health"),
	}
}

// HealthRouter registers health routes on the given router.
func HealthRouter(r chi.Router, database *sql.DB, cfg config.Config) {
	handler := NewHealthHandler(database, cfg)

	r.Get("/database", handler.Database)
}

type healthDetails struct {
	ResponseTime string `json:"responseTime,omitempty"`
	Host         string `json:"host"`
	HasSSL       bool   `json:"hasSSL"`
	IsPooler     bool   `json:"isPooler"`
	Environment  string `json:"environment"`
}

type healthResponse struct {
	Success     bool          `json:"success"`
	Message     string        `json:"message"`
	ErrorType   string        `json:"errorType,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
	Details     healthDetails `json:"details"`
}

// Database probes the connection with a trivial query and reports
// timing plus the resolved connection settings. Failures are
// classified with remediation suggestions; credentials never appear
// in the response.
func (h *HealthHandler) Database(w http.ResponseWriter, r *http.Request) {
	details := healthDetails{
		Host:        fmt.Sprintf("%s:%d", h.cfg.Database.Host, h.cfg.Database.Port),
		HasSSL:      h.cfg.Database.UseSSL,
		IsPooler:    h.cfg.Database.UsePooler,
		Environment: h.cfg.Env,
	}

	elapsed, err := db.Ping(r.Context(), h.db)
	if err != nil {
		h.log.WithError(err).Error("database health check failed")
		errorType, suggestions := classifyDBError(err)
		writeJSON(w, http.StatusInternalServerError, healthResponse{
			Success:     false,
			Message:     err.Error(),
			ErrorType:   errorType,
			Suggestions: suggestions,
			Details:     details,
		})
		return
	}

	details.ResponseTime = fmt.Sprintf("%dms", elapsed.Milliseconds())
	writeJSON(w, http.StatusOK, healthResponse{
		Success: true,
		Message: "Database connection successful",
		Details: details,
	})
}

func classifyDBError(err error) (string, []string) {
	message := strings.ToLower(err.Error())

	switch {
	case strings.Contains(message, "connection refused"),
		strings.Contains(message, "no such host"),
		strings.Contains(message, "timeout"):
		return "Network Error", []string{
			"Check DB_HOST and DB_PORT",
			"Verify the database host is accessible",
			"Check firewall/network settings",
		}
	case strings.Contains(message, "certificate"),
		strings.Contains(message, "ssl"):
		return "SSL Error", []string{
			"Set DB_USE_SSL=true for managed databases",
			"Enable DB_LIBPQ_COMPAT=true when connecting through a pooler",
		}
	case strings.Contains(message, "password authentication failed"),
		strings.Contains(message, "password"):
		return "Authentication Error", []string{
			"Verify DB_USER and DB_PASSWORD",
			"Check that the database user exists",
		}
	case strings.Contains(message, "database") && strings.Contains(message, "does not exist"):
		return "Configuration Error", []string{
			"Verify DB_NAME",
			"Run migrations to create the schema",
		}
	default:
		return "Connection Error", []string{
			"Check the database configuration environment variables",
		}
	}
}
