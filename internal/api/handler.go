package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/semclone/pypistats-tracker/internal/errors"
	"github.com/semclone/pypistats-tracker/internal/storage"
)

// Handler handles API requests
type Handler struct {
	snapshots storage.SnapshotStore
	history   storage.History // may be nil when run history is disabled
}

// NewHandler creates a new API handler
func NewHandler(snapshots storage.SnapshotStore, history storage.History) *Handler {
	return &Handler{
		snapshots: snapshots,
		history:   history,
	}
}

// GetSnapshot returns the full stats snapshot
// GET /api/v1/snapshot
func (h *Handler) GetSnapshot(c *gin.Context) {
	snapshot, err := h.snapshots.Load(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewNotFoundError("snapshot"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": snapshot,
	})
}

// ListPackages returns the tracked package names
// GET /api/v1/packages
func (h *Handler) ListPackages(c *gin.Context) {
	snapshot, err := h.snapshots.Load(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewNotFoundError("snapshot"))
		return
	}

	names := make([]string, 0, len(snapshot.Packages))
	for name := range snapshot.Packages {
		names = append(names, name)
	}
	sort.Strings(names)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"last_updated": snapshot.LastUpdated,
			"packages":     names,
		},
	})
}

// GetPackage returns the full stats bundle for one package
// GET /api/v1/packages/:name
func (h *Handler) GetPackage(c *gin.Context) {
	name := c.Param("name")

	snapshot, err := h.snapshots.Load(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewNotFoundError("snapshot"))
		return
	}

	stats, ok := snapshot.Packages[name]
	if !ok {
		respondError(c, apperrors.NewNotFoundError("package "+name))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stats,
	})
}

// GetPackageMetrics returns only the reconciled metrics for one package
// GET /api/v1/packages/:name/metrics
func (h *Handler) GetPackageMetrics(c *gin.Context) {
	name := c.Param("name")

	snapshot, err := h.snapshots.Load(c.Request.Context())
	if err != nil {
		respondError(c, apperrors.NewNotFoundError("snapshot"))
		return
	}

	stats, ok := snapshot.Packages[name]
	if !ok {
		respondError(c, apperrors.NewNotFoundError("package "+name))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": stats.Recent,
	})
}

// ListRuns returns recent fetch runs
// GET /api/v1/runs
func (h *Handler) ListRuns(c *gin.Context) {
	if h.history == nil {
		respondError(c, apperrors.NewBadRequestError("run history is disabled"))
		return
	}

	limit := parseLimit(c, 20)
	runs, err := h.history.ListRuns(c.Request.Context(), limit)
	if err != nil {
		respondError(c, apperrors.NewInternalError("listing runs", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": runs,
	})
}

// HealthCheck returns the health status of the API
// GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// parseLimit parses a limit query parameter
func parseLimit(c *gin.Context, defaultValue int) int {
	value, err := strconv.Atoi(c.DefaultQuery("limit", ""))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

// respondError sends an error response
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		status := http.StatusInternalServerError
		switch appErr.Code {
		case apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case apperrors.ErrCodeBadRequest:
			status = http.StatusBadRequest
		case apperrors.ErrCodeRateLimited:
			status = http.StatusTooManyRequests
		case apperrors.ErrCodeUnavailable:
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    "INTERNAL_ERROR",
			"message": err.Error(),
		},
	})
}
