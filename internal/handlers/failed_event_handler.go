package handlers

import (
	"net/http"

	"bridge-indexer/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// FailedEventHandler exposes the per-run failure trail to operators
type FailedEventHandler struct {
	repo   repository.FailedEventRepository
	logger *logrus.Logger
}

func NewFailedEventHandler(repo repository.FailedEventRepository, logger *logrus.Logger) *FailedEventHandler {
	return &FailedEventHandler{repo: repo, logger: logger}
}

// ListByRunHandler GET /api/v1/admin/runs/:runId/failed-events
func (h *FailedEventHandler) ListByRunHandler(c *gin.Context) {
	runID := c.Param("runId")
	if _, err := uuid.Parse(runID); err != nil {
		respondWithError(c, http.StatusBadRequest, "invalid_run_id", "run id must be a UUID", nil)
		return
	}

	failed, err := h.repo.FindByRun(c.Request.Context(), runID)
	if err != nil {
		h.logger.WithError(err).WithField("run_id", runID).Error("Failed to load failed events")
		respondWithError(c, http.StatusInternalServerError, "storage_error", "failed to load failed events", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id": runID,
		"count":  len(failed),
		"data":   failed,
	})
}
