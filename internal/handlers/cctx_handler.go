package handlers

import (
	"net/http"
	"strconv"

	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// CctxHandler serves the generated cross-chain transactions read-only.
type CctxHandler struct {
	repo   repository.CctxRepository
	logger *logrus.Logger
}

func NewCctxHandler(repo repository.CctxRepository, logger *logrus.Logger) *CctxHandler {
	return &CctxHandler{repo: repo, logger: logger}
}

// ListCctxHandler GET /api/v1/cctx/:bridge?page=1&limit=50
func (h *CctxHandler) ListCctxHandler(c *gin.Context) {
	bridge, ok := parseBridge(c)
	if !ok {
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		respondWithError(c, http.StatusBadRequest, "invalid_page", "page must be a positive integer", nil)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize)))
	if err != nil || limit < 1 {
		respondWithError(c, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer", nil)
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	rows, total, err := h.repo.List(c.Request.Context(), bridge, page, limit)
	if err != nil {
		h.logger.WithError(err).WithField("bridge", bridge).Error("Failed to list cross-chain transactions")
		respondWithError(c, http.StatusInternalServerError, "storage_error", "failed to list cross-chain transactions", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bridge": bridge,
		"data":   rows,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetCctxHandler GET /api/v1/cctx/:bridge/:intentId
func (h *CctxHandler) GetCctxHandler(c *gin.Context) {
	bridge, ok := parseBridge(c)
	if !ok {
		return
	}
	intentID := c.Param("intentId")

	row, found, err := h.repo.Get(c.Request.Context(), bridge, intentID)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{"bridge": bridge, "intent_id": intentID}).Error("Failed to load cross-chain transaction")
		respondWithError(c, http.StatusInternalServerError, "storage_error", "failed to load cross-chain transaction", nil)
		return
	}
	if !found {
		respondWithError(c, http.StatusNotFound, "not_found", "cross-chain transaction not found", gin.H{"intent_id": intentID})
		return
	}
	c.JSON(http.StatusOK, row)
}

func parseBridge(c *gin.Context) (models.Bridge, bool) {
	switch b := models.Bridge(c.Param("bridge")); b {
	case models.BridgeDeBridge, models.BridgeMayan:
		return b, true
	default:
		respondWithError(c, http.StatusNotFound, "unknown_bridge", "unknown bridge", gin.H{"bridge": c.Param("bridge")})
		return "", false
	}
}
