package risk

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/pagination"
)

// Handler provides HTTP endpoints for the outcome audit trail.
type Handler struct {
	store Store
}

// NewHandler creates a new outcome handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterAdminRoutes sets up outcome routes. The caller applies the auth gate.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/outcomes", h.ListOutcomes)
	r.GET("/outcomes/stats", h.GetStats)
}

// ListOutcomes handles GET /v1/admin/outcomes
func (h *Handler) ListOutcomes(c *gin.Context) {
	cursor, err := pagination.Decode(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid cursor"})
		return
	}
	limit := pagination.ParseLimit(c.Query("limit"))

	outcomes, err := h.store.ListRecent(c.Request.Context(), c.Query("category"), limit+1, cursor)
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to list outcomes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to list outcomes"})
		return
	}

	page, next, more := pagination.ComputePage(outcomes, limit, func(o *Outcome) (time.Time, string) {
		return o.CompletedAt, o.ID
	})
	if page == nil {
		page = []*Outcome{}
	}
	c.JSON(http.StatusOK, gin.H{
		"outcomes":   page,
		"count":      len(page),
		"nextCursor": next,
		"hasMore":    more,
	})
}

// GetStats handles GET /v1/admin/outcomes/stats?window=24h
func (h *Handler) GetStats(c *gin.Context) {
	window := 7 * 24 * time.Hour
	if raw := c.Query("window"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "window must be a positive duration"})
			return
		}
		window = d
	}

	stats, err := h.store.Stats(c.Request.Context(), time.Now().Add(-window))
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to aggregate outcomes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to aggregate outcomes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "window": window.String()})
}
