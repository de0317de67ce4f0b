package flows

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/metrics"
	"github.com/mbd888/scamcheck/internal/validation"
)

// UpdatePublisher is told about every saved or deleted flow.
type UpdatePublisher interface {
	PublishFlowUpdate(category string, version int, deleted bool)
}

// Handler provides HTTP endpoints for reading and editing flows.
type Handler struct {
	store     Store
	publisher UpdatePublisher
}

// NewHandler creates a new flows handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// WithPublisher announces editor changes to p.
func (h *Handler) WithPublisher(p UpdatePublisher) *Handler {
	h.publisher = p
	return h
}

// RegisterRoutes sets up the public read-only routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/categories", h.ListCategories)
	r.GET("/flows/:category", h.GetFlow)
}

// RegisterViewerRoutes sets up the read-only admin routes. The caller
// applies the auth gate.
func (h *Handler) RegisterViewerRoutes(r *gin.RouterGroup) {
	r.GET("/flows", h.ListFlows)
}

// RegisterEditorRoutes sets up the routes that change or check flows.
// The caller applies the auth gate.
func (h *Handler) RegisterEditorRoutes(r *gin.RouterGroup) {
	r.PUT("/flows/:category", h.SaveFlow)
	r.DELETE("/flows/:category", h.DeleteFlow)
	r.POST("/flows/validate", h.ValidateFlow)
}

// ListCategories handles GET /v1/categories
func (h *Handler) ListCategories(c *gin.Context) {
	entries := Menu(c.Request.Context(), h.store)
	c.JSON(http.StatusOK, gin.H{"categories": entries, "count": len(entries)})
}

// GetFlow handles GET /v1/flows/:category
func (h *Handler) GetFlow(c *gin.Context) {
	f, err := h.store.GetFlow(c.Request.Context(), c.Param("category"))
	if err != nil {
		if errors.Is(err, ErrFlowNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "flow not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to load flow"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"flow": f})
}

// ListFlows handles GET /v1/admin/flows
func (h *Handler) ListFlows(c *gin.Context) {
	flows, err := h.store.ListFlows(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": err.Error()})
		return
	}
	if flows == nil {
		flows = []*Flow{}
	}
	c.JSON(http.StatusOK, gin.H{"flows": flows, "count": len(flows)})
}

// SaveFlow handles PUT /v1/admin/flows/:category
func (h *Handler) SaveFlow(c *gin.Context) {
	var f Flow
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid flow body"})
		return
	}
	category := c.Param("category")
	if f.Category == "" {
		f.Category = category
	}
	if f.Category != category {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "category in body does not match path"})
		return
	}
	sanitizeFlow(&f)

	if errs := fieldErrors(&f); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "message": errs.Error(), "details": errs})
		return
	}
	if err := Validate(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_flow", "message": err.Error()})
		return
	}

	if err := h.store.SaveFlow(c.Request.Context(), &f); err != nil {
		if errors.Is(err, ErrReadOnly) {
			c.JSON(http.StatusConflict, gin.H{"error": "read_only", "message": "flow store is read-only"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to save flow"})
		return
	}
	metrics.FlowSavesTotal.WithLabelValues(f.Category).Inc()
	logging.L(c.Request.Context()).Info("flow saved", "category", f.Category, "version", f.Version)
	if h.publisher != nil {
		h.publisher.PublishFlowUpdate(f.Category, f.Version, false)
	}

	c.JSON(http.StatusOK, gin.H{"flow": f})
}

// DeleteFlow handles DELETE /v1/admin/flows/:category
func (h *Handler) DeleteFlow(c *gin.Context) {
	category := c.Param("category")
	if err := h.store.DeleteFlow(c.Request.Context(), category); err != nil {
		switch {
		case errors.Is(err, ErrFlowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "flow not found"})
		case errors.Is(err, ErrReadOnly):
			c.JSON(http.StatusConflict, gin.H{"error": "read_only", "message": "flow store is read-only"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to delete flow"})
		}
		return
	}
	logging.L(c.Request.Context()).Info("flow deleted", "category", category)
	if h.publisher != nil {
		h.publisher.PublishFlowUpdate(category, 0, true)
	}
	c.JSON(http.StatusOK, gin.H{"deleted": category})
}

// ValidateFlow handles POST /v1/admin/flows/validate
func (h *Handler) ValidateFlow(c *gin.Context) {
	var f Flow
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid flow body"})
		return
	}
	if errs := fieldErrors(&f); len(errs) > 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "message": errs.Error(), "details": errs})
		return
	}
	if err := Validate(&f); err != nil {
		c.JSON(http.StatusOK, gin.H{"valid": false, "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// fieldErrors checks the identifiers an editor types by hand. Answers and
// redirects are matched on these, so they must be slugs.
func fieldErrors(f *Flow) validation.ValidationErrors {
	checks := []func() *validation.ValidationError{
		validation.Required("category", f.Category),
		validation.ValidSlug("category", f.Category),
		validation.Required("title", f.Title),
	}
	for i, q := range f.Questions {
		field := fmt.Sprintf("questions[%d].id", i)
		checks = append(checks, validation.Required(field, q.ID), validation.ValidSlug(field, q.ID))
		for j, o := range q.Options {
			field := fmt.Sprintf("questions[%d].options[%d]", i, j)
			checks = append(checks,
				validation.Required(field+".value", o.Value),
				validation.ValidSlug(field+".value", o.Value),
				validation.Required(field+".label", o.Label),
			)
			for k, target := range o.Suggests {
				checks = append(checks, validation.ValidSlug(fmt.Sprintf("%s.suggests[%d]", field, k), target))
			}
		}
	}
	return validation.Validate(checks...)
}

func sanitizeFlow(f *Flow) {
	f.Title = validation.SanitizeString(f.Title, 200)
	for i := range f.Questions {
		q := &f.Questions[i]
		q.Text = validation.SanitizeString(q.Text, 500)
		for j := range q.Options {
			o := &q.Options[j]
			o.Label = validation.SanitizeString(o.Label, 200)
			o.Description = validation.SanitizeString(o.Description, 500)
		}
	}
	for i := range f.Reassurances {
		f.Reassurances[i].Summary = validation.SanitizeString(f.Reassurances[i].Summary, 500)
	}
}
