package assessment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/validation"
)

// Handler provides HTTP endpoints for running checks.
type Handler struct {
	service *Service
}

// NewHandler creates a new check handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up the public check routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/checks", h.StartCheck)
	r.GET("/checks/:id", h.GetCheck)
	r.POST("/checks/:id/category", h.SelectCategory)
	r.POST("/checks/:id/answers", h.SubmitAnswer)
	r.POST("/checks/:id/back", h.GoBack)
	r.POST("/checks/:id/reset", h.ResetCheck)
	r.DELETE("/checks/:id", h.DiscardCheck)
	r.POST("/assess", h.Assess)
}

// StartCheckRequest is the body of POST /v1/checks.
type StartCheckRequest struct {
	Category string `json:"category"`
}

// SelectCategoryRequest is the body of POST /v1/checks/:id/category.
type SelectCategoryRequest struct {
	Category string `json:"category" binding:"required"`
}

// AnswerRequest is the body of POST /v1/checks/:id/answers.
type AnswerRequest struct {
	Value string `json:"value" binding:"required"`
}

// AssessRequest is the body of POST /v1/assess.
type AssessRequest struct {
	Category string   `json:"category" binding:"required"`
	Answers  []string `json:"answers"`
}

// StartCheck handles POST /v1/checks
func (h *Handler) StartCheck(c *gin.Context) {
	var req StartCheckRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "invalid request body"})
			return
		}
	}
	if req.Category != "" && !validation.IsValidSlug(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_category", "message": "category must be a lowercase identifier"})
		return
	}

	view, err := h.service.Start(c.Request.Context(), req.Category)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"check": view})
}

// GetCheck handles GET /v1/checks/:id
func (h *Handler) GetCheck(c *gin.Context) {
	view, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check": view})
}

// SelectCategory handles POST /v1/checks/:id/category
func (h *Handler) SelectCategory(c *gin.Context) {
	var req SelectCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "category is required"})
		return
	}
	if !validation.IsValidSlug(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_category", "message": "category must be a lowercase identifier"})
		return
	}

	view, err := h.service.SelectCategory(c.Request.Context(), c.Param("id"), req.Category)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check": view})
}

// SubmitAnswer handles POST /v1/checks/:id/answers
func (h *Handler) SubmitAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "value is required"})
		return
	}

	view, err := h.service.Answer(c.Request.Context(), c.Param("id"), validation.SanitizeString(req.Value, 128))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check": view})
}

// GoBack handles POST /v1/checks/:id/back
func (h *Handler) GoBack(c *gin.Context) {
	view, err := h.service.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check": view})
}

// ResetCheck handles POST /v1/checks/:id/reset
func (h *Handler) ResetCheck(c *gin.Context) {
	view, err := h.service.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"check": view})
}

// DiscardCheck handles DELETE /v1/checks/:id
func (h *Handler) DiscardCheck(c *gin.Context) {
	if err := h.service.Discard(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Assess handles POST /v1/assess
func (h *Handler) Assess(c *gin.Context) {
	var req AssessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "category is required"})
		return
	}
	if !validation.IsValidSlug(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_category", "message": "category must be a lowercase identifier"})
		return
	}

	report, err := h.service.Assess(c.Request.Context(), req.Category, req.Answers)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// fail maps service errors to JSON responses.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCheckNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "check not found or expired"})
	case errors.Is(err, ErrUnavailableCategory):
		c.JSON(http.StatusNotFound, gin.H{"error": "unavailable_category", "message": err.Error()})
	case errors.Is(err, ErrUnknownOption):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown_option", "message": err.Error()})
	case errors.Is(err, ErrNotInCategory):
		c.JSON(http.StatusConflict, gin.H{"error": "not_in_category", "message": "no question is awaiting an answer"})
	case errors.Is(err, ErrIncomplete):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "incomplete", "message": err.Error()})
	case errors.Is(err, ErrTooManyAnswers):
		c.JSON(http.StatusBadRequest, gin.H{"error": "too_many_answers", "message": err.Error()})
	default:
		logging.L(c.Request.Context()).Error("check request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "check request failed"})
	}
}
