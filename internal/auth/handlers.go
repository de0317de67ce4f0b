package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mbd888/scamcheck/internal/logging"
	"github.com/mbd888/scamcheck/internal/validation"
)

// Handler provides HTTP endpoints for key management
type Handler struct {
	manager *Manager
}

// NewHandler creates a new auth handler
func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// RegisterAdminRoutes sets up key routes. Callers must apply Middleware first.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/whoami", RequireViewer(), h.WhoAmI)

	keys := r.Group("/keys", RequireAdmin())
	keys.GET("", h.ListKeys)
	keys.POST("", h.CreateKey)
	keys.DELETE("/:keyId", h.RevokeKey)
}

// CreateKeyRequest is the request body for creating a key
type CreateKeyRequest struct {
	Owner string `json:"owner" binding:"required"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	// TTL is a Go duration such as "720h"; empty means no expiry.
	TTL string `json:"ttl"`
}

// CreateKey handles POST /v1/admin/keys
func (h *Handler) CreateKey(c *gin.Context) {
	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "owner is required"})
		return
	}
	if req.Role == "" {
		req.Role = RoleEditor
	}
	if req.Name == "" {
		req.Name = "Editor key"
	}

	var ttl time.Duration
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": "ttl must be a positive duration"})
			return
		}
		ttl = d
	}

	owner := validation.SanitizeString(req.Owner, 255)
	name := validation.SanitizeString(req.Name, 255)
	rawKey, key, err := h.manager.GenerateKey(c.Request.Context(), owner, name, req.Role, ttl)
	if err != nil {
		if errors.Is(err, ErrInvalidRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_role", "message": "role must be viewer or editor"})
			return
		}
		logging.L(c.Request.Context()).Error("failed to create key", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "Failed to create API key"})
		return
	}

	logging.L(c.Request.Context()).Info("api key created", "key_id", key.ID, "owner", key.Owner, "role", key.Role)
	c.JSON(http.StatusCreated, gin.H{
		"apiKey":  rawKey,
		"key":     key,
		"warning": "Store this key securely. It will not be shown again.",
	})
}

// ListKeys handles GET /v1/admin/keys
func (h *Handler) ListKeys(c *gin.Context) {
	keys, err := h.manager.ListKeys(c.Request.Context())
	if err != nil {
		logging.L(c.Request.Context()).Error("failed to list keys", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to list keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys, "count": len(keys)})
}

// RevokeKey handles DELETE /v1/admin/keys/:keyId
func (h *Handler) RevokeKey(c *gin.Context) {
	keyID := c.Param("keyId")
	if err := h.manager.RevokeKey(c.Request.Context(), keyID); err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "key_not_found", "message": "Key not found or already revoked"})
			return
		}
		logging.L(c.Request.Context()).Error("failed to revoke key", "key_id", keyID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to revoke key"})
		return
	}
	logging.L(c.Request.Context()).Info("api key revoked", "key_id", keyID)
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked", "keyId": keyID})
}

// WhoAmI handles GET /v1/admin/whoami
func (h *Handler) WhoAmI(c *gin.Context) {
	if key, ok := GetAPIKey(c); ok {
		c.JSON(http.StatusOK, gin.H{"owner": key.Owner, "role": key.Role, "keyId": key.ID, "admin": IsAdmin(c)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"owner": "admin", "admin": true})
}
