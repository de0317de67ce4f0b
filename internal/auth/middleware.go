package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyAPIKey is the key for storing API key in gin context
	ContextKeyAPIKey = "apiKey"
	// ContextKeyAdmin marks requests that presented the admin secret
	ContextKeyAdmin = "authAdmin"

	// HeaderAdminSecret carries the admin secret.
	HeaderAdminSecret = "X-Admin-Secret"
)

// Middleware resolves credentials without rejecting anything. A valid key
// is stored under ContextKeyAPIKey; a matching admin secret sets ContextKeyAdmin.
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.IsAdminSecret(c.GetHeader(HeaderAdminSecret)) {
			c.Set(ContextKeyAdmin, true)
		}

		apiKey := c.GetHeader("Authorization")
		if apiKey == "" {
			apiKey = c.GetHeader("X-API-Key")
		}
		if apiKey != "" {
			if key, err := m.ValidateKey(c.Request.Context(), apiKey); err == nil {
				c.Set(ContextKeyAPIKey, key)
			}
		}

		c.Next()
	}
}

// RequireRole rejects requests whose key does not grant role. The admin
// secret grants every role.
func RequireRole(role Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAdmin(c) {
			c.Next()
			return
		}
		key, ok := GetAPIKey(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "API key required. Include 'Authorization: Bearer sk_...' header.",
			})
			return
		}
		if !key.Role.Allows(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "This key does not have the " + string(role) + " role.",
			})
			return
		}
		c.Next()
	}
}

// RequireEditor gates flow changes.
func RequireEditor() gin.HandlerFunc { return RequireRole(RoleEditor) }

// RequireViewer gates read-only admin data.
func RequireViewer() gin.HandlerFunc { return RequireRole(RoleViewer) }

// RequireAdmin rejects requests without the admin secret.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsAdmin(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Admin secret required in the " + HeaderAdminSecret + " header.",
			})
			return
		}
		c.Next()
	}
}

// GetAPIKey returns the API key from context (if authenticated)
func GetAPIKey(c *gin.Context) (*APIKey, bool) {
	v, exists := c.Get(ContextKeyAPIKey)
	if !exists {
		return nil, false
	}
	key, ok := v.(*APIKey)
	return key, ok
}

// IsAdmin reports whether the request presented the admin secret
func IsAdmin(c *gin.Context) bool {
	return c.GetBool(ContextKeyAdmin)
}

// Actor names who made the request, for audit logs.
func Actor(c *gin.Context) string {
	if key, ok := GetAPIKey(c); ok {
		return key.Owner
	}
	if IsAdmin(c) {
		return "admin"
	}
	return ""
}
