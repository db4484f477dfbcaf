package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/winnow/models"
)

// IdentityKey is the gin context key under which Auth stores the caller's
// API key.
const IdentityKey = "api_key"

// Auth returns API-key authentication middleware.
//
// Accepted headers:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// If apiKeys holds no usable key, the middleware is a no-op (open access).
func Auth(apiKeys []string) gin.HandlerFunc {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}
	if len(digests) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := extractAPIKey(c)
		if key == "" {
			unauthorized(c, "missing API key: provide X-API-Key header or Authorization: Bearer <key>")
			return
		}
		if !knownKey(digests, key) {
			unauthorized(c, "invalid API key")
			return
		}

		c.Set(IdentityKey, key)
		c.Next()
	}
}

// knownKey compares digests in constant time so response timing does not
// reveal key prefixes.
func knownKey(digests [][sha256.Size]byte, key string) bool {
	d := sha256.Sum256([]byte(key))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(digests[i][:], d[:])
	}
	return found == 1
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: message,
		},
	})
}

// extractAPIKey tries X-API-Key first, then Authorization: Bearer.
func extractAPIKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
