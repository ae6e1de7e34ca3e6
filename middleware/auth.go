package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Tharoon321/worldpeace-api/models"
	"github.com/Tharoon321/worldpeace-api/store"
)

const (
	userKey  = "currentUser"
	donorKey = "donorID"
)

// TokenParser verifies a bearer token and returns its subject.
type TokenParser interface {
	ParseJWT(token string) (string, error)
}

// UserLoader resolves the user a token refers to.
type UserLoader interface {
	UserByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. It returns "" when the header is absent or malformed.
func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Auth requires a valid bearer token for an active user and stores that user
// in the gin context. Missing token and unknown or inactive user are 401; a
// token that fails verification (signature, algorithm, expiry) is 403.
func Auth(tokens TokenParser, users UserLoader, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}

		sub, err := tokens.ParseJWT(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			return
		}
		userID, err := primitive.ObjectIDFromHex(sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			return
		}

		user, err := users.UserByID(c.Request.Context(), userID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !user.IsActive) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or inactive user"})
			return
		}
		if err != nil {
			log.WithError(err).Error("auth: load user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// OptionalAuth records the token subject as the donor when a valid bearer
// token is present. It never rejects a request.
func OptionalAuth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr := bearerToken(c); tokenStr != "" {
			if sub, err := tokens.ParseJWT(tokenStr); err == nil {
				if id, err := primitive.ObjectIDFromHex(sub); err == nil {
					c.Set(donorKey, id)
				}
			}
		}
		c.Next()
	}
}

// RequireRole ensures that the authenticated user has the given role.
// Example: router.GET(..., middleware.Auth(...), middleware.RequireRole(models.RoleAdmin), handler)
func RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || user.Role != required {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

// DonorID returns the donor resolved by OptionalAuth, if any.
func DonorID(c *gin.Context) *primitive.ObjectID {
	v, ok := c.Get(donorKey)
	if !ok {
		return nil
	}
	id, ok := v.(primitive.ObjectID)
	if !ok {
		return nil
	}
	return &id
}
