package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/cogload-backend/apperr"
	"github.com/vnkhanh/cogload-backend/models"
)

const userKey = "user"

// Authenticator resolves a bearer token to a stored user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware requires a valid token and puts the user into the context.
// writeError renders rejections in the same envelope as handler errors.
func AuthMiddleware(auth Authenticator, writeError func(c *gin.Context, err error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Authorization first, then X-Auth-Token for clients that strip it.
		header := c.GetHeader("Authorization")
		if header == "" {
			header = c.GetHeader("X-Auth-Token")
		}
		if header == "" {
			writeError(c, apperr.Unauthorized("missing Authorization header"))
			c.Abort()
			return
		}

		token := header
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 {
			if !strings.EqualFold(parts[0], "Bearer") {
				writeError(c, apperr.Unauthorized("invalid Authorization header"))
				c.Abort()
				return
			}
			token = strings.TrimSpace(parts[1])
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			writeError(c, err)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by AuthMiddleware, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}
