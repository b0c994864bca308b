package middleware

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medlink-api/internal/errs"
	"github.com/harentsoaR/medlink-api/internal/utils"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey = "userID"
	RolesKey  = "userRoles"
)

func abort(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errs.Status(err), gin.H{"success": false, "message": errs.PublicMessage(err)})
}

// AuthMiddleware validates the bearer token and puts the caller's id and
// roles on the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, errs.Auth("Authorization header required"))
			return
		}

		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenString == "" {
			abort(c, errs.Auth("Authorization header must be a Bearer token"))
			return
		}
		claims, err := utils.ValidateJWT(tokenString, secret)
		if err != nil {
			abort(c, errs.Auth("Invalid token"))
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(RolesKey, claims.Roles)
		c.Next()
	}
}

// RequireRole lets the request through only if the caller holds one of
// roles. It must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(UserIDKey); !ok {
			abort(c, errs.Auth("Authentication required"))
			return
		}
		held := c.GetStringSlice(RolesKey)
		for _, r := range roles {
			if slices.Contains(held, r) {
				c.Next()
				return
			}
		}
		abort(c, errs.Forbidden("Access denied: "+strings.Join(roles, " or ")+" role required"))
	}
}
