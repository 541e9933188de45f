package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/jwt"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/redis"
	"github.com/bryan-besnyi/next-doorcard-sub000/pkg/response"
)

// JWTAuth extracts and verifies the access token from
// "Authorization: Bearer <token>". Revoked tokens are rejected via the
// Redis blacklist; a nil rdb skips the check (degraded mode).
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, 10002, "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, 10002, "malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, 10002, "token is invalid or expired")
			c.Abort()
			return
		}

		if claims.TokenType != "access" {
			response.Unauthorized(c, 10002, "wrong token type")
			c.Abort()
			return
		}

		if rdb != nil {
			revoked, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
			if err == nil && revoked {
				response.Unauthorized(c, 10002, "token has been revoked")
				c.Abort()
				return
			}
			// Redis errors degrade to allowing the request through.
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Set("college", claims.College)

		c.Next()
	}
}

// RoleAuth allows the request only when the caller holds one of the
// given roles. Must run after JWTAuth.
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Unauthorized(c, 10002, "not authenticated")
			c.Abort()
			return
		}

		userRole := role.(string)
		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "insufficient permissions")
		c.Abort()
	}
}
