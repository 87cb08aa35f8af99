package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/placeshare/places-api/pkg/helpers"
	"github.com/placeshare/places-api/pkg/response"
)

const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
)

// Auth validates the bearer token on protected routes and injects the
// caller's identity into the Gin context. Pre-flight OPTIONS requests pass
// through untouched. All failures surface as the same 403 with a fixed
// message; nothing about the cause leaks to the client.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			abortAuth(c)
			return
		}
		claims, err := jwt.Verify(token)
		if err != nil {
			abortAuth(c)
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortAuth(c *gin.Context) {
	resp := response.Error[any](c, http.StatusForbidden, "authentication failed", nil)
	c.AbortWithStatusJSON(resp.Status, resp)
}
