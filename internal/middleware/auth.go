package middleware

import (
	"context"
	"net/http"
	"strings"

	"procurement-transparency/internal/auth"
	"procurement-transparency/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Ключи cookie-сессии.
const (
	SessionUserID = "user_id"
	SessionRole   = "role"
)

type UserLookup interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

func abort(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"code": code, "message": message, "data": nil})
}

// Authenticate identifies the caller by bearer token first, then by the
// cookie session. Anonymous requests pass through.
func Authenticate(tokens *auth.TokenIssuer, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			tokenStr := strings.TrimPrefix(header, "Bearer ")
			if tokenStr == header {
				abort(c, http.StatusUnauthorized, 40103, "malformed authorization header")
				return
			}
			claims, err := tokens.Parse(tokenStr)
			if err != nil {
				abort(c, http.StatusUnauthorized, 40103, "invalid or expired token")
				return
			}
			user, err := users.GetUser(c.Request.Context(), claims.UserID)
			if err != nil {
				abort(c, http.StatusUnauthorized, 40103, "user no longer exists")
				return
			}
			setUser(c, user)
			c.Next()
			return
		}

		sess := sessions.Default(c)
		if uid, ok := sess.Get(SessionUserID).(uint); ok && uid > 0 {
			user, err := users.GetUser(c.Request.Context(), uid)
			if err == nil {
				setUser(c, user)
			} else {
				// пользователь удалён — сессию сбрасываем
				sess.Clear()
				_ = sess.Save()
			}
		}
		c.Next()
	}
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUserID(c) == nil {
			abort(c, http.StatusUnauthorized, 40101, "authentication required")
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		if CurrentUserID(c) == nil {
			abort(c, http.StatusUnauthorized, 40101, "authentication required")
			return
		}
		if _, ok := roleSet[CurrentRole(c)]; !ok {
			abort(c, http.StatusForbidden, 40301, "access denied")
			return
		}
		c.Next()
	}
}
