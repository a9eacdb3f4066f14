package middleware

import (
	"procurement-transparency/internal/models"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "CurrentUser"

func setUser(c *gin.Context, u *models.User) {
	c.Set(currentUserKey, u)
}

// CurrentUser returns the authenticated user, nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func CurrentUserID(c *gin.Context) *uint {
	u := CurrentUser(c)
	if u == nil {
		return nil
	}
	id := u.ID
	return &id
}

// роль берётся из базы, а не из токена: смена роли действует сразу
func CurrentRole(c *gin.Context) models.UserRole {
	if u := CurrentUser(c); u != nil {
		return u.Role
	}
	return ""
}
