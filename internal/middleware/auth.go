package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contactbook/internal/models"
	"contactbook/internal/services"
)

const currentUserKey = "current_user"

// BearerToken достаёт токен из заголовка Authorization.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RequireUser — access-токен -> пользователь в контексте запроса.
// Любая ошибка декодирования отвечает 401, анонимного режима нет.
func RequireUser(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		user, err := auth.GetCurrentUser(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
			return
		}
		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser возвращает пользователя, положенного RequireUser.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}
