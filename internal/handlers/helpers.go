package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contactbook/internal/middleware"
	"contactbook/internal/models"
)

// mustCurrentUser: пользователь обязан быть в контексте после RequireUser;
// его отсутствие — ошибка конфигурации роутов, а не клиента.
func mustCurrentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return nil, false
	}
	return user, true
}

// requestBaseURL восстанавливает базовый адрес для ссылок в письмах.
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
