package handlers

import (
	"context"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"contactbook/internal/services"
	"contactbook/internal/tasks"
)

// крупнее аватар не принимаем
const maxAvatarSize = 5 << 20

type UserHandler struct {
	userService services.UserService
	avatars     services.AvatarService
	queue       *tasks.Queue
}

func NewUserHandler(userService services.UserService, avatars services.AvatarService, queue *tasks.Queue) *UserHandler {
	return &UserHandler{
		userService: userService,
		avatars:     avatars,
		queue:       queue,
	}
}

// @Summary      Текущий пользователь
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Router       /users/me/ [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Обновить аватар
// @Description  Ключ объекта детерминирован по (email, username), поэтому URL
// @Description  известен сразу; сами байты уезжают в хранилище фоном
// @Tags         Users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Файл изображения"
// @Success      200  {object}  models.User
// @Router       /users/avatar [patch]
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "avatar file is required"})
		return
	}
	if fileHeader.Size > maxAvatarSize {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "avatar file is too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "cannot read avatar file"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxAvatarSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "cannot read avatar file"})
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := h.avatars.PublicID(user.Email, user.Username)
	url := h.avatars.PublicURL(key)

	h.queue.Enqueue("avatar-upload", func(ctx context.Context) error {
		return h.avatars.Upload(ctx, key, data, contentType)
	})

	updated, err := h.userService.UpdateAvatar(user.Email, url)
	if err != nil {
		log.Printf("[users][avatar] update userID=%d failed: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to update avatar"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
