package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"contactbook/internal/middleware"
	"contactbook/internal/models"
	"contactbook/internal/services"
	"contactbook/internal/tasks"
)

type AuthHandler struct {
	userService  services.UserService
	authService  services.AuthService
	emailService services.EmailService
	queue        *tasks.Queue
}

func NewAuthHandler(userService services.UserService, authService services.AuthService,
	emailService services.EmailService, queue *tasks.Queue) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		authService:  authService,
		emailService: emailService,
		queue:        queue,
	}
}

// @Summary      Регистрация
// @Description  Создаёт пользователя и ставит в очередь письмо подтверждения
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        signup  body      models.SignupRequest  true  "Данные регистрации"
// @Success      201     {object}  models.User
// @Failure      409     {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	user, err := h.userService.Signup(&req)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"detail": "Account already exists"})
			return
		}
		log.Printf("[auth][signup] create user %q failed: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create account"})
		return
	}

	// письмо уходит в фоне, ответ его не ждёт
	host := requestBaseURL(c)
	email, username := user.Email, user.Username
	h.queue.Enqueue("confirmation-email", func(ctx context.Context) error {
		token, err := h.authService.CreateEmailToken(email)
		if err != nil {
			return err
		}
		return h.emailService.SendConfirmationEmail(email, username, host, token)
	})

	c.JSON(http.StatusCreated, user)
}

// @Summary      Вход в систему
// @Description  OAuth2 password form: username (email) и password
// @Tags         Auth
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        username  formData  string  true  "Email пользователя"
// @Param        password  formData  string  true  "Пароль"
// @Success      200  {object}  models.TokenResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")
	if email == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	user, err := h.userService.GetByEmail(email)
	if err != nil {
		log.Printf("[auth][login] lookup %q failed: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Login failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid email"})
		return
	}
	// неподтверждённый аккаунт отсекаем до проверки пароля
	if !user.Confirmed {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Email not confirmed"})
		return
	}
	if !h.authService.VerifyPassword(password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid password"})
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		log.Printf("[auth][login] issue tokens for userID=%d failed: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate tokens"})
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary      Обновление токенов
// @Description  Принимает refresh-токен в Authorization: Bearer и ротирует пару
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  models.TokenResponse
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh_token [get]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
		return
	}

	email, err := h.authService.DecodeRefreshToken(token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidScope) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid scope for token"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Could not validate credentials"})
		return
	}

	user, err := h.userService.GetByEmail(email)
	if err != nil {
		log.Printf("[auth][refresh] lookup %q failed: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Refresh failed"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid refresh token"})
		return
	}
	if user.RefreshToken == nil || *user.RefreshToken != token {
		// предъявлен чужой/устаревший refresh: сбрасываем сессию целиком
		if err := h.userService.UpdateRefreshToken(user.ID, nil); err != nil {
			log.Printf("[auth][refresh] clear token for userID=%d failed: %v", user.ID, err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Invalid refresh token"})
		return
	}

	tokens, err := h.issueTokens(user)
	if err != nil {
		log.Printf("[auth][refresh] issue tokens for userID=%d failed: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to generate tokens"})
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary      Подтверждение email
// @Tags         Auth
// @Produce      json
// @Param        token  path  string  true  "Токен из письма"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /auth/confirmed_email/{token} [get]
func (h *AuthHandler) ConfirmedEmail(c *gin.Context) {
	email, err := h.authService.GetEmailFromToken(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "Invalid token for email verification"})
		return
	}

	switch err := h.userService.ConfirmEmail(email); {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Email confirmed"})
	case errors.Is(err, services.ErrAlreadyConfirmed):
		c.JSON(http.StatusOK, gin.H{"message": "Your email is already confirmed"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Verification error"})
	default:
		log.Printf("[auth][confirm] confirm %q failed: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Verification error"})
	}
}

// issueTokens выпускает новую пару и сохраняет refresh как единственный
// активный для пользователя.
func (h *AuthHandler) issueTokens(user *models.User) (*models.TokenResponse, error) {
	accessToken, err := h.authService.CreateAccessToken(user.Email)
	if err != nil {
		return nil, err
	}
	refreshToken, err := h.authService.CreateRefreshToken(user.Email)
	if err != nil {
		return nil, err
	}
	if err := h.userService.UpdateRefreshToken(user.ID, &refreshToken); err != nil {
		return nil, err
	}
	return &models.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}
