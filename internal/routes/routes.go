package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"contactbook/internal/handlers"
	"contactbook/internal/middleware"
	"contactbook/internal/services"
)

// бюджет на «дорогие» контактные эндпоинты
const (
	contactsRateLimit  = 2
	contactsRateWindow = 5 * time.Second
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	contactHandler *handlers.ContactHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
	authService services.AuthService,
	limiter *redis.Client,
) *gin.Engine {

	// ---- public
	r.GET("/", healthHandler.Root)
	r.GET("/api/healthchecker", healthHandler.Healthcheck)

	auth := r.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.GET("/refresh_token", authHandler.RefreshToken)
		auth.GET("/confirmed_email/:token", authHandler.ConfirmedEmail)
	}

	// ---- protected
	requireUser := middleware.RequireUser(authService)
	rateLimit := middleware.RateLimit(limiter, contactsRateLimit, contactsRateWindow)

	contacts := r.Group("/api/contacts", requireUser)
	{
		contacts.GET("/", rateLimit, contactHandler.List)
		contacts.POST("/", rateLimit, contactHandler.Create)
		contacts.GET("/:id", contactHandler.GetByID)
		contacts.PATCH("/:id", contactHandler.Update)
		contacts.DELETE("/:id", contactHandler.Delete)
		contacts.GET("/name/:name", contactHandler.GetByName)
		contacts.GET("/sur_name/:sur_name", contactHandler.GetBySurName)
		contacts.GET("/email/:email", contactHandler.GetByEmail)
	}

	r.GET("/api/week_birthday/", requireUser, contactHandler.WeekBirthdays)

	users := r.Group("/users", requireUser)
	{
		users.GET("/me/", userHandler.Me)
		users.PATCH("/avatar", userHandler.UpdateAvatar)
	}

	return r
}
