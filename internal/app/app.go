package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"contactbook/internal/config"
	"contactbook/internal/handlers"
	"contactbook/internal/repositories"
	"contactbook/internal/routes"
	"contactbook/internal/services"
	"contactbook/internal/tasks"
	"contactbook/migrations"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "contactbook/docs"
)

func Run() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Ошибка загрузки конфигурации: ", err)
	}

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("Ошибка подключения к БД: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Ошибка закрытия БД: %v", err)
		}
	}()

	if err := runMigrations(context.Background(), db); err != nil {
		log.Fatal("Ошибка миграций: ", err)
	}

	// === Redis (лимитер + кеш пользователя) ===
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("Ошибка закрытия Redis: %v", err)
		}
	}()

	// === Background tasks ===
	queue := tasks.NewQueue(2, 128, 30*time.Second)
	queue.Start(context.Background())
	defer queue.Stop()

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	contactRepo := repositories.NewContactRepository(db)

	// === Services ===
	avatarService := services.NewAvatarService(cfg.S3)
	authService := services.NewAuthService(&cfg.JWT, userRepo, rdb)
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	userService := services.NewUserService(userRepo, authService, avatarService)
	contactService := services.NewContactService(contactRepo)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService, authService, emailService, queue)
	contactHandler := handlers.NewContactHandler(contactService)
	userHandler := handlers.NewUserHandler(userService, avatarService, queue)
	healthHandler := handlers.NewHealthHandler(db)

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		contactHandler,
		userHandler,
		healthHandler,
		authService,
		rdb,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("Ошибка запуска сервера: ", err)
	}
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
