package handlers

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	db *sql.DB
}

func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Application started"})
}

// @Summary      Проверка подключения к БД
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/healthchecker [get]
func (h *HealthHandler) Healthcheck(c *gin.Context) {
	var one int
	if err := h.db.QueryRowContext(c.Request.Context(), `SELECT 1`).Scan(&one); err != nil {
		log.Printf("[health] db check failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Error connecting to the database"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Welcome to the contacts API!"})
}
