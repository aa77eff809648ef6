package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"contactbook/internal/models"
	"contactbook/internal/services"
)

type ContactHandler struct {
	contacts services.ContactService
}

func NewContactHandler(contacts services.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// @Summary      Список контактов
// @Tags         Contacts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Contact
// @Router       /api/contacts/ [get]
func (h *ContactHandler) List(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	contacts, err := h.contacts.List(user)
	if err != nil {
		log.Printf("[contacts][list] userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list contacts"})
		return
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

// @Summary      Создать контакт
// @Tags         Contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        contact  body      models.ContactRequest  true  "Контакт"
// @Success      201      {object}  models.Contact
// @Failure      409      {object}  map[string]string
// @Router       /api/contacts/ [post]
func (h *ContactHandler) Create(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	contact, err := h.contacts.Create(user, &req)
	if err != nil {
		if errors.Is(err, services.ErrPhoneExists) {
			c.JSON(http.StatusConflict, gin.H{"detail": fmt.Sprintf("Phone %s already exist!", req.Phone)})
			return
		}
		log.Printf("[contacts][create] userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to create contact"})
		return
	}
	c.JSON(http.StatusCreated, contact)
}

// @Summary      Контакт по id
// @Tags         Contacts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "ID контакта"
// @Success      200  {object}  models.Contact
// @Failure      404  {object}  map[string]string
// @Router       /api/contacts/{id} [get]
func (h *ContactHandler) GetByID(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	id, ok := contactID(c)
	if !ok {
		return
	}
	contact, err := h.contacts.GetByID(user, id)
	if err != nil {
		h.replyLookup(c, user.ID, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) GetByName(c *gin.Context) {
	h.lookup(c, c.Param("name"), h.contacts.GetByName)
}

func (h *ContactHandler) GetBySurName(c *gin.Context) {
	h.lookup(c, c.Param("sur_name"), h.contacts.GetBySurName)
}

// @Summary      Контакт по email
// @Tags         Contacts
// @Produce      json
// @Security     BearerAuth
// @Param        email  path      string  true  "Email контакта"
// @Success      200    {object}  models.Contact
// @Failure      404    {object}  map[string]string
// @Router       /api/contacts/email/{email} [get]
func (h *ContactHandler) GetByEmail(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	contact, err := h.contacts.GetByEmail(user, c.Param("email"))
	if err != nil {
		h.replyLookup(c, user.ID, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// lookup — общий путь для поиска по имени/фамилии с границами длины,
// которые держит именно слой роутов, а не репозиторий.
func (h *ContactHandler) lookup(c *gin.Context, key string,
	find func(*models.User, string) (*models.Contact, error)) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	if len(key) < 3 || len(key) > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "value must be between 3 and 100 characters"})
		return
	}
	contact, err := find(user, key)
	if err != nil {
		h.replyLookup(c, user.ID, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// @Summary      Обновить контакт
// @Tags         Contacts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int                    true  "ID контакта"
// @Param        contact  body      models.ContactRequest  true  "Новые поля"
// @Success      200      {object}  models.Contact
// @Failure      404      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /api/contacts/{id} [patch]
func (h *ContactHandler) Update(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	id, ok := contactID(c)
	if !ok {
		return
	}
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	contact, err := h.contacts.Update(user, id, &req)
	if err != nil {
		if errors.Is(err, services.ErrPhoneExists) {
			c.JSON(http.StatusConflict, gin.H{"detail": fmt.Sprintf("Phone %s already exist!", req.Phone)})
			return
		}
		h.replyLookup(c, user.ID, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

// @Summary      Удалить контакт
// @Tags         Contacts
// @Security     BearerAuth
// @Param        id  path  int  true  "ID контакта"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/contacts/{id} [delete]
func (h *ContactHandler) Delete(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	id, ok := contactID(c)
	if !ok {
		return
	}
	if _, err := h.contacts.Delete(user, id); err != nil {
		h.replyLookup(c, user.ID, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Дни рождения на неделю вперёд
// @Tags         Birthday
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  models.Contact
// @Router       /api/week_birthday/ [get]
func (h *ContactHandler) WeekBirthdays(c *gin.Context) {
	user, ok := mustCurrentUser(c)
	if !ok {
		return
	}
	contacts, err := h.contacts.WeekBirthdays(user)
	if err != nil {
		log.Printf("[contacts][birthdays] userID=%d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "Failed to list birthdays"})
		return
	}
	if contacts == nil {
		contacts = []*models.Contact{}
	}
	c.JSON(http.StatusOK, contacts)
}

// replyLookup: промах и чужая запись дают одинаковый 404.
func (h *ContactHandler) replyLookup(c *gin.Context, userID int, err error) {
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "NOT FOUND"})
		return
	}
	log.Printf("[contacts] userID=%d: %v", userID, err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal error"})
}

func contactID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "contact id must be a positive integer"})
		return 0, false
	}
	return id, true
}
