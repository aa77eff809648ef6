package services

import (
	"contactbook/internal/models"
	"contactbook/internal/repositories"
)

// ContactService — операции над контактами авторизованного пользователя.
// Проверка уникальности телефона в пределах пользователя живёт здесь:
// read-then-write без транзакционной защиты, узкое окно гонки принято.
type ContactService interface {
	List(user *models.User) ([]*models.Contact, error)
	GetByID(user *models.User, id int) (*models.Contact, error)
	GetByName(user *models.User, name string) (*models.Contact, error)
	GetBySurName(user *models.User, surName string) (*models.Contact, error)
	GetByEmail(user *models.User, email string) (*models.Contact, error)
	WeekBirthdays(user *models.User) ([]*models.Contact, error)
	Create(user *models.User, req *models.ContactRequest) (*models.Contact, error)
	Update(user *models.User, id int, req *models.ContactRequest) (*models.Contact, error)
	// Delete возвращает прежнее состояние удалённой записи.
	Delete(user *models.User, id int) (*models.Contact, error)
}

type contactService struct {
	repo repositories.ContactRepository
}

func NewContactService(repo repositories.ContactRepository) ContactService {
	return &contactService{repo: repo}
}

func (s *contactService) List(user *models.User) ([]*models.Contact, error) {
	return s.repo.GetAll(user.ID)
}

func (s *contactService) GetByID(user *models.User, id int) (*models.Contact, error) {
	return s.found(s.repo.GetByID(id, user.ID))
}

func (s *contactService) GetByName(user *models.User, name string) (*models.Contact, error) {
	return s.found(s.repo.GetByName(name, user.ID))
}

func (s *contactService) GetBySurName(user *models.User, surName string) (*models.Contact, error) {
	return s.found(s.repo.GetBySurName(surName, user.ID))
}

func (s *contactService) GetByEmail(user *models.User, email string) (*models.Contact, error) {
	return s.found(s.repo.GetByEmail(email, user.ID))
}

func (s *contactService) WeekBirthdays(user *models.User) ([]*models.Contact, error) {
	return s.repo.GetWeekBirthdays(user.ID)
}

func (s *contactService) Create(user *models.User, req *models.ContactRequest) (*models.Contact, error) {
	existing, err := s.repo.GetByPhone(req.Phone, user.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrPhoneExists
	}

	contact := &models.Contact{
		Name:     req.Name,
		SurName:  req.SurName,
		Email:    req.Email,
		Phone:    req.Phone,
		Birthday: req.Birthday,
		Notes:    req.Notes,
		UserID:   user.ID,
	}
	if err := s.repo.Create(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *contactService) Update(user *models.User, id int, req *models.ContactRequest) (*models.Contact, error) {
	contact, err := s.GetByID(user, id)
	if err != nil {
		return nil, err
	}

	// телефон может принадлежать только одному контакту пользователя
	other, err := s.repo.GetByPhone(req.Phone, user.ID)
	if err != nil {
		return nil, err
	}
	if other != nil && other.ID != contact.ID {
		return nil, ErrPhoneExists
	}

	contact.Name = req.Name
	contact.SurName = req.SurName
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Birthday = req.Birthday
	contact.Notes = req.Notes

	if err := s.repo.Update(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *contactService) Delete(user *models.User, id int) (*models.Contact, error) {
	contact, err := s.GetByID(user, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// found сводит "нет строки" к ErrNotFound: чужая запись и отсутствующая
// запись снаружи неразличимы.
func (s *contactService) found(c *models.Contact, err error) (*models.Contact, error) {
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}
