package services

import (
	"log"
	"strings"

	"contactbook/internal/models"
	"contactbook/internal/repositories"
)

type UserService interface {
	// Signup создаёт пользователя: хеширует пароль, best-effort тянет
	// граватар. Возвращает ErrEmailExists, если email уже занят.
	Signup(req *models.SignupRequest) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	UpdateRefreshToken(userID int, token *string) error
	// ConfirmEmail идемпотентно: повторное подтверждение отвечает
	// ErrAlreadyConfirmed и ничего не меняет.
	ConfirmEmail(email string) error
	UpdateAvatar(email, url string) (*models.User, error)
}

type userService struct {
	repo    repositories.UserRepository
	auth    AuthService
	avatars AvatarService
}

func NewUserService(repo repositories.UserRepository, auth AuthService, avatars AvatarService) UserService {
	return &userService{
		repo:    repo,
		auth:    auth,
		avatars: avatars,
	}
}

func (s *userService) Signup(req *models.SignupRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: strings.TrimSpace(req.Username),
		Email:    email,
		Password: hash,
	}

	// аватар по умолчанию: неудача не мешает регистрации
	if s.avatars != nil {
		if g := s.avatars.FetchGravatar(email); g.OK() {
			user.Avatar = &g.URL
		} else {
			log.Printf("[users][signup] warning: gravatar lookup failed for %s: %v", email, g.Err)
		}
	}

	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetByEmail(email string) (*models.User, error) {
	return s.repo.GetByEmail(email)
}

func (s *userService) UpdateRefreshToken(userID int, token *string) error {
	return s.repo.UpdateRefreshToken(userID, token)
}

func (s *userService) ConfirmEmail(email string) error {
	user, err := s.repo.GetByEmail(email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}
	if user.Confirmed {
		return ErrAlreadyConfirmed
	}
	return s.repo.ConfirmEmail(email)
}

func (s *userService) UpdateAvatar(email, url string) (*models.User, error) {
	return s.repo.UpdateAvatar(email, url)
}
