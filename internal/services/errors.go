package services

import "errors"

// Сервисные ошибки. Хендлеры переводят их в HTTP-статусы.
var (
	// auth
	ErrInvalidCredentials = errors.New("could not validate credentials")
	ErrInvalidScope       = errors.New("invalid scope for token")
	ErrInvalidEmailToken  = errors.New("invalid token for email verification")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidRefresh     = errors.New("invalid refresh token")

	// users
	ErrEmailExists      = errors.New("account already exists")
	ErrAlreadyConfirmed = errors.New("email already confirmed")

	// contacts
	ErrNotFound    = errors.New("not found")
	ErrPhoneExists = errors.New("phone already exists")
)
