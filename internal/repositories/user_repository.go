package repositories

import (
	"database/sql"
	"fmt"

	"contactbook/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id int) (*models.User, error)
	UpdateRefreshToken(userID int, token *string) error
	ConfirmEmail(email string) error
	UpdateAvatar(email, url string) (*models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (username, email, password, confirmed, avatar, refresh_token)
		VALUES ($1, $2, $3, FALSE, $4, NULL)
		RETURNING id, confirmed, created_at
	`
	if err := r.db.QueryRow(q, user.Username, user.Email, user.Password, user.Avatar).
		Scan(&user.ID, &user.Confirmed, &user.CreatedAt); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(`WHERE email = $1`, email)
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	return r.getOne(`WHERE id = $1`, id)
}

func (r *userRepository) getOne(where string, arg any) (*models.User, error) {
	q := `
		SELECT id, username, email, password, confirmed, avatar, refresh_token, created_at
		FROM users ` + where
	u := &models.User{}
	var (
		avatar sql.NullString
		rt     sql.NullString
	)
	err := r.db.QueryRow(q, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.Confirmed,
		&avatar, &rt, &u.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if avatar.Valid {
		s := avatar.String
		u.Avatar = &s
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	return u, nil
}

// UpdateRefreshToken пишет новое значение refresh-токена; nil — логаут.
func (r *userRepository) UpdateRefreshToken(userID int, token *string) error {
	if _, err := r.db.Exec(`UPDATE users SET refresh_token=$1 WHERE id=$2`, token, userID); err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	return nil
}

func (r *userRepository) ConfirmEmail(email string) error {
	if _, err := r.db.Exec(`UPDATE users SET confirmed=TRUE WHERE email=$1`, email); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateAvatar(email, url string) (*models.User, error) {
	if _, err := r.db.Exec(`UPDATE users SET avatar=$1 WHERE email=$2`, url, email); err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}
	return r.GetByEmail(email)
}
