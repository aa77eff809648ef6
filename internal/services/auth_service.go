package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"contactbook/internal/config"
	"contactbook/internal/models"
	"contactbook/internal/repositories"
)

// Значения claim "scope": токены разных назначений взаимно не принимаются.
const (
	ScopeAccess  = "access_token"
	ScopeRefresh = "refresh_token"
	ScopeEmail   = "email_token"
)

type TokenClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

type AuthService interface {
	HashPassword(plain string) (string, error)
	VerifyPassword(plain, hash string) bool

	CreateAccessToken(email string) (string, error)
	CreateRefreshToken(email string) (string, error)
	CreateEmailToken(email string) (string, error)

	// DecodeRefreshToken возвращает subject (email) или
	// ErrInvalidScope / ErrInvalidCredentials.
	DecodeRefreshToken(token string) (string, error)
	// GetEmailFromToken — для ссылки подтверждения; любая ошибка
	// декодирования сворачивается в ErrInvalidEmailToken.
	GetEmailFromToken(token string) (string, error)

	// GetCurrentUser — access-токен -> пользователь (сначала кеш, потом БД).
	GetCurrentUser(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	emailTTL   time.Duration

	users repositories.UserRepository
	cache *redis.Client // может быть nil, тогда всегда идём в БД
}

const userCacheTTL = 15 * time.Minute

func NewAuthService(cfg *config.JWTConfig, users repositories.UserRepository, cache *redis.Client) AuthService {
	method := jwt.GetSigningMethod(cfg.Algorithm)
	if method == nil {
		method = jwt.SigningMethodHS256
	}
	return &authService{
		secret:     []byte(cfg.Secret),
		method:     method,
		accessTTL:  cfg.AccessTTL.Std(),
		refreshTTL: cfg.RefreshTTL.Std(),
		emailTTL:   cfg.EmailTTL.Std(),
		users:      users,
		cache:      cache,
	}
}

func (s *authService) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *authService) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *authService) createToken(email, scope string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &TokenClaims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti делает каждый выпуск уникальным, иначе два refresh,
			// выпущенные в одну секунду, совпали бы байт в байт
			ID:        uuid.NewString(),
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
}

func (s *authService) CreateAccessToken(email string) (string, error) {
	return s.createToken(email, ScopeAccess, s.accessTTL)
}

func (s *authService) CreateRefreshToken(email string) (string, error) {
	return s.createToken(email, ScopeRefresh, s.refreshTTL)
}

func (s *authService) CreateEmailToken(email string) (string, error) {
	return s.createToken(email, ScopeEmail, s.emailTTL)
}

// decodeToken проверяет подпись и срок; scope проверяет вызывающий.
func (s *authService) decodeToken(tokenStr string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// принимаем только HMAC
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

func (s *authService) DecodeRefreshToken(tokenStr string) (string, error) {
	claims, err := s.decodeToken(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Scope != ScopeRefresh {
		return "", ErrInvalidScope
	}
	return claims.Subject, nil
}

func (s *authService) GetEmailFromToken(tokenStr string) (string, error) {
	claims, err := s.decodeToken(tokenStr)
	if err != nil || claims.Scope != ScopeEmail {
		return "", ErrInvalidEmailToken
	}
	return claims.Subject, nil
}

func (s *authService) GetCurrentUser(ctx context.Context, tokenStr string) (*models.User, error) {
	claims, err := s.decodeToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Scope != ScopeAccess {
		return nil, ErrInvalidScope
	}
	email := claims.Subject

	if u := s.cachedUser(ctx, email); u != nil {
		return u, nil
	}

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// токен валиден, но пользователя уже нет
		return nil, ErrInvalidCredentials
	}
	s.cacheUser(ctx, user)
	return user, nil
}

func (s *authService) cachedUser(ctx context.Context, email string) *models.User {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, "user:"+email).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[auth][cache] get user %q: %v", email, err)
		}
		return nil
	}
	var u models.User
	if err := json.Unmarshal(raw, &u); err != nil {
		log.Printf("[auth][cache] decode user %q: %v", email, err)
		return nil
	}
	return &u
}

func (s *authService) cacheUser(ctx context.Context, user *models.User) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, "user:"+user.Email, raw, userCacheTTL).Err(); err != nil {
		log.Printf("[auth][cache] set user %q: %v", user.Email, err)
	}
}
