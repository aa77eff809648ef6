package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contactbook/internal/config"
	"contactbook/internal/handlers"
	"contactbook/internal/models"
	"contactbook/internal/routes"
	"contactbook/internal/services"
	"contactbook/internal/tasks"
)

// ---- фейки уровня репозитория/коллабораторов ----

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[int]*models.User
}

func newMemUserRepo() *memUserRepo { return &memUserRepo{users: map[int]*models.User{}} }

func (r *memUserRepo) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = r.seq
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) GetByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetByID(id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memUserRepo) UpdateRefreshToken(userID int, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = token
	}
	return nil
}

func (r *memUserRepo) ConfirmEmail(email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.Confirmed = true
		}
	}
	return nil
}

func (r *memUserRepo) UpdateAvatar(email, url string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			u.Avatar = &url
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type memContactRepo struct {
	mu       sync.Mutex
	seq      int
	contacts map[int]*models.Contact
}

func newMemContactRepo() *memContactRepo { return &memContactRepo{contacts: map[int]*models.Contact{}} }

func (r *memContactRepo) Create(c *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = r.seq
	cp := *c
	r.contacts[c.ID] = &cp
	return nil
}

func (r *memContactRepo) Update(c *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.contacts[c.ID]; ok && old.UserID == c.UserID {
		cp := *c
		r.contacts[c.ID] = &cp
	}
	return nil
}

func (r *memContactRepo) Delete(c *models.Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.contacts[c.ID]; ok && old.UserID == c.UserID {
		delete(r.contacts, c.ID)
	}
	return nil
}

func (r *memContactRepo) GetAll(userID int) ([]*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*models.Contact
	for id := 1; id <= r.seq; id++ {
		if c, ok := r.contacts[id]; ok && c.UserID == userID {
			cp := *c
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *memContactRepo) findBy(userID int, match func(*models.Contact) bool) (*models.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := 1; id <= r.seq; id++ {
		if c, ok := r.contacts[id]; ok && c.UserID == userID && match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memContactRepo) GetByID(id, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.ID == id })
}

func (r *memContactRepo) GetByName(name string, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.Name == name })
}

func (r *memContactRepo) GetBySurName(surName string, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.SurName == surName })
}

func (r *memContactRepo) GetByEmail(email string, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.Email == email })
}

func (r *memContactRepo) GetByPhone(phone string, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.Phone == phone })
}

func (r *memContactRepo) GetWeekBirthdays(userID int) ([]*models.Contact, error) {
	return r.GetAll(userID)
}

type recordingEmails struct {
	mu   sync.Mutex
	sent []string
}

func (e *recordingEmails) SendConfirmationEmail(email, username, host, token string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, email)
	return nil
}

type noopAvatars struct{}

func (noopAvatars) FetchGravatar(email string) services.GravatarResult {
	return services.GravatarResult{Err: fmt.Errorf("disabled in tests")}
}
func (noopAvatars) PublicID(email, username string) string { return "avatars/test" }
func (noopAvatars) PublicURL(key string) string            { return "http://assets.local/" + key }
func (noopAvatars) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}

// ---- окружение ----

type testEnv struct {
	router *gin.Engine
	users  *memUserRepo
	auth   services.AuthService
	emails *recordingEmails
	queue  *tasks.Queue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := newMemUserRepo()
	contacts := newMemContactRepo()
	emails := &recordingEmails{}

	jwtCfg := &config.JWTConfig{
		Secret:     "test-secret",
		Algorithm:  "HS256",
		AccessTTL:  config.Duration(15 * time.Minute),
		RefreshTTL: config.Duration(7 * 24 * time.Hour),
		EmailTTL:   config.Duration(24 * time.Hour),
	}
	auth := services.NewAuthService(jwtCfg, users, nil)
	userService := services.NewUserService(users, auth, noopAvatars{})
	contactService := services.NewContactService(contacts)

	queue := tasks.NewQueue(1, 16, time.Second)
	queue.Start(context.Background())
	t.Cleanup(queue.Stop)

	router := gin.New()
	routes.SetupRoutes(
		router,
		handlers.NewAuthHandler(userService, auth, emails, queue),
		handlers.NewContactHandler(contactService),
		handlers.NewUserHandler(userService, noopAvatars{}, queue),
		handlers.NewHealthHandler(nil),
		auth,
		nil, // без редиса лимитер пропускает всё
	)
	return &testEnv{router: router, users: users, auth: auth, emails: emails, queue: queue}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) signup(t *testing.T, email string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":"borys","email":%q,"password":"qwerty!234"}`, email)
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := e.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (e *testEnv) confirm(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, e.users.ConfirmEmail(email))
}

func (e *testEnv) login(t *testing.T, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"username": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["detail"]
}

// ---- тесты ----

func TestSignupDuplicate(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")

	body := `{"username":"borys","email":"test@gmail.com","password":"qwerty!234"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := env.do(req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Account already exists", detail(t, w))
}

func TestLoginUnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	w := env.login(t, "ghost@gmail.com", "whatever")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email", detail(t, w))
}

func TestLoginUnconfirmed(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")

	// до подтверждения не пускаем даже с верным паролем
	w := env.login(t, "test@gmail.com", "qwerty!234")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Email not confirmed", detail(t, w))

	// и с неверным — тот же ответ
	w = env.login(t, "test@gmail.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Email not confirmed", detail(t, w))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")
	env.confirm(t, "test@gmail.com")

	w := env.login(t, "test@gmail.com", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid password", detail(t, w))
}

func TestLoginSuccessStoresRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")
	env.confirm(t, "test@gmail.com")

	w := env.login(t, "test@gmail.com", "qwerty!234")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tokens models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))
	assert.Equal(t, "bearer", tokens.TokenType)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	user, err := env.users.GetByEmail("test@gmail.com")
	require.NoError(t, err)
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, tokens.RefreshToken, *user.RefreshToken)
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")
	env.confirm(t, "test@gmail.com")

	w := env.login(t, "test@gmail.com", "qwerty!234")
	require.Equal(t, http.StatusOK, w.Code)
	var tokens models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))

	req := httptest.NewRequest(http.MethodGet, "/auth/refresh_token", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.RefreshToken)
	w = env.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rotated models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rotated))
	assert.NotEmpty(t, rotated.RefreshToken)

	user, err := env.users.GetByEmail("test@gmail.com")
	require.NoError(t, err)
	require.NotNil(t, user.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, *user.RefreshToken)
}

func TestRefreshMismatchClearsSession(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")
	env.confirm(t, "test@gmail.com")

	w := env.login(t, "test@gmail.com", "qwerty!234")
	require.Equal(t, http.StatusOK, w.Code)
	var tokens models.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tokens))

	// валидный по подписи, но не тот, что хранится
	stray, err := env.auth.CreateRefreshToken("test@gmail.com")
	require.NoError(t, err)
	require.NotEqual(t, tokens.RefreshToken, stray)

	req := httptest.NewRequest(http.MethodGet, "/auth/refresh_token", nil)
	req.Header.Set("Authorization", "Bearer "+stray)
	w = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid refresh token", detail(t, w))

	// сохранённый токен сброшен: старый тоже больше не работает
	user, err := env.users.GetByEmail("test@gmail.com")
	require.NoError(t, err)
	assert.Nil(t, user.RefreshToken)

	req = httptest.NewRequest(http.MethodGet, "/auth/refresh_token", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.RefreshToken)
	w = env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")
	env.confirm(t, "test@gmail.com")

	access, err := env.auth.CreateAccessToken("test@gmail.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/auth/refresh_token", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	w := env.do(req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid scope for token", detail(t, w))
}

func TestConfirmedEmailEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")

	token, err := env.auth.CreateEmailToken("test@gmail.com")
	require.NoError(t, err)

	w := env.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Email confirmed")

	// повторно — идемпотентный ответ
	w = env.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+token, nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "already confirmed")

	// токен не того назначения
	access, err := env.auth.CreateAccessToken("test@gmail.com")
	require.NoError(t, err)
	w = env.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+access, nil))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Invalid token for email verification", detail(t, w))

	// токен на несуществующего пользователя
	ghost, err := env.auth.CreateEmailToken("ghost@gmail.com")
	require.NoError(t, err)
	w = env.do(httptest.NewRequest(http.MethodGet, "/auth/confirmed_email/"+ghost, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Verification error", detail(t, w))
}

func TestSignupSendsConfirmationEmail(t *testing.T) {
	env := newTestEnv(t)
	env.signup(t, "test@gmail.com")

	// письмо уходит фоном; дожидаемся дренажа очереди
	env.queue.Stop()

	env.emails.mu.Lock()
	defer env.emails.mu.Unlock()
	assert.Contains(t, env.emails.sent, "test@gmail.com")
}
