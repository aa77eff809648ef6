package services

import (
	"context"
	"fmt"
	"time"

	"contactbook/internal/models"
)

// In-memory репозитории, повторяющие SQL-семантику: "нет строки" -> nil, nil.

type fakeUserRepo struct {
	seq   int
	users map[int]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int]*models.User{}}
}

func (r *fakeUserRepo) Create(user *models.User) error {
	r.seq++
	user.ID = r.seq
	user.Confirmed = false
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(id int) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateRefreshToken(userID int, token *string) error {
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("no user %d", userID)
	}
	u.RefreshToken = token
	return nil
}

func (r *fakeUserRepo) ConfirmEmail(email string) error {
	for _, u := range r.users {
		if u.Email == email {
			u.Confirmed = true
			return nil
		}
	}
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(email, url string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			u.Avatar = &url
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type fakeContactRepo struct {
	seq      int
	contacts map[int]*models.Contact
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{contacts: map[int]*models.Contact{}}
}

func (r *fakeContactRepo) Create(contact *models.Contact) error {
	r.seq++
	contact.ID = r.seq
	cp := *contact
	r.contacts[contact.ID] = &cp
	return nil
}

func (r *fakeContactRepo) Update(contact *models.Contact) error {
	existing, ok := r.contacts[contact.ID]
	if !ok || existing.UserID != contact.UserID {
		return nil // как UPDATE без совпавших строк
	}
	cp := *contact
	r.contacts[contact.ID] = &cp
	return nil
}

func (r *fakeContactRepo) Delete(contact *models.Contact) error {
	existing, ok := r.contacts[contact.ID]
	if ok && existing.UserID == contact.UserID {
		delete(r.contacts, contact.ID)
	}
	return nil
}

func (r *fakeContactRepo) GetAll(userID int) ([]*models.Contact, error) {
	var res []*models.Contact
	for id := 1; id <= r.seq; id++ {
		if c, ok := r.contacts[id]; ok && c.UserID == userID {
			cp := *c
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *fakeContactRepo) GetByID(id, userID int) (*models.Contact, error) {
	c, ok := r.contacts[id]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (r *fakeContactRepo) findBy(userID int, match func(*models.Contact) bool) (*models.Contact, error) {
	for id := 1; id <= r.seq; id++ {
		if c, ok := r.contacts[id]; ok && c.UserID == userID && match(c) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeContactRepo) GetByName(name string, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.Name == name })
}

func (r *fakeContactRepo) GetBySurName(surName string, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.SurName == surName })
}

func (r *fakeContactRepo) GetByEmail(email string, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.Email == email })
}

func (r *fakeContactRepo) GetByPhone(phone string, userID int) (*models.Contact, error) {
	return r.findBy(userID, func(c *models.Contact) bool { return c.Phone == phone })
}

func (r *fakeContactRepo) GetWeekBirthdays(userID int) ([]*models.Contact, error) {
	return r.GetAll(userID)
}

// fakeAvatars отдаёт заранее заданный результат граватара и запоминает загрузки.
type fakeAvatars struct {
	gravatar GravatarResult
	uploads  map[string][]byte
}

func newFakeAvatars(gravatar GravatarResult) *fakeAvatars {
	return &fakeAvatars{gravatar: gravatar, uploads: map[string][]byte{}}
}

func (f *fakeAvatars) FetchGravatar(email string) GravatarResult { return f.gravatar }

func (f *fakeAvatars) PublicID(email, username string) string {
	return "avatars/" + email + "-" + username
}

func (f *fakeAvatars) PublicURL(key string) string {
	return "http://assets.local/" + key
}

func (f *fakeAvatars) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	f.uploads[key] = data
	return nil
}
