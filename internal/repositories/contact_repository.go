package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"contactbook/internal/models"
)

// ContactRepository — CRUD по контактам. Каждый запрос обязательно
// фильтруется по user_id владельца: чужой контакт неотличим от несуществующего.
type ContactRepository interface {
	Create(contact *models.Contact) error
	Update(contact *models.Contact) error
	Delete(contact *models.Contact) error
	GetAll(userID int) ([]*models.Contact, error)
	GetByID(id, userID int) (*models.Contact, error)
	GetByName(name string, userID int) (*models.Contact, error)
	GetBySurName(surName string, userID int) (*models.Contact, error)
	GetByEmail(email string, userID int) (*models.Contact, error)
	GetByPhone(phone string, userID int) (*models.Contact, error)
	GetWeekBirthdays(userID int) ([]*models.Contact, error)
}

type contactRepository struct {
	db *sql.DB
	// подменяется в тестах для фиксированного "сегодня"
	now func() time.Time
}

func NewContactRepository(db *sql.DB) ContactRepository {
	return &contactRepository{db: db, now: time.Now}
}

const contactColumns = `id, name, sur_name, email, phone, birthday, notes, user_id`

func (r *contactRepository) Create(contact *models.Contact) error {
	const q = `
		INSERT INTO contacts (name, sur_name, email, phone, birthday, notes, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if err := r.db.QueryRow(q,
		contact.Name, contact.SurName, contact.Email, contact.Phone,
		contact.Birthday.Time, contact.Notes, contact.UserID,
	).Scan(&contact.ID); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// Update перезаписывает изменяемые поля; user_id не трогаем никогда.
func (r *contactRepository) Update(contact *models.Contact) error {
	const q = `
		UPDATE contacts
		SET name=$1, sur_name=$2, email=$3, phone=$4, birthday=$5, notes=$6
		WHERE id=$7 AND user_id=$8
	`
	if _, err := r.db.Exec(q,
		contact.Name, contact.SurName, contact.Email, contact.Phone,
		contact.Birthday.Time, contact.Notes, contact.ID, contact.UserID,
	); err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (r *contactRepository) Delete(contact *models.Contact) error {
	if _, err := r.db.Exec(`DELETE FROM contacts WHERE id=$1 AND user_id=$2`,
		contact.ID, contact.UserID); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func (r *contactRepository) GetAll(userID int) ([]*models.Contact, error) {
	q := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id=$1 ORDER BY id`
	rows, err := r.db.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer rows.Close()

	var res []*models.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

func (r *contactRepository) GetByID(id, userID int) (*models.Contact, error) {
	return r.getOne(`id=$1`, id, userID)
}

func (r *contactRepository) GetByName(name string, userID int) (*models.Contact, error) {
	return r.getOne(`name=$1`, name, userID)
}

func (r *contactRepository) GetBySurName(surName string, userID int) (*models.Contact, error) {
	return r.getOne(`sur_name=$1`, surName, userID)
}

func (r *contactRepository) GetByEmail(email string, userID int) (*models.Contact, error) {
	return r.getOne(`email=$1`, email, userID)
}

func (r *contactRepository) GetByPhone(phone string, userID int) (*models.Contact, error) {
	return r.getOne(`phone=$1`, phone, userID)
}

func (r *contactRepository) getOne(cond string, key any, userID int) (*models.Contact, error) {
	q := `SELECT ` + contactColumns + ` FROM contacts WHERE ` + cond + ` AND user_id=$2 LIMIT 1`
	c := &models.Contact{}
	var (
		birthday time.Time
		notes    sql.NullString
	)
	err := r.db.QueryRow(q, key, userID).Scan(
		&c.ID, &c.Name, &c.SurName, &c.Email, &c.Phone, &birthday, &notes, &c.UserID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	c.Birthday = models.Date{Time: birthday}
	if notes.Valid {
		s := notes.String
		c.Notes = &s
	}
	return c, nil
}

// GetWeekBirthdays возвращает контакты, у кого день рождения в ближайшие
// 7 дней. Месяц/день нормализуются на текущий (или следующий) год, чтобы
// корректно пережить переход через Новый год.
func (r *contactRepository) GetWeekBirthdays(userID int) ([]*models.Contact, error) {
	all, err := r.GetAll(userID)
	if err != nil {
		return nil, err
	}
	today := r.now()
	var res []*models.Contact
	for _, c := range all {
		if birthdayWithinDays(c.Birthday.Time, today, 7) {
			res = append(res, c)
		}
	}
	return res, nil
}

// birthdayWithinDays: ближайшее наступление дня рождения (месяц/день),
// считая от today, попадает в [0, days] дней. Год рождения не участвует.
func birthdayWithinDays(birthday, today time.Time, days int) bool {
	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	next := time.Date(today.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(base) {
		next = time.Date(today.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
	}
	diff := int(next.Sub(base) / (24 * time.Hour))
	return diff >= 0 && diff <= days
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(rs rowScanner) (*models.Contact, error) {
	c := &models.Contact{}
	var (
		birthday time.Time
		notes    sql.NullString
	)
	if err := rs.Scan(&c.ID, &c.Name, &c.SurName, &c.Email, &c.Phone, &birthday, &notes, &c.UserID); err != nil {
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	c.Birthday = models.Date{Time: birthday}
	if notes.Valid {
		s := notes.String
		c.Notes = &s
	}
	return c, nil
}
