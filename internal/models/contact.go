package models

import (
	"fmt"
	"strings"
	"time"
)

// Date — календарная дата без времени, в JSON ходит как "2006-01-02".
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// Scan реализует sql.Scanner для колонок типа DATE.
func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case time.Time:
		d.Time = v
		return nil
	case []byte:
		t, err := time.Parse(dateLayout, string(v))
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case string:
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

type Contact struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	SurName  string  `json:"sur_name"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Birthday Date    `json:"birthday"`
	Notes    *string `json:"notes"`
	UserID   int     `json:"-"` // владелец, после создания не меняется
}

type ContactRequest struct {
	Name     string  `json:"name" binding:"required,min=3,max=100"`
	SurName  string  `json:"sur_name" binding:"required,min=3,max=100"`
	Email    string  `json:"email" binding:"required,email"`
	Phone    string  `json:"phone" binding:"required,min=5,max=20"`
	Birthday Date    `json:"birthday" binding:"required"`
	Notes    *string `json:"notes"`
}
