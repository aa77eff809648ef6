package services

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendConfirmationEmail(email, username, host, token string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

// SendConfirmationEmail отправляет письмо со ссылкой подтверждения.
// Вызывается из фоновой очереди: запрос на регистрацию его не ждёт.
func (s *emailService) SendConfirmationEmail(email, username, host, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Confirm your email")

	link := fmt.Sprintf("%s/auth/confirmed_email/%s", host, token)
	body := fmt.Sprintf(`
		<h3>Hi %s!</h3>
		<p>Thank you for registering. Please confirm your email address.</p>
		<p><a href="%s">Confirm email</a></p>
		<p>If you did not create this account, you can ignore this message.</p>
	`, username, link)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send confirmation email: %w", err)
	}
	return nil
}
