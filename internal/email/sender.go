// Пакет email отправляет уведомления покупателям по SMTP.
package email

import (
	"fmt"
	"net/smtp"
)

// Sender отправляет письма через SMTP-сервер с PLAIN-аутентификацией.
type Sender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSender создаёт отправителя. Если username пустой, аутентификация
// не используется.
func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *Sender) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

// SendOrderConfirmation отправляет подтверждение оформленного заказа
// с кодом выдачи и составом заказа.
func (s *Sender) SendOrderConfirmation(to string, o OrderSummary) error {
	subject := fmt.Sprintf("Order confirmed — claim code %s", o.ClaimCode)
	return s.send(to, subject, buildOrderConfirmationBody(o))
}

// SendOrderReadyForPickup сообщает, что заказ собран и ждёт получения.
func (s *Sender) SendOrderReadyForPickup(to string, o OrderSummary) error {
	subject := fmt.Sprintf("Order ready for pickup — claim code %s", o.ClaimCode)
	return s.send(to, subject, buildReadyForPickupBody(o))
}

// SendOrderCompleted подтверждает выдачу заказа.
func (s *Sender) SendOrderCompleted(to string, o OrderSummary) error {
	subject := fmt.Sprintf("Order completed — claim code %s", o.ClaimCode)
	return s.send(to, subject, buildOrderCompletedBody(o))
}

// SendOrderCancellation сообщает об отмене заказа.
func (s *Sender) SendOrderCancellation(to string, o OrderSummary) error {
	subject := fmt.Sprintf("Order cancelled — claim code %s", o.ClaimCode)
	return s.send(to, subject, buildOrderCancellationBody(o))
}

// SendPasswordReset отправляет код восстановления пароля.
func (s *Sender) SendPasswordReset(to, code string) error {
	return s.send(to, "Password reset code", buildPasswordResetBody(code))
}
