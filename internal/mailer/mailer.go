package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"

	"voyance-backend/internal/config"
)

const responseSubject = "Votre guidance est arrivée"

const responseTemplate = `<!DOCTYPE html>
<html lang="fr">
<body style="font-family: Georgia, serif; color: #2d2438; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #6b4f8a;">Bonjour {{.Name}},</h2>
  <p>Merci pour votre confiance. Voici la réponse à votre question&nbsp;:</p>
  <div style="background: #f6f2fa; border-left: 3px solid #6b4f8a; padding: 16px; margin: 16px 0;">
    {{.Response}}
  </div>
  <p>Avec toute ma lumière,<br>{{.FromName}}</p>
</body>
</html>`

// Notifier sends the admin's written response to the customer. Delivery
// is best effort: callers must treat a failure as a degraded result, not
// as a reason to undo the state transition that preceded it.
type Notifier interface {
	SendResponse(to, name, responseText string) error
}

type SMTPMailer struct {
	cfg  config.SMTP
	tmpl *template.Template
}

func New(cfg config.SMTP) (*SMTPMailer, error) {
	tmpl, err := template.New("response").Parse(responseTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse response template: %w", err)
	}

	return &SMTPMailer{cfg: cfg, tmpl: tmpl}, nil
}

func (m *SMTPMailer) SendResponse(to, name, responseText string) error {
	htmlBody, err := m.renderBody(name, responseText)
	if err != nil {
		return fmt.Errorf("render response email: %w", err)
	}

	fromHeader := fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", responseSubject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		htmlBody,
	}, "\r\n")

	if err := m.send(to, []byte(msg)); err != nil {
		return fmt.Errorf("send response email: %w", err)
	}

	return nil
}

// renderBody escapes the response text, then converts newlines to <br>
// so the admin's plain-text answer keeps its paragraph structure.
func (m *SMTPMailer) renderBody(name, responseText string) (string, error) {
	safe := template.HTMLEscapeString(responseText)
	safe = strings.ReplaceAll(safe, "\r\n", "\n")
	safe = strings.ReplaceAll(safe, "\n", "<br>")

	var buf bytes.Buffer
	err := m.tmpl.Execute(&buf, map[string]interface{}{
		"Name":     name,
		"Response": template.HTML(safe),
		"FromName": m.cfg.FromName,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (m *SMTPMailer) send(to string, msg []byte) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	conn, err := net.DialTimeout("tcp", addr, 8*time.Second)
	if err != nil {
		return err
	}
	// Deadline covers the whole SMTP conversation.
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}

	if m.cfg.User != "" {
		auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
