package mailer

import (
	"strings"
	"testing"

	"voyance-backend/internal/config"
)

func newTestMailer(t *testing.T) *SMTPMailer {
	t.Helper()
	m, err := New(config.SMTP{
		Host:     "smtp.example.com",
		Port:     "587",
		From:     "contact@example.com",
		FromName: "Luna",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestRenderBody_NewlinesBecomeLineBreaks(t *testing.T) {
	m := newTestMailer(t)

	body, err := m.renderBody("Claire", "Voici ma guidance.\nPrenez soin de vous.\r\nÀ bientôt.")
	if err != nil {
		t.Fatalf("renderBody: %v", err)
	}

	if !strings.Contains(body, "Voici ma guidance.<br>Prenez soin de vous.<br>À bientôt.") {
		t.Errorf("newlines not converted to <br>:\n%s", body)
	}
	if !strings.Contains(body, "Bonjour Claire") {
		t.Errorf("recipient name missing from body:\n%s", body)
	}
	if !strings.Contains(body, "Luna") {
		t.Errorf("sender name missing from body:\n%s", body)
	}
}

func TestRenderBody_EscapesHTML(t *testing.T) {
	m := newTestMailer(t)

	body, err := m.renderBody("Claire", "<script>alert(1)</script>\nligne 2")
	if err != nil {
		t.Fatalf("renderBody: %v", err)
	}

	if strings.Contains(body, "<script>") {
		t.Errorf("response text not escaped:\n%s", body)
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("expected escaped script tag:\n%s", body)
	}
	if !strings.Contains(body, "ligne 2") {
		t.Errorf("response text truncated:\n%s", body)
	}
}
