package email

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"

	"hook-screener/internal/models"
	"hook-screener/shared/config"
)

//go:embed digest.html
var digestTemplate string

var digestTmpl = template.Must(template.New("digest").Funcs(template.FuncMap{
	"approved": func(s *models.Screening) bool { return s.Verdict.Approved() },
	"percent": func(part, total int) int {
		if total == 0 {
			return 0
		}
		return part * 100 / total
	},
}).Parse(digestTemplate))

type Sender struct {
	config *config.EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
		send:   smtp.SendMail,
	}
}

// SendDigest mails the verdicts of one screening run. Runs that screened
// nothing and had no failures are not reported.
func (s *Sender) SendDigest(report *models.DigestReport) error {
	if report == nil {
		return fmt.Errorf("report cannot be nil")
	}

	if len(report.Screenings) == 0 && len(report.Failed) == 0 {
		return nil
	}

	subject := fmt.Sprintf("Hook Screening Digest - %d/%d Approved (%s)",
		report.Approved, report.Total, report.Date.Format("Jan 2, 2006"))

	body, err := generateEmailBody(report)
	if err != nil {
		return fmt.Errorf("failed to generate email body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	if err := s.send(addr, auth, s.config.FromEmail, to, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func generateEmailBody(report *models.DigestReport) (string, error) {
	var buf bytes.Buffer
	if err := digestTmpl.Execute(&buf, report); err != nil {
		return "", err
	}
	return buf.String(), nil
}
