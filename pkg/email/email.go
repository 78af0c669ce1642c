package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings. Email delivery is off unless Host and Sender are set.
type Config struct {
	Host       string `env:"SMTP_HOST"`
	Port       int    `env:"SMTP_PORT" env-default:"587"`
	Username   string `env:"SMTP_USERNAME"`
	Password   string `env:"SMTP_PASSWORD"`
	Sender     string `env:"SMTP_SENDER"`
	SenderName string `env:"SMTP_SENDER_NAME" env-default:"YuMix"`
	// SSL selects implicit TLS (port 465); otherwise STARTTLS is used.
	SSL bool `env:"SMTP_SSL" env-default:"false"`
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.Sender != ""
}

// Mailer sends HTML email over SMTP.
type Mailer struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewMailer(cfg Config) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.SSL
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return &Mailer{cfg: cfg, dialer: d}
}

// Send delivers one message. The SMTP exchange itself is not cancellable;
// ctx is only checked before dialing.
func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.cfg.Sender, m.cfg.SenderName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

var subscriptionExpiryTemplate = template.Must(template.New("subscription_expiry").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2 style="color: #FF7043;">Your YuMix subscription is about to expire</h2>
    <p>Hi {{.Name}},</p>
    <p>Your <strong>{{.Plan}}</strong> plan expires on <strong>{{.ExpiryDate}}</strong>.
    Renew before then to keep unlimited recipes and meal plans.</p>
    <p style="color: #999; font-size: 12px;">This is an automated email, please do not reply.</p>
</body>
</html>
`))

// RenderSubscriptionExpiry builds the HTML body of an expiry warning.
func RenderSubscriptionExpiry(name, plan string, expiry time.Time) (string, error) {
	if name == "" {
		name = "there"
	}
	var buf bytes.Buffer
	err := subscriptionExpiryTemplate.Execute(&buf, map[string]string{
		"Name":       name,
		"Plan":       plan,
		"ExpiryDate": expiry.Format("Jan 2, 2006"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render subscription expiry email: %w", err)
	}
	return buf.String(), nil
}
