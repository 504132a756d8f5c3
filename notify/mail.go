package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"strings"

	"material_lending/lending"

	"go.uber.org/zap"
)

// -------------------- 邮件配置 --------------------

type SMTPConfig struct {
	Host     string // SMTP_HOST, e.g. smtp.gmail.com
	Port     string // SMTP_PORT, e.g. 587
	Username string // SMTP_USERNAME
	Password string // SMTP_PASSWORD
	From     string // SMTP_FROM, 为空时回退 Username
	AppName  string // APP_NAME
	AppURL   string // WEB_ORIGIN, 邮件里的按钮链接
}

func LoadSMTPFromEnv() SMTPConfig {
	get := func(k, d string) string {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
		return d
	}
	return SMTPConfig{
		Host:     get("SMTP_HOST", ""),
		Port:     get("SMTP_PORT", "587"),
		Username: get("SMTP_USERNAME", ""),
		Password: get("SMTP_PASSWORD", ""),
		From:     get("SMTP_FROM", ""),
		AppName:  get("APP_NAME", "Material Lending"),
		AppURL:   get("WEB_ORIGIN", "http://localhost:5173"),
	}
}

// Configured 为 false 时是开发模式：只打日志
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && (c.Username != "" || c.From != "")
}

func (c SMTPConfig) fromAddr() string {
	if c.From != "" {
		return c.From
	}
	return c.Username
}

// -------------------- 邮件发送 --------------------

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer renders order messages as HTML mail.
type Mailer struct {
	conf SMTPConfig
	log  *zap.Logger
	send sendFunc
}

func NewMailer(conf SMTPConfig, log *zap.Logger) *Mailer {
	return &Mailer{conf: conf, log: log, send: smtp.SendMail}
}

var orderTmpl = template.Must(template.New("order").Parse(`
<div style="font-family:Arial,sans-serif; font-size:14px; color:#222">
  <h2>New material request</h2>
  <p><b>Student:</b> {{.Msg.Student}}<br/>
     <b>Request:</b> #{{.Msg.RequestID}} ({{.Msg.Reference}})<br/>
     {{with .Msg.RequestedAt}}<b>Requested at:</b> {{.Format "02/01/2006 15:04"}}<br/>{{end}}
     <b>Status:</b> pending</p>
  <table cellpadding="6" style="border-collapse:collapse">
    <tr><th align="left">Material</th><th align="left">Category</th><th>Qty</th><th>Return by</th></tr>
    {{range .Msg.Items}}<tr>
      <td>{{.Material}}</td><td>{{.Category}}</td><td align="center">{{.Quantity}}</td>
      <td>{{with .DueDate}}{{.Format "02/01/2006"}}{{end}}</td>
    </tr>{{end}}
  </table>
  <p><b>Total items:</b> {{len .Msg.Items}}</p>
  <p>
    <a href="{{.URL}}" style="display:inline-block; padding:10px 16px; background:#2563EB; color:#fff; text-decoration:none; border-radius:6px;">
      Review request
    </a>
  </p>
  <hr/>
  <p style="color:#666">This request is waiting for approval in {{.App}}.</p>
</div>
`))

func (m *Mailer) Render(msg Message) (string, error) {
	var buf bytes.Buffer
	err := orderTmpl.Execute(&buf, struct {
		Msg Message
		App string
		URL string
	}{msg, m.conf.AppName, strings.TrimRight(m.conf.AppURL, "/") + fmt.Sprintf("/dashboard/requests/%d", msg.RequestID)})
	return buf.String(), err
}

func (m *Mailer) Send(msg Message) error {
	if len(msg.Recipients) == 0 {
		m.log.Warn("order mail has no recipients", zap.Uint("request_id", msg.RequestID))
		return nil
	}
	if !m.conf.Configured() {
		m.log.Info("[DEV] order mail not sent, smtp not configured",
			zap.Uint("request_id", msg.RequestID), zap.Strings("to", msg.Recipients))
		return nil
	}
	html, err := m.Render(msg)
	if err != nil {
		return fmt.Errorf("render order mail: %w", err)
	}
	subject := fmt.Sprintf("%s: new request #%d from %s", m.conf.AppName, msg.RequestID, msg.Student)
	body := buildMIMEWithFromName(m.conf.AppName, m.conf.fromAddr(), msg.Recipients, subject, html)

	auth := smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.Host)
	addr := m.conf.Host + ":" + m.conf.Port
	return m.send(addr, auth, m.conf.fromAddr(), msg.Recipients, []byte(body))
}

func buildMIMEWithFromName(fromName, fromAddr string, to []string, subject, html string) string {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", fromName, fromAddr),
		fmt.Sprintf("To: %s", strings.Join(to, ", ")),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + html
}

// MailNotifier sends the order mail synchronously.
type MailNotifier struct{ m *Mailer }

func NewMailNotifier(m *Mailer) *MailNotifier { return &MailNotifier{m: m} }

func (n *MailNotifier) OrderPlaced(ctx context.Context, op lending.OrderPlaced) error {
	return n.m.Send(NewMessage(op))
}
