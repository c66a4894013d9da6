package notifier

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"jobcast/app/extractor"
)

// Mailer delivers transactional mail for the subscription lifecycle and
// job alert fan-out. An empty API key switches it into log-only mode so
// local runs work without a SendGrid account.
type Mailer struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewMailer(apiKey string, fromEmail string, fromName string) *Mailer {
	m := &Mailer{
		fromEmail: fromEmail,
		fromName:  fromName,
	}
	if apiKey != "" {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

func (m *Mailer) SendVerification(_ context.Context, email string, link string) error {
	subject := "Verify your email for job alerts"
	plain := fmt.Sprintf("Hi,\n\nConfirm your subscription to job alerts by opening this link:\n\n%s\n\nIf you did not request this, ignore this email.\n", link)
	html := fmt.Sprintf(`<p>Hi,</p><p>Confirm your subscription to job alerts:</p><p><a href="%s">Verify my email</a></p><p>If you did not request this, ignore this email.</p>`,
		template.HTMLEscapeString(link))

	return m.send(email, subject, plain, html)
}

func (m *Mailer) SendUnsubscribeConfirmation(_ context.Context, email string) error {
	subject := "You have been unsubscribed"
	plain := "Hi,\n\nYou will no longer receive job alerts from us. You can re-subscribe at any time.\n"
	html := `<p>Hi,</p><p>You will no longer receive job alerts from us. You can re-subscribe at any time.</p>`

	return m.send(email, subject, plain, html)
}

func (m *Mailer) SendJobAlert(_ context.Context, email string, openings []extractor.Opening, unsubscribeLink string) error {
	subject := fmt.Sprintf("%d new job opening(s) spotted", len(openings))
	if len(openings) == 1 {
		subject = fmt.Sprintf("New opening: %s at %s", openings[0].Role, openings[0].Company)
	}

	return m.send(email, subject, renderAlertBody(openings, unsubscribeLink), renderAlertHTML(openings, unsubscribeLink))
}

func (m *Mailer) send(to string, subject string, plain string, html string) error {
	if m.client == nil {
		slog.Info("Mail delivery skipped, no API key configured", "to", to, "subject", subject)
		return nil
	}

	message := mail.NewSingleEmail(
		mail.NewEmail(m.fromName, m.fromEmail),
		subject,
		mail.NewEmail("", to),
		plain,
		html,
	)

	resp, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider rejected message to %s: status %d", to, resp.StatusCode)
	}

	return nil
}

func renderAlertBody(openings []extractor.Opening, unsubscribeLink string) string {
	var b strings.Builder

	b.WriteString("Hi,\n\nNew job openings were just announced:\n\n")

	for i, o := range openings {
		fmt.Fprintf(&b, "%d. %s at %s\n", i+1, orFallback(o.Role, "Unknown role"), orFallback(o.Company, "Unknown company"))

		if o.EmploymentType != "" || o.WorkMode != "" {
			b.WriteString("   ")
			b.WriteString(strings.TrimSpace(o.EmploymentType + " " + o.WorkMode))
			b.WriteString("\n")
		}
		if o.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", o.Location)
		}
		if o.Duration != nil {
			fmt.Fprintf(&b, "   Duration: %s\n", *o.Duration)
		}
		if len(o.RequiredSkills) > 0 {
			fmt.Fprintf(&b, "   Skills: %s\n", strings.Join(o.RequiredSkills, ", "))
		}
		if o.Summary != "" {
			fmt.Fprintf(&b, "   %s\n", o.Summary)
		}
		if o.ApplyLink != "" {
			fmt.Fprintf(&b, "   Apply: %s\n", o.ApplyLink)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "To stop receiving alerts, open: %s\n", unsubscribeLink)

	return b.String()
}

func renderAlertHTML(openings []extractor.Opening, unsubscribeLink string) string {
	esc := template.HTMLEscapeString

	var b strings.Builder

	b.WriteString("<p>Hi,</p><p>New job openings were just announced:</p>")

	for _, o := range openings {
		fmt.Fprintf(&b, "<h3>%s at %s</h3><ul>", esc(orFallback(o.Role, "Unknown role")), esc(orFallback(o.Company, "Unknown company")))

		if o.EmploymentType != "" || o.WorkMode != "" {
			fmt.Fprintf(&b, "<li>%s</li>", esc(strings.TrimSpace(o.EmploymentType+" "+o.WorkMode)))
		}
		if o.Location != "" {
			fmt.Fprintf(&b, "<li>Location: %s</li>", esc(o.Location))
		}
		if o.Duration != nil {
			fmt.Fprintf(&b, "<li>Duration: %s</li>", esc(*o.Duration))
		}
		if len(o.RequiredSkills) > 0 {
			fmt.Fprintf(&b, "<li>Skills: %s</li>", esc(strings.Join(o.RequiredSkills, ", ")))
		}
		if o.Summary != "" {
			fmt.Fprintf(&b, "<li>%s</li>", esc(o.Summary))
		}
		if o.ApplyLink != "" {
			fmt.Fprintf(&b, `<li><a href="%s">Apply here</a></li>`, esc(o.ApplyLink))
		}
		b.WriteString("</ul>")
	}

	fmt.Fprintf(&b, `<p><a href="%s">Unsubscribe from job alerts</a></p>`, esc(unsubscribeLink))

	return b.String()
}

func orFallback(value string, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
