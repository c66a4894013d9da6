package notifier

import (
	"context"
	"strings"
	"testing"

	"jobcast/app/extractor"
)

func TestRenderAlertBody(t *testing.T) {
	duration := "6 months"
	openings := []extractor.Opening{
		{
			Company:        "Acme",
			Role:           "Backend Engineer",
			EmploymentType: "Full-time",
			WorkMode:       "Remote",
			Location:       "Bangalore",
			RequiredSkills: []string{"Go", "PostgreSQL"},
			ApplyLink:      "https://acme.example/jobs/42",
			Summary:        "Platform team hire.",
		},
		{
			Company:  "Globex",
			Role:     "Intern",
			Duration: &duration,
		},
	}

	body := renderAlertBody(openings, "https://jobcast.example/unsubscribe/tok")

	for _, fragment := range []string{
		"1. Backend Engineer at Acme",
		"Full-time Remote",
		"Location: Bangalore",
		"Skills: Go, PostgreSQL",
		"Apply: https://acme.example/jobs/42",
		"Platform team hire.",
		"2. Intern at Globex",
		"Duration: 6 months",
		"https://jobcast.example/unsubscribe/tok",
	} {
		if !strings.Contains(body, fragment) {
			t.Errorf("Alert body missing %q:\n%s", fragment, body)
		}
	}
}

func TestRenderAlertBody_MissingFields(t *testing.T) {
	body := renderAlertBody([]extractor.Opening{{Company: "Acme"}}, "https://jobcast.example/unsubscribe/tok")

	if !strings.Contains(body, "Unknown role at Acme") {
		t.Errorf("Expected fallback role, got:\n%s", body)
	}
}

func TestRenderAlertHTML_EscapesModelOutput(t *testing.T) {
	openings := []extractor.Opening{{
		Company: "Acme <script>alert(1)</script>",
		Role:    "SRE",
	}}

	body := renderAlertHTML(openings, "https://jobcast.example/unsubscribe/tok")

	if strings.Contains(body, "<script>") {
		t.Errorf("Model output must be escaped:\n%s", body)
	}
	if !strings.Contains(body, "Acme &lt;script&gt;") {
		t.Errorf("Expected escaped company name:\n%s", body)
	}
	if !strings.Contains(body, `<a href="https://jobcast.example/unsubscribe/tok">`) {
		t.Errorf("Expected unsubscribe anchor:\n%s", body)
	}
}

func TestMailer_LogOnlyMode(t *testing.T) {
	m := NewMailer("", "alerts@jobcast.example", "Jobcast")

	if err := m.SendVerification(context.Background(), "user@gmail.com", "https://jobcast.example/verify-email/tok"); err != nil {
		t.Errorf("Log-only mailer should not fail: %v", err)
	}
	if err := m.SendJobAlert(context.Background(), "user@gmail.com", []extractor.Opening{{Company: "Acme", Role: "SRE"}}, "link"); err != nil {
		t.Errorf("Log-only mailer should not fail: %v", err)
	}
	if err := m.SendUnsubscribeConfirmation(context.Background(), "user@gmail.com"); err != nil {
		t.Errorf("Log-only mailer should not fail: %v", err)
	}
}
