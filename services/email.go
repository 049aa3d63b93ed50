package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type EmailService struct {
	apiKey      string
	fromEmail   string
	frontendURL string
	client      *http.Client
}

func NewEmailService(apiKey, fromEmail, frontendURL string) *EmailService {
	return &EmailService{
		apiKey:      apiKey,
		fromEmail:   fromEmail,
		frontendURL: frontendURL,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// SendInvitation sends the family invitation email. Failures are reported to
// the caller but never fail the invitation itself.
func (s *EmailService) SendInvitation(to, inviterName, familyName, token string) error {
	if s.apiKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	invitationURL := fmt.Sprintf("%s/invitations/accept?token=%s", s.frontendURL, token)

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #2d6a4f; color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; }
        .button { display: inline-block; background: #2d6a4f; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>FamConomy</h1>
        </div>
        <div class="content">
            <p>Hi,</p>
            <p><strong>%s</strong> invited you to join the <strong>%s</strong> family on FamConomy.</p>
            <a href="%s" class="button">Accept invitation</a>
            <p style="color: #e74c3c; margin-top: 30px;">This link expires in 7 days.</p>
        </div>
    </div>
</body>
</html>
	`, inviterName, familyName, invitationURL)

	payload := map[string]interface{}{
		"from":    fmt.Sprintf("FamConomy <%s>", s.fromEmail),
		"to":      []string{to},
		"subject": fmt.Sprintf("%s invited you to join %s on FamConomy", inviterName, familyName),
		"html":    htmlBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to send email: status %d", resp.StatusCode)
	}

	return nil
}
