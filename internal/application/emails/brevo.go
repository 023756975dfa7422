package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches the Brevo API v3 transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact      `json:"sender"`
	To          []BrevoContact    `json:"to"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent"`
	Tags        []string          `json:"tags,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoSendResponse struct {
	MessageID string `json:"messageId"`
}

// Sender delivers export win notifications. Each method returns the provider message id.
type Sender interface {
	SendClientReceipt(ctx context.Context, n ClientReceipt) (string, error)
	SendLeadOfficerApproved(ctx context.Context, n LeadOfficerNotice) (string, error)
	SendLeadOfficerRejected(ctx context.Context, n LeadOfficerNotice) (string, error)
}

// BrevoClient sends emails via the Brevo (Sendinblue) API.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	Endpoint string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "no-reply@datahub.trade.gov.uk"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

// send posts one email and returns Brevo's messageId. Without an API key nothing is sent.
func (c *BrevoClient) send(ctx context.Context, to BrevoContact, subject, html, tag string) (string, error) {
	if c.APIKey == "" {
		return "", nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "Department for Business and Trade"},
		To:          []BrevoContact{to},
		Subject:     subject,
		HTMLContent: html,
		Tags:        []string{tag},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	var out brevoSendResponse
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out.MessageID, nil
}

// SendClientReceipt asks a company contact to confirm a win.
func (c *BrevoClient) SendClientReceipt(ctx context.Context, n ClientReceipt) (string, error) {
	subject := fmt.Sprintf("Please confirm the export win for %s", n.CountryDestination)
	return c.send(ctx, BrevoContact{Email: n.CustomerEmail, Name: n.ClientFirstName}, subject, EmailLayout(clientReceiptContent(n)), "export-win-client-receipt")
}

// SendLeadOfficerApproved tells the lead officer the customer confirmed the win.
func (c *BrevoClient) SendLeadOfficerApproved(ctx context.Context, n LeadOfficerNotice) (string, error) {
	subject := fmt.Sprintf("%s has confirmed your export win", n.ClientCompanyName)
	return c.send(ctx, BrevoContact{Email: n.LeadOfficerEmail, Name: n.LeadOfficerFirstName}, subject, EmailLayout(leadOfficerApprovedContent(n)), "export-win-approved")
}

// SendLeadOfficerRejected tells the lead officer the customer did not confirm the win.
func (c *BrevoClient) SendLeadOfficerRejected(ctx context.Context, n LeadOfficerNotice) (string, error) {
	subject := fmt.Sprintf("%s has not confirmed your export win", n.ClientCompanyName)
	return c.send(ctx, BrevoContact{Email: n.LeadOfficerEmail, Name: n.LeadOfficerFirstName}, subject, EmailLayout(leadOfficerRejectedContent(n)), "export-win-rejected")
}
