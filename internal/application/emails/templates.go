package emails

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
)

// ClientReceipt is the context of the email sent to a company contact for each new token.
type ClientReceipt struct {
	CustomerEmail      string
	CountryDestination string
	ClientFirstName    string
	LeadOfficerName    string
	GoodsServices      string
	URL                string
}

// LeadOfficerNotice is the context of the email sent once the customer has responded.
type LeadOfficerNotice struct {
	LeadOfficerEmail     string
	LeadOfficerFirstName string
	CountryDestination   string
	ClientFullName       string
	ClientCompanyName    string
	GoodsServices        string
	URL                  string
	// TotalExportWinValue is only shown on approvals.
	TotalExportWinValue int64
}

const (
	brandColour = "#1d70b8"
	textColour  = "#0b0c0c"
	mutedColour = "#505a5f"
)

// EmailLayout wraps content in the shared notification layout.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Data Hub</title>
  <style>
    body { margin: 0; padding: 0; font-family: Arial, sans-serif; color: %s; }
    .content p { font-size: 16px; line-height: 1.5; margin: 0 0 20px 0; }
    .button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 10px 24px; text-decoration: none; font-weight: 700; }
    .footer { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0">
    <tr><td style="background-color: #0b0c0c; padding: 16px 24px; color: #ffffff; font-weight: 700;">Department for Business and Trade</td></tr>
    <tr><td class="content" style="padding: 24px;">%s</td></tr>
    <tr><td class="footer" style="padding: 0 24px 24px 24px;">&copy; %d Crown copyright. This is an automated message, please do not reply.</td></tr>
  </table>
</body>
</html>`, textColour, brandColour, mutedColour, contentHTML, time.Now().Year())
}

func clientReceiptContent(n ClientReceipt) string {
	return fmt.Sprintf(`
    <p>Dear %s,</p>
    <p>%s has recorded that your business has exported %s to %s with support from the Department for Business and Trade.</p>
    <p>Please tell us whether you agree with this record and how our support helped you.</p>
    <p><a href="%s" class="button">Review the export win</a></p>
    <p>This link expires in 7 days.</p>
`, html.EscapeString(n.ClientFirstName), html.EscapeString(n.LeadOfficerName), html.EscapeString(n.GoodsServices),
		html.EscapeString(n.CountryDestination), n.URL)
}

func leadOfficerApprovedContent(n LeadOfficerNotice) string {
	return fmt.Sprintf(`
    <p>Dear %s,</p>
    <p>%s from %s has confirmed the export win for %s to %s.</p>
    <p>Total expected export value: &pound;%s</p>
    <p><a href="%s" class="button">View the export win</a></p>
`, html.EscapeString(n.LeadOfficerFirstName), html.EscapeString(n.ClientFullName), html.EscapeString(n.ClientCompanyName),
		html.EscapeString(n.GoodsServices), html.EscapeString(n.CountryDestination), FormatPounds(n.TotalExportWinValue), n.URL)
}

func leadOfficerRejectedContent(n LeadOfficerNotice) string {
	return fmt.Sprintf(`
    <p>Dear %s,</p>
    <p>%s from %s has not confirmed the export win for %s to %s.</p>
    <p>You can review the win and the customer's comments in Data Hub.</p>
    <p><a href="%s" class="button">View the export win</a></p>
`, html.EscapeString(n.LeadOfficerFirstName), html.EscapeString(n.ClientFullName), html.EscapeString(n.ClientCompanyName),
		html.EscapeString(n.GoodsServices), html.EscapeString(n.CountryDestination), n.URL)
}

// FormatPounds groups thousands with commas.
func FormatPounds(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
