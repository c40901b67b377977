package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/Tixario2/tixario-2/internal/models"
)

// ResendConfig holds Resend email service configuration
type ResendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// ResendService sends transactional email through the Resend API.
type ResendService struct {
	config  ResendConfig
	client  *http.Client
	baseURL string
}

// NewResendService creates a new Resend email service
func NewResendService(config ResendConfig) *ResendService {
	return &ResendService{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.resend.com",
	}
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

// SendOrderConfirmation emails the buyer their order recap with a QR code
// carrying the order reference, for pickup verification at the venue.
func (s *ResendService) SendOrderConfirmation(order *models.Order) error {
	if order.Email == "" {
		return fmt.Errorf("order %s has no customer email", order.Reference)
	}

	req := resendRequest{
		From:    fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail),
		To:      []string{order.Email},
		Subject: fmt.Sprintf("Confirmation de commande – %s", order.EventName),
		HTML:    orderConfirmationHTML(order),
	}

	png, err := qrcode.Encode(order.Reference, qrcode.Medium, 256)
	if err == nil {
		req.Attachments = append(req.Attachments, resendAttachment{
			Filename: fmt.Sprintf("billet-%s.png", order.Reference),
			Content:  base64.StdEncoding.EncodeToString(png),
		})
	}

	return s.send(req)
}

func (s *ResendService) send(req resendRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode email request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

func orderConfirmationHTML(order *models.Order) string {
	var rows strings.Builder
	for _, ticket := range order.Tickets {
		rows.WriteString(fmt.Sprintf(
			`<tr><td style="padding:8px 12px;border-bottom:1px solid #2a2a2a;">%s</td>`+
				`<td style="padding:8px 12px;border-bottom:1px solid #2a2a2a;text-align:center;">%d</td>`+
				`<td style="padding:8px 12px;border-bottom:1px solid #2a2a2a;text-align:right;">%.2f&nbsp;&euro;</td></tr>`,
			htmlEscape(ticket.Description), ticket.Quantity, ticket.LineTotal))
	}

	greeting := "Bonjour"
	if order.CustomerName != "" {
		greeting = "Bonjour " + htmlEscape(order.CustomerName)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#111111;color:#f5f5f5;font-family:Arial,Helvetica,sans-serif;">
  <div style="max-width:560px;margin:0 auto;padding:32px 24px;">
    <h1 style="font-size:22px;margin:0 0 4px;">Tixario</h1>
    <p style="color:#9e9e9e;margin:0 0 24px;">Votre commande est confirm&eacute;e</p>
    <p>%s,</p>
    <p>Merci pour votre achat. Voici le r&eacute;capitulatif de votre commande <strong>%s</strong> :</p>
    <table style="width:100%%;border-collapse:collapse;margin:16px 0;">
      <thead>
        <tr style="color:#9e9e9e;text-align:left;">
          <th style="padding:8px 12px;">Billet</th>
          <th style="padding:8px 12px;text-align:center;">Qt&eacute;</th>
          <th style="padding:8px 12px;text-align:right;">Total</th>
        </tr>
      </thead>
      <tbody>%s</tbody>
    </table>
    <p style="font-size:18px;text-align:right;"><strong>Total : %.2f&nbsp;&euro;</strong></p>
    <p>Le QR code en pi&egrave;ce jointe vous sera demand&eacute; lors de la remise des billets.</p>
    <p style="color:#9e9e9e;font-size:12px;margin-top:32px;">R&eacute;f&eacute;rence de commande : %s</p>
  </div>
</body>
</html>`, greeting, htmlEscape(order.Reference), rows.String(), float64(order.TotalAmount)/100, htmlEscape(order.Reference))
}

func htmlEscape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)
	return replacer.Replace(s)
}
