// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

const sendTimeout = 30 * time.Second

// Sender delivers a rendered email
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders and sends customer emails
type EmailService struct {
	config    *config.Config
	sender    Sender
	templates map[EmailType]*template.Template
	logger    *logrus.Logger
	wg        sync.WaitGroup
}

// NewEmailService creates an email service sending through SMTP
func NewEmailService(cfg *config.Config, logger *logrus.Logger) *EmailService {
	return NewEmailServiceWithSender(cfg, NewSMTPSender(cfg), logger)
}

// NewEmailServiceWithSender creates an email service on a custom sender
func NewEmailServiceWithSender(cfg *config.Config, sender Sender, logger *logrus.Logger) *EmailService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EmailService{
		config: cfg,
		sender: sender,
		templates: map[EmailType]*template.Template{
			EmailTypeOrderConfirmation: template.Must(template.New("order_confirmation").Parse(orderConfirmationTemplate)),
		},
		logger: logger,
	}
}

// OrderPlaced renders the confirmation for o and sends it in the background.
// Rendering errors are returned; delivery errors are logged.
func (s *EmailService) OrderPlaced(ctx context.Context, o *order.Order) error {
	email, err := s.OrderConfirmationEmail(o)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()

		if err := s.sender.Send(sendCtx, email); err != nil {
			s.logger.WithError(err).WithField("order_id", o.ID).Error("failed to send order confirmation email")
			return
		}
		s.logger.WithField("order_id", o.ID).Info("order confirmation email sent")
	}()
	return nil
}

// Wait blocks until every background send has finished
func (s *EmailService) Wait() {
	s.wg.Wait()
}

// OrderConfirmationEmail builds the confirmation email for o
func (s *EmailService) OrderConfirmationEmail(o *order.Order) (*Email, error) {
	data := OrderConfirmationData{
		EmailTemplateData: GetBaseTemplateData(
			s.config.App.StoreName,
			s.config.App.StoreEmail,
			o.CustomerName,
			o.CustomerEmail,
		),
		OrderID:    o.ID,
		OrderDate:  o.CreatedAt.Format("January 2, 2006 15:04 MST"),
		OrderTotal: o.Total.StringFixed(2),
		Currency:   s.config.App.Currency,
		Items:      make([]OrderItem, 0, len(o.Items)),
	}
	for _, item := range o.Items {
		data.Items = append(data.Items, OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Total:    item.Subtotal.StringFixed(2),
		})
	}

	htmlContent, err := s.renderTemplate(EmailTypeOrderConfirmation, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	return &Email{
		To:          []string{o.CustomerEmail},
		Subject:     fmt.Sprintf("%s order confirmation - %s", s.config.App.StoreName, o.ID),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderConfirmation,
	}, nil
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(emailType EmailType, data interface{}) (string, error) {
	tmpl, exists := s.templates[emailType]
	if !exists {
		return "", fmt.Errorf("template %s not found", emailType)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", emailType, err)
	}
	return buf.String(), nil
}

const orderConfirmationTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Order {{.OrderID}}</title>
</head>
<body style="font-family: Arial, sans-serif; color: #333;">
    <h2>Thank you for your order, {{.UserName}}!</h2>
    <p>Order <strong>{{.OrderID}}</strong> was placed on {{.OrderDate}}.</p>
    <table style="width: 100%; border-collapse: collapse;">
        <thead>
            <tr>
                <th align="left">Item</th>
                <th align="right">Qty</th>
                <th align="right">Price</th>
                <th align="right">Subtotal</th>
            </tr>
        </thead>
        <tbody>
            {{range .Items}}
            <tr>
                <td>{{.Name}}</td>
                <td align="right">{{.Quantity}}</td>
                <td align="right">{{.Price}}</td>
                <td align="right">{{.Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>
    <p><strong>Total: {{.OrderTotal}} {{.Currency}}</strong></p>
    <p>Questions? Contact us at {{.SupportEmail}}.</p>
    <p style="font-size: 12px; color: #888;">&copy; {{.Year}} {{.StoreName}}</p>
</body>
</html>`
