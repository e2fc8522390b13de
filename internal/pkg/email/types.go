// internal/pkg/email/types.go
package email

import (
	"time"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
	EmailTypeTest              EmailType = "test"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
}

// EmailTemplateData contains common data for all email templates
type EmailTemplateData struct {
	StoreName    string `json:"store_name"`
	SupportEmail string `json:"support_email"`
	UserName     string `json:"user_name"`
	UserEmail    string `json:"user_email"`
	Year         int    `json:"year"`
}

// OrderConfirmationData contains data for order confirmation email
type OrderConfirmationData struct {
	EmailTemplateData
	OrderID    string      `json:"order_id"`
	OrderDate  string      `json:"order_date"`
	OrderTotal string      `json:"order_total"`
	Currency   string      `json:"currency"`
	Items      []OrderItem `json:"items"`
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Total    string `json:"total"`
}

// GetBaseTemplateData returns common template data
func GetBaseTemplateData(storeName, supportEmail, userName, userEmail string) EmailTemplateData {
	return EmailTemplateData{
		StoreName:    storeName,
		SupportEmail: supportEmail,
		UserName:     userName,
		UserEmail:    userEmail,
		Year:         time.Now().Year(),
	}
}
