// cmd/api/smtp_check.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/your-org/storefront-backend/internal/pkg/email"
)

func runEmailTest(ctx context.Context, to string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.EmailEnabled() {
		return errors.New("SMTP_HOST is not set")
	}

	ctx, cancel := context.WithTimeout(contextOrBackground(ctx), 30*time.Second)
	defer cancel()

	testEmail := &email.Email{
		To:          []string{to},
		Subject:     fmt.Sprintf("Test email from %s", cfg.App.StoreName),
		HTMLContent: "<h1>Success!</h1><p>SMTP delivery is working.</p>",
		Type:        email.EmailTypeTest,
	}

	if err := email.NewSMTPSender(cfg).Send(ctx, testEmail); err != nil {
		return fmt.Errorf("SMTP failed: %w", err)
	}

	log.WithField("to", to).Info("✅ Test email sent")
	return nil
}
