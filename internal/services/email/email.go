package email

import (
	"fmt"
	"net/smtp"

	"github.com/stampeo/backend/internal/config"
)

// EmailService sends merchant-facing emails. Invoked only from queue
// jobs, never from a request handler.
type EmailService struct {
	cfg config.SMTPConfig
}

// NewEmailService creates a new email service
func NewEmailService(cfg config.SMTPConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// SendRewardUnlockedEmail tells the merchant owner a customer just
// unlocked a reward.
func (s *EmailService) SendRewardUnlockedEmail(toEmail, merchantName, customerName string, tier int) error {
	subject := fmt.Sprintf("%s unlocked a tier %d reward at %s", customerName, tier, merchantName)
	body := fmt.Sprintf(
		"<p>%s just unlocked a tier %d reward at %s.</p><p>They can redeem it on their next visit.</p>",
		customerName, tier, merchantName)
	return s.sendEmail(toEmail, subject, body)
}

// SendReferralCompletedEmail tells the merchant owner a referral
// completed and a referrer voucher was minted.
func (s *EmailService) SendReferralCompletedEmail(toEmail, merchantName, reward string) error {
	subject := fmt.Sprintf("A referral completed at %s", merchantName)
	body := fmt.Sprintf(
		"<p>A referred customer used their welcome voucher at %s.</p><p>The referrer just received: %s.</p>",
		merchantName, reward)
	return s.sendEmail(toEmail, subject, body)
}

// sendEmail sends an HTML email via SMTP
func (s *EmailService) sendEmail(toEmail, subject, body string) error {
	if s.cfg.Host == "" {
		// SMTP not configured (local development); skip silently.
		return nil
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.FromEmail, toEmail, subject, body))

	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := smtp.SendMail(addr, auth, s.cfg.FromEmail, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
