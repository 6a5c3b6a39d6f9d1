package delivery

import (
	"context"
	"fmt"

	"github.com/go-consult-nosql/internal/domain"
	"github.com/go-consult-nosql/internal/infrastructure/smtp"
	"github.com/go-consult-nosql/internal/infrastructure/sns"
)

// Sender routes a verification code to the contact's channel: SMTP for
// email contacts, SNS for phone contacts. Either backend may be nil, in
// which case sends to that channel fail and the caller decides how loudly
// to complain.
type Sender struct {
	mailer smtp.Mailer
	sms    sns.SMSSender
}

func NewSender(mailer smtp.Mailer, sms sns.SMSSender) *Sender {
	return &Sender{mailer: mailer, sms: sms}
}

func (s *Sender) Send(ctx context.Context, contact domain.Contact, code string) error {
	switch contact.Kind {
	case domain.ContactEmail:
		if s.mailer == nil {
			return fmt.Errorf("no mailer configured")
		}
		return s.mailer.SendEmail(contact.Value, "Your verification code", "Your verification code: "+code)
	case domain.ContactPhone:
		if s.sms == nil {
			return fmt.Errorf("no SMS sender configured")
		}
		return s.sms.SendSMS(ctx, contact.Value, "Your verification code: "+code)
	default:
		return fmt.Errorf("unknown contact kind %q", contact.Kind)
	}
}
