package client

import (
	"context"
	"fmt"
	"io"
	"membership-api/internal/config"
	"membership-api/internal/model"

	"gopkg.in/gomail.v2"
)

type MailClient interface {
	Send(ctx context.Context, mail *model.Mail) error
}

type mailClientImpl struct {
	dialer *gomail.Dialer
	from   string
	name   string
}

func NewMailClient(cfg *config.SMTP) MailClient {
	return &mailClientImpl{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.SenderEmail,
		name:   cfg.SenderName,
	}
}

func (c *mailClientImpl) Send(ctx context.Context, mail *model.Mail) error {
	if mail.To == "" {
		return fmt.Errorf("send mail: empty recipient")
	}

	msg := BuildMessage(c.from, c.name, mail)

	done := make(chan error, 1)
	go func() {
		done <- c.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send mail to %s: %w", mail.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("send mail to %s: %w", mail.To, ctx.Err())
	}
}

// BuildMessage turns a mail into a MIME message with its attachments.
func BuildMessage(from, fromName string, mail *model.Mail) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", from, fromName)
	if mail.ToName != "" {
		msg.SetAddressHeader("To", mail.To, mail.ToName)
	} else {
		msg.SetHeader("To", mail.To)
	}
	msg.SetHeader("Subject", mail.Subject)
	msg.SetBody("text/html", mail.HTMLBody)

	for _, att := range mail.Attachments {
		content := att.Content
		msg.Attach(att.Filename,
			gomail.SetHeader(map[string][]string{"Content-Type": {att.ContentType}}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		)
	}

	return msg
}
