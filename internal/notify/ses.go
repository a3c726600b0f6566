// Package notify sends confirmation emails for enrollment events.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"mergington-activities/internal/common/aws"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/models"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

type Config struct {
	FromEmail string
	Region    string
}

type template struct {
	subject string
	body    string
}

var templates = map[models.EnrollmentEventType]template{
	models.EnrollmentSignup: {
		subject: "You are signed up for {{activity}}",
		body:    "Hello,\n\n{{email}} is now signed up for {{activity}} at Mergington High School.\n",
	},
	models.EnrollmentUnregister: {
		subject: "You have left {{activity}}",
		body:    "Hello,\n\n{{email}} is no longer registered for {{activity}} at Mergington High School.\n",
	},
}

// Sender is satisfied by *aws.SESClient.
type Sender interface {
	SendText(ctx context.Context, from, to, subject, body string) (string, error)
}

// SESNotifier emails the student named in each event.
type SESNotifier struct {
	config *Config
	sender Sender
	logger logger.Logger
}

func NewSESNotifier(ctx context.Context, cfg *Config, log logger.Logger) (*SESNotifier, error) {
	client, err := aws.NewSESClient(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return NewSESNotifierWithSender(cfg, client, log), nil
}

func NewSESNotifierWithSender(cfg *Config, sender Sender, log logger.Logger) *SESNotifier {
	return &SESNotifier{
		config: cfg,
		sender: sender,
		logger: log.WithFields(map[string]interface{}{"sink": "email"}),
	}
}

func (n *SESNotifier) Record(ctx context.Context, event models.EnrollmentEvent) error {
	tmpl, ok := templates[event.Type]
	if !ok {
		return fmt.Errorf("%w: no template for event type %q", ErrNotificationSendFailed, event.Type)
	}

	data := map[string]string{
		"activity": event.Activity,
		"email":    event.Email,
	}
	subject := renderTemplate(tmpl.subject, data)
	body := renderTemplate(tmpl.body, data)

	messageID, err := n.sender.SendText(ctx, n.config.FromEmail, event.Email, subject, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationSendFailed, err)
	}

	n.logger.Debug("confirmation sent", map[string]interface{}{
		"eventId":   event.ID,
		"messageId": messageID,
		"activity":  event.Activity,
	})
	return nil
}

// renderTemplate replaces {{key}} placeholders and drops unknown ones.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return result
}
