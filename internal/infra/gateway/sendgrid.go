package gateway

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/guardiansos/client"
	"github.com/totegamma/guardiansos/internal/domain"
)

var tracer = otel.Tracer("gateway")

const sendGridBaseURL = "https://api.sendgrid.com"

type SendGridConfig struct {
	APIKey   string
	From     string
	FromName string
	BaseURL  string
}

// SendGridGateway sends email through the SendGrid v3 mail API.
type SendGridGateway struct {
	client *client.Client
	config SendGridConfig
}

func NewSendGridGateway(cl *client.Client, config SendGridConfig) *SendGridGateway {
	if config.BaseURL == "" {
		config.BaseURL = sendGridBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.FromName == "" {
		config.FromName = "GuardianSOS"
	}
	return &SendGridGateway{client: cl, config: config}
}

type sendGridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendGridContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendGridPersonalization struct {
	To []sendGridAddress `json:"to"`
}

type sendGridMail struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	Subject          string                    `json:"subject"`
	Content          []sendGridContent         `json:"content"`
}

func (g *SendGridGateway) SendEmail(ctx context.Context, to string, msg domain.Message) error {
	ctx, span := tracer.Start(ctx, "Gateway.SendGrid.SendEmail")
	defer span.End()

	if g.config.APIKey == "" || g.config.From == "" {
		return errors.Wrap(ErrNotConfigured, "sendgrid")
	}

	mail := sendGridMail{
		From:    sendGridAddress{Email: g.config.From, Name: g.config.FromName},
		Subject: msg.Subject,
		Personalizations: []sendGridPersonalization{
			{To: []sendGridAddress{{Email: to}}},
		},
	}
	if msg.Text != "" {
		mail.Content = append(mail.Content, sendGridContent{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		mail.Content = append(mail.Content, sendGridContent{Type: "text/html", Value: msg.HTML})
	}

	err := g.client.PostJSON(ctx, g.config.BaseURL+"/v3/mail/send", mail, client.Options{
		Bearer: g.config.APIKey,
	}, nil)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "sendgrid send failed")
	}
	return nil
}
