package gateway

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/totegamma/guardiansos/client"
	"github.com/totegamma/guardiansos/internal/domain"
)

const smsLocalBaseURL = "https://www.smslocal.com/dev/bulkV2"

type SMSLocalConfig struct {
	APIKey  string
	Sender  string
	BaseURL string
}

// SMSLocalGateway sends SMS through the SMS Local bulk API.
type SMSLocalGateway struct {
	client *client.Client
	config SMSLocalConfig
}

func NewSMSLocalGateway(cl *client.Client, config SMSLocalConfig) *SMSLocalGateway {
	if config.BaseURL == "" {
		config.BaseURL = smsLocalBaseURL
	}
	return &SMSLocalGateway{client: cl, config: config}
}

// numbers are sent as digits only, country code included.
func smsLocalNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (g *SMSLocalGateway) SendSMS(ctx context.Context, to string, msg domain.Message) error {
	ctx, span := tracer.Start(ctx, "Gateway.SMSLocal.SendSMS")
	defer span.End()

	if g.config.APIKey == "" {
		return errors.Wrap(ErrNotConfigured, "smslocal")
	}

	body := map[string]any{
		"route":   "q",
		"message": msg.Text,
		"numbers": smsLocalNumber(to),
	}
	if g.config.Sender != "" {
		body["sender_id"] = g.config.Sender
	}

	err := g.client.PostJSON(ctx, g.config.BaseURL, body, client.Options{
		Header: map[string]string{"Authorization": g.config.APIKey},
	}, nil)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "smslocal send failed")
	}
	return nil
}
