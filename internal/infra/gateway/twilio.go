package gateway

import (
	"context"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/totegamma/guardiansos/client"
	"github.com/totegamma/guardiansos/internal/domain"
)

const twilioBaseURL = "https://api.twilio.com"

type TwilioConfig struct {
	AccountSID          string
	AuthToken           string
	MessagingServiceSID string
	From                string
	BaseURL             string
}

// TwilioGateway sends SMS through the Twilio Messages API.
type TwilioGateway struct {
	client *client.Client
	config TwilioConfig
}

func NewTwilioGateway(cl *client.Client, config TwilioConfig) *TwilioGateway {
	if config.BaseURL == "" {
		config.BaseURL = twilioBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	return &TwilioGateway{client: cl, config: config}
}

func (g *TwilioGateway) configured() bool {
	return g.config.AccountSID != "" && g.config.AuthToken != "" &&
		(g.config.MessagingServiceSID != "" || g.config.From != "")
}

func (g *TwilioGateway) SendSMS(ctx context.Context, to string, msg domain.Message) error {
	ctx, span := tracer.Start(ctx, "Gateway.Twilio.SendSMS")
	defer span.End()

	if !g.configured() {
		return errors.Wrap(ErrNotConfigured, "twilio")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("Body", msg.Text)
	if g.config.MessagingServiceSID != "" {
		form.Set("MessagingServiceSid", g.config.MessagingServiceSID)
	} else {
		form.Set("From", g.config.From)
	}

	endpoint := g.config.BaseURL + "/2010-04-01/Accounts/" + url.PathEscape(g.config.AccountSID) + "/Messages.json"
	err := g.client.PostForm(ctx, endpoint, form, client.Options{
		Username: g.config.AccountSID,
		Password: g.config.AuthToken,
	}, nil)
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, "twilio send failed")
	}
	return nil
}
