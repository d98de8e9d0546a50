package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	contractx "github.com/raven-dev-ops/Executive-Assistant-AI-SaaS/agent/contract"
)

const defaultTwilioHost = "api.twilio.com"

type Config struct {
	TwilioAccountSID string        `envconfig:"ACCOUNT_SID"`
	TwilioAuthToken  string        `envconfig:"AUTH_TOKEN"`
	TwilioFrom       string        `envconfig:"FROM"`
	TwilioBaseURL    string        `envconfig:"BASE_URL" default:"https://api.twilio.com"`
	Timeout          time.Duration `split_words:"true" default:"10s"`
}

func (c Config) TwilioEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}

// New returns a Twilio notifier when credentials are set and a log-only notifier otherwise.
func New(cfg Config) contractx.Notifier {
	if cfg.TwilioEnabled() {
		return NewTwilio(cfg)
	}
	log.Info().Msg("twilio credentials not set, follow-up texts will only be logged")
	return Log{}
}

// Log records messages instead of sending them.
type Log struct{}

func (Log) SendSMS(_ context.Context, to, body string) error {
	log.Info().Str("to", to).Str("body", body).Msg("sms (not sent)")
	return nil
}

// Twilio sends SMS through the twilio-go Messages resource.
type Twilio struct {
	rest *twilio.RestClient
	from string
}

func NewTwilio(cfg Config) *Twilio {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}
	if base, err := url.Parse(strings.TrimSpace(cfg.TwilioBaseURL)); err == nil && base.Host != "" && base.Host != defaultTwilioHost {
		httpClient.Transport = rebase{base: base, next: http.DefaultTransport}
	}

	c := &twclient.Client{
		Credentials: twclient.NewCredentials(cfg.TwilioAccountSID, cfg.TwilioAuthToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(cfg.TwilioAccountSID)

	return &Twilio{
		rest: twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}),
		from: cfg.TwilioFrom,
	}
}

func (t *Twilio) SendSMS(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("sms recipient is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	msg, err := t.rest.Api.CreateMessage(params)
	if err != nil {
		var restErr *twclient.TwilioRestError
		if errors.As(err, &restErr) {
			return fmt.Errorf("send sms: twilio %d: %s", restErr.Code, restErr.Message)
		}
		return fmt.Errorf("send sms: %w", err)
	}
	if msg != nil && msg.Sid != nil {
		log.Debug().Str("message_sid", *msg.Sid).Msg("sms queued")
	}
	return nil
}

// rebase points the SDK at a different API host, e.g. a local test server.
type rebase struct {
	base *url.URL
	next http.RoundTripper
}

func (r rebase) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = r.base.Scheme
	out.URL.Host = r.base.Host
	out.Host = r.base.Host
	return r.next.RoundTrip(out)
}
