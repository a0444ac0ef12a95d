// Package twilio places calls through the Twilio REST API and renders TwiML replies for its webhooks.
package twilio

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"github.com/acme/coldcall-agent/internal/config"
	"github.com/acme/coldcall-agent/internal/discovery"
	"github.com/acme/coldcall-agent/internal/telephony"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
	"github.com/acme/coldcall-agent/pkg/logger"
)

// callCreator is the slice of the Twilio API the provider uses.
type callCreator interface {
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

// Provider implements telephony.Provider on Twilio programmable voice.
type Provider struct {
	api           callCreator
	baseURL       string
	speechTimeout string
	log           *logger.Logger

	mu     sync.Mutex
	voices map[string]string
}

var _ telephony.Provider = (*Provider)(nil)

// NewProvider builds a Twilio provider from configuration.
func NewProvider(cfg config.TelephonyConfig, log *logger.Logger) *Provider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newProvider(client.Api, cfg, log)
}

func newProvider(api callCreator, cfg config.TelephonyConfig, log *logger.Logger) *Provider {
	if log == nil {
		log = logger.NewNop()
	}
	timeout := cfg.SpeechTimeout
	if timeout == "" {
		timeout = "auto"
	}
	return &Provider{
		api:           api,
		baseURL:       strings.TrimRight(cfg.WebhookBaseURL, "/"),
		speechTimeout: timeout,
		log:           log.Named("twilio"),
		voices:        make(map[string]string),
	}
}

// VoiceURL is the webhook Twilio calls for answer and speech events of a session.
func (p *Provider) VoiceURL(sessionID string) string {
	return fmt.Sprintf("%s/webhooks/voice/%s", p.baseURL, sessionID)
}

// StatusURL is the status callback of a session.
func (p *Provider) StatusURL(sessionID string) string {
	return p.VoiceURL(sessionID) + "/status"
}

// InitiateCall implements telephony.Provider.
func (p *Provider) InitiateCall(ctx context.Context, cfg telephony.CallConfig) (string, error) {
	to, ok := discovery.E164(cfg.To)
	if !ok {
		return "", fmt.Errorf("%w: invalid destination %q", apperrors.ErrValidation, cfg.To)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(cfg.From)
	params.SetUrl(p.VoiceURL(cfg.SessionID))
	params.SetMethod("POST")
	params.SetStatusCallback(p.StatusURL(cfg.SessionID))
	params.SetStatusCallbackEvent([]string{"completed"})
	params.SetStatusCallbackMethod("POST")

	resp, err := p.api.CreateCall(params)
	if err != nil {
		return "", fmt.Errorf("%w: twilio create call: %v", apperrors.ErrUnavailable, err)
	}
	if resp == nil || resp.Sid == nil {
		return "", fmt.Errorf("%w: twilio returned no call sid", apperrors.ErrUnavailable)
	}

	p.mu.Lock()
	p.voices[cfg.SessionID] = voiceFor(cfg.AgentVoice)
	p.mu.Unlock()

	p.log.WithContext(ctx).Info("call created",
		zap.String("session_id", cfg.SessionID),
		zap.String("call_sid", *resp.Sid),
	)
	return *resp.Sid, nil
}

// Forget drops per-session rendering state once a call is over.
func (p *Provider) Forget(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.voices, sessionID)
}

func (p *Provider) voice(sessionID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v, ok := p.voices[sessionID]; ok {
		return v
	}
	return voiceFor("")
}

// voiceFor maps agent voice settings onto Twilio's Amazon Polly voices. Unknown values pass through.
func voiceFor(setting string) string {
	switch setting {
	case "", "professional-female":
		return "Polly.Joanna"
	case "professional-male":
		return "Polly.Matthew"
	case "friendly-female":
		return "Polly.Salli"
	case "friendly-male":
		return "Polly.Joey"
	default:
		return setting
	}
}
