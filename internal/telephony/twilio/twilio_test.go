package twilio

import (
	"context"
	"errors"
	"strings"
	"testing"

	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/acme/coldcall-agent/internal/config"
	"github.com/acme/coldcall-agent/internal/telephony"
	apperrors "github.com/acme/coldcall-agent/pkg/errors"
)

type fakeAPI struct {
	params *twilioApi.CreateCallParams
	err    error
}

func (f *fakeAPI) CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "CA123"
	return &twilioApi.ApiV2010Call{Sid: &sid}, nil
}

func testProvider(api callCreator) *Provider {
	return newProvider(api, config.TelephonyConfig{WebhookBaseURL: "https://agent.example.com/"}, nil)
}

func TestInitiateCall(t *testing.T) {
	api := &fakeAPI{}
	p := testProvider(api)

	sid, err := p.InitiateCall(context.Background(), telephony.CallConfig{
		SessionID:  "s1",
		From:       "+15550001111",
		To:         "+1 (555) 111-2222",
		AgentVoice: "professional-male",
	})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if sid != "CA123" {
		t.Fatalf("unexpected sid %q", sid)
	}
	if *api.params.To != "+15551112222" || *api.params.From != "+15550001111" {
		t.Fatalf("unexpected numbers %s %s", *api.params.To, *api.params.From)
	}
	if *api.params.Url != "https://agent.example.com/webhooks/voice/s1" {
		t.Fatalf("unexpected voice url %s", *api.params.Url)
	}
	if *api.params.StatusCallback != "https://agent.example.com/webhooks/voice/s1/status" {
		t.Fatalf("unexpected status url %s", *api.params.StatusCallback)
	}
	if p.voice("s1") != "Polly.Matthew" {
		t.Fatalf("voice not remembered for session")
	}
}

func TestInitiateCallErrors(t *testing.T) {
	p := testProvider(&fakeAPI{})
	if _, err := p.InitiateCall(context.Background(), telephony.CallConfig{SessionID: "s1", To: "12345"}); !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	p = testProvider(&fakeAPI{err: errors.New("boom")})
	if _, err := p.InitiateCall(context.Background(), telephony.CallConfig{SessionID: "s1", To: "5551112222"}); !errors.Is(err, apperrors.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestRenderReply(t *testing.T) {
	p := testProvider(&fakeAPI{})

	out, err := p.RenderReply("s1", telephony.Reply{Text: "Hi there, do you have a moment?"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"<Gather", `input="dtmf speech"`, "https://agent.example.com/webhooks/voice/s1?turn=1", "Hi there, do you have a moment?", "Polly.Joanna", "<Redirect"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %s", want, out)
		}
	}
	if strings.Contains(out, "<Hangup") {
		t.Fatalf("ongoing turn must not hang up: %s", out)
	}

	out, err = p.RenderReply("s1", telephony.Reply{Text: "Goodbye!", Hangup: true})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<Hangup") || strings.Contains(out, "<Gather") {
		t.Fatalf("expected say and hangup only: %s", out)
	}
}
