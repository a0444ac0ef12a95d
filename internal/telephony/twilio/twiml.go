package twilio

import (
	"fmt"

	"github.com/twilio/twilio-go/twiml"

	"github.com/acme/coldcall-agent/internal/telephony"
)

const silencePrompt = "Sorry, I didn't catch that. Are you still there?"

// RenderReply renders reply as TwiML for sessionID. Ongoing turns speak inside a Gather taking speech or keypad input that
// posts the next utterance back to the voice webhook; a hang-up reply speaks and ends the call.
func (p *Provider) RenderReply(sessionID string, reply telephony.Reply) (string, error) {
	say := twiml.VoiceSay{Message: reply.Text, Voice: p.voice(sessionID)}
	if reply.Hangup {
		return twiml.Voice([]twiml.Element{say, twiml.VoiceHangup{}})
	}

	next := p.VoiceURL(sessionID) + "?turn=1"
	gather := twiml.VoiceGather{
		Input:         "dtmf speech",
		Action:        next,
		Method:        "POST",
		SpeechTimeout: p.speechTimeout,
		InnerElements: []twiml.Element{say},
	}
	redirect := twiml.VoiceRedirect{Url: next, Method: "POST"}
	out, err := twiml.Voice([]twiml.Element{gather, redirect})
	if err != nil {
		return "", fmt.Errorf("render twiml: %w", err)
	}
	return out, nil
}

// RenderSilence renders a re-prompt for a Gather that heard nothing.
func (p *Provider) RenderSilence(sessionID string) (string, error) {
	return p.RenderReply(sessionID, telephony.Reply{Text: silencePrompt})
}
