package conversation

import (
	"fmt"
	"strings"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/pricebook"
)

const personaPrompt = `You are %s, a sales representative placing an outbound call for an AI call-handling service. Speak like a friendly, professional human: short, clear sentences and natural phrasing.

Service:
* We answer and make phone calls for local businesses, 24/7, and never miss a call.
* We capture leads, book appointments, and qualify callers.
* We integrate with calendars and send call summaries by SMS or email.

Pricing:
%s
Pricing behavior:
* When asked about price, briefly describe Starter, Growth and Scale and the pay-as-you-go option.
* Recommend Growth (%s, %d calls, up to %d numbers) for most active businesses unless they clearly fit Starter or Scale.
* They can start small, upgrade later, and cancel anytime. Overages can be paid per call.

Style and turn-taking:
* Keep every reply to 2-3 sentences and ask at most one question.
* Answer questions directly, then add one helpful detail.
* If they seem confused, ask a clarifying question instead of talking over them.
* Stop after you speak and let the prospect respond.

Call goals:
* Learn what kind of business they run and their call volume.
* Find out whether they miss calls or have long hold times.
* Explain how the AI receptionist helps, then offer a demo or free trial and collect an email if interested.
* If they clearly say no, thank them and end politely.

Common questions:
* "Can I start smaller?" Starter is %s, or pay as you go at %s per call.
* "What does the AI do?" It answers calls naturally, captures details, books appointments and qualifies leads.
`

func systemPrompt(agent string, bc domain.BusinessContext, state domain.ConversationState) string {
	growth := pricebook.MustGet(pricebook.PlanGrowth)
	starter := pricebook.MustGet(pricebook.PlanStarter)

	var b strings.Builder
	fmt.Fprintf(&b, personaPrompt, agent, pricebook.PricingSummary(),
		growth.PriceLine(), growth.IncludedCalls, growth.Numbers,
		starter.PriceLine(), pricebook.FormatPerCall())

	b.WriteString("\nProspect:\n")
	writeField(&b, "Company", bc.CompanyName)
	writeField(&b, "Business type", bc.BusinessType)
	writeField(&b, "Industry", bc.Industry)
	writeField(&b, "Location", bc.Location)
	writeField(&b, "Size", bc.Size)
	writeField(&b, "Known", bc.KnownInfo)
	writeField(&b, "Contact name", state.ProspectName)

	fmt.Fprintf(&b, "\nCurrent stage: %s\nInterest level: %s\nPain points: %s\nObjections: %s\n",
		state.Stage, state.InterestLevel, joinTags(state.PainPoints), joinTags(state.Objections))
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(b, "* %s: %s\n", label, value)
	}
}

func joinTags[T ~string](tags []T) string {
	if len(tags) == 0 {
		return "none yet"
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// fallbackReply is spoken when the model cannot answer a turn.
func fallbackReply(sig Signals, agent string) string {
	switch {
	case sig.Intents.NotInterested || (sig.Intents.Decline && !sig.Intents.Busy):
		return "I completely understand. I won't take up any more of your time. Thank you, and have a great day!"
	case sig.Intents.Busy:
		return "I completely understand you're busy. Would it be better if I called back at a different time?"
	case sig.Intents.Greeting || sig.Intents.Affirmative:
		return fmt.Sprintf("Hi there! Thanks for taking my call. My name is %s, and I'm calling because I think an AI receptionist could help your business catch every call. Do you have a moment to chat?", agent)
	default:
		starter := pricebook.MustGet(pricebook.PlanStarter)
		return fmt.Sprintf("Let me tell you a bit more. Our AI receptionist works around the clock, never misses a call, and plans start at %s. Would you like to hear more?", starter.PriceLine())
	}
}
