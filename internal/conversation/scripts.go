package conversation

import (
	"fmt"
	"strings"

	"github.com/acme/coldcall-agent/internal/domain"
	"github.com/acme/coldcall-agent/internal/pricebook"
)

const (
	defaultPrompt = "Sorry, I didn't quite catch that. Could you tell me a little about how your business handles incoming calls today?"

	gatekeeperPivot = "I completely understand, and I'll be quick. Is there someone there who looks after the phones or scheduling that I could speak with?"

	politeGoodbye = "No problem at all, I won't take any more of your time. Thanks, and have a great day!"

	existingSolutionRebuttal = "That's great that you already have something in place. A lot of our customers switched because their old setup still sent callers to voicemail after hours or during rush periods. What do you like least about your current setup?"

	proofPoint = "Here's a quick example. A medical practice we work with was missing about 30% of its calls. In the first month with our AI receptionist they booked 25% more appointments. Would results like that make a difference for you?"

	demoOffer = "Wonderful. The easiest way to see it is a quick 15-minute demo with one of our specialists. Would you like me to set that up?"

	notInterestedDiagnostic = "I understand. Can I ask, is it that missed calls aren't really an issue for you, or is it more the timing?"

	followUpAck = "Of course, take your time. I'll send a short summary and check back with you in a few days."

	reengage = "That makes sense. What most owners like is that there's no contract and you can start small. If I could show you exactly how it would handle your calls, would a quick demo be worth 15 minutes?"

	scheduleDemoReply = "Excellent! I'll get that demo on the calendar. What's the best email address to send the invite to?"

	sendInfoReply = "Perfect, I'll email the details over today so you can look them over."

	closeDeferralReply = "No problem. I'll follow up with you in a few days."

	closeDeclineReply = "Understood, I appreciate your time. Have a great day!"

	closeOffer = "Would it help if I sent some information over by email, or is there a better time for me to call back?"

	wrapUpReply = "Thanks again for your time today. We'll be in touch soon."
)

var painPointLines = map[domain.PainPoint]string{
	domain.PainMissedCalls:   "You mentioned missing calls. Our AI receptionist picks up every call, day or night, so no customer ends up in voicemail.",
	domain.PainCost:          fmt.Sprintf("Hiring a receptionist can run %s a month or more, and we handle the same calls for a fraction of that.", pricebook.FormatPrice(pricebook.ReceptionistMonthlyCost)),
	domain.PainAfterHours:    "We also cover evenings and weekends, when most phones go unanswered.",
	domain.PainSmallTeam:     "For a small team it's like adding a receptionist without adding payroll.",
	domain.PainMultiLanguage: "It talks with callers in English and Spanish, so nobody gets lost in translation.",
}

// Greeting is the first line spoken when a call connects, before the prospect has said anything.
func Greeting(agent, company string) string {
	if agent == "" {
		agent = defaultAgentName
	}
	if company == "" {
		return fmt.Sprintf("Hi, this is %s. Am I speaking with the owner or manager?", agent)
	}
	return fmt.Sprintf("Hi, this is %s. Am I speaking with the owner or manager of %s?", agent, company)
}

func opener(name, agent string, bc domain.BusinessContext) string {
	if name == "" {
		name = "there"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s, thanks for taking my call! My name is %s.", name, agent)
	switch {
	case bc.BusinessType != "" && bc.Location != "":
		fmt.Fprintf(&b, " I work with a lot of %s businesses around %s.", bc.BusinessType, bc.Location)
	case bc.Location != "":
		fmt.Fprintf(&b, " I work with a lot of businesses around %s.", bc.Location)
	case bc.BusinessType != "":
		fmt.Fprintf(&b, " I work with a lot of %s businesses.", bc.BusinessType)
	}
	b.WriteString(" We make sure every caller gets answered, even when the team is busy. How are you handling incoming calls right now, especially when you're with a customer?")
	return b.String()
}

func buildPitch(state domain.ConversationState) string {
	var b strings.Builder
	if len(state.PainPoints) == 0 {
		b.WriteString("Most businesses we talk to lose customers simply because nobody could get to the phone.")
	}
	for _, p := range state.PainPoints {
		if line, ok := painPointLines[p]; ok {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(line)
		}
	}
	if state.Location != "" {
		fmt.Fprintf(&b, " Businesses around %s are already using it to book more appointments.", state.Location)
	}
	b.WriteString(" It answers calls, books appointments, qualifies leads, and texts you a summary after every call.")

	starter := pricebook.MustGet(pricebook.PlanStarter)
	who := "your business"
	if state.CompanyName != "" {
		who = state.CompanyName
	}
	fmt.Fprintf(&b, " Plans start at %s, that's about %s a day. Would that kind of coverage be valuable for %s?",
		starter.PriceLine(), pricebook.FormatPrice(starter.DailyCost()), who)
	return b.String()
}

func tierRecital() string {
	var b strings.Builder
	monthly := pricebook.MonthlyPlans()
	fmt.Fprintf(&b, "Great question. We have %d plans.", len(monthly))
	for _, p := range monthly {
		fmt.Fprintf(&b, " %s is %s for up to %d calls, with %s.", p.Name, p.PriceLine(), p.IncludedCalls, joinFeatures(p.TopFeatures(3)))
	}
	fmt.Fprintf(&b, " There's also pay as you go at %s per call.", pricebook.FormatPerCall())
	b.WriteString(" Most businesses like yours save $3,000 to $5,000 a month compared with hiring staff. Which of those sounds like the best fit for you?")
	return b.String()
}

func priceRebuttal() string {
	starter := pricebook.MustGet(pricebook.PlanStarter)
	return fmt.Sprintf("I hear you on price. A receptionist typically costs around %s a month. Our Starter plan is %s, about %d%% less, and it never calls in sick. We also offer a 30-day free trial so you can see the results first. Would you like to hear which plan fits your call volume?",
		pricebook.FormatPrice(pricebook.ReceptionistMonthlyCost), pricebook.FormatPrice(starter.Price), pricebook.ReceptionistSavingsPercent())
}

func joinFeatures(features []string) string {
	lowered := make([]string, len(features))
	for i, f := range features {
		lowered[i] = strings.ToLower(f[:1]) + f[1:]
	}
	switch len(lowered) {
	case 0:
		return "the core features"
	case 1:
		return lowered[0]
	default:
		return strings.Join(lowered[:len(lowered)-1], ", ") + " and " + lowered[len(lowered)-1]
	}
}
