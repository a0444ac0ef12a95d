package conversation

import (
	"regexp"
	"strings"

	"github.com/acme/coldcall-agent/internal/domain"
)

// InterestDelta is the direction an utterance moves prospect interest.
type InterestDelta int

const (
	InterestUnchanged InterestDelta = iota
	InterestRaise
	InterestLower
)

// Intents are the coarse keyword matches found in an utterance.
type Intents struct {
	Greeting         bool
	Affirmative      bool
	Decline          bool
	Busy             bool
	ExistingSolution bool
	PricingInterest  bool
	Rejection        bool
	PriceConcern     bool
	NotInterested    bool
	Deferral         bool
	WantsInfo        bool
	WantsDemo        bool
}

// Signals is everything Classify extracts from one prospect utterance.
type Signals struct {
	Intents      Intents
	PainPoints   []domain.PainPoint
	Objections   []domain.Objection
	Interest     InterestDelta
	NextAction   domain.NextAction
	StageHint    domain.Stage
	ProspectName string
}

type painRule struct {
	tag      domain.PainPoint
	keywords []string
}

var (
	greetingWords      = []string{"hello", "hi", "hey", "good morning", "good afternoon", "speaking"}
	affirmativeWords   = []string{"yes", "yeah", "yep", "sure", "okay", "ok", "what is this about", "sounds good", "go ahead", "absolutely"}
	declineWords       = []string{"busy", "not interested", "don't call", "remove"}
	busyWords          = []string{"busy", "not a good time", "in a meeting", "call back"}
	existingWords      = []string{"already have", "using", "system", "service"}
	pricingWords       = []string{"interesting", "tell me more", "how much", "price", "cost"}
	rejectionWords     = []string{"not interested", "don't need", "too expensive"}
	priceConcernWords  = []string{"expensive", "cost", "price", "afford"}
	notInterestedWords = []string{"don't need", "not interested", "happy with"}
	deferralWords      = []string{"think about it", "later", "not right now", "call me back"}
	infoWords          = []string{"send", "email", "information", "info", "brochure"}
	demoWords          = []string{"demo", "schedule", "sign me up", "set it up", "book"}
	doNotCallWords     = []string{"don't call", "remove", "stop calling"}
	missedCallWords    = []string{"missed", "missing", "miss a lot", "miss calls", "can't answer", "don't answer", "voicemail"}

	painRules = []painRule{
		{domain.PainMissedCalls, append([]string{"busy"}, missedCallWords...)},
		{domain.PainCost, []string{"cost", "expensive", "hiring", "receptionist", "staff"}},
		{domain.PainAfterHours, []string{"after hours", "weekend", "evening", "closed", "off hours"}},
		{domain.PainSmallTeam, []string{"small", "just me", "solo", "owner"}},
		{domain.PainMultiLanguage, []string{"language", "spanish", "bilingual"}},
	}

	namePattern = regexp.MustCompile(`(?:this is|i'm|my name is|i am|speaking)\s+([a-z]+(?:\s+[a-z]+)?)`)
	wordPattern = regexp.MustCompile(`[a-z']+`)
)

// nameStopWords keeps phrases like "I'm busy" from being captured as a name.
var nameStopWords = map[string]bool{
	"busy": true, "not": true, "interested": true, "sorry": true, "good": true, "fine": true,
	"the": true, "a": true, "an": true, "just": true, "already": true, "using": true, "happy": true,
	"calling": true, "driving": true, "in": true, "on": true, "with": true, "here": true, "so": true,
	"afraid": true, "sure": true, "okay": true, "ok": true, "going": true, "looking": true, "all": true,
}

// Classify extracts intents, tags and hints from an utterance. It is pure and never fails.
func Classify(utterance string) Signals {
	text := strings.ToLower(strings.TrimSpace(utterance))
	var s Signals
	if text == "" {
		return s
	}

	s.Intents = Intents{
		Greeting:         containsAnyWord(text, greetingWords),
		Affirmative:      containsAnyWord(text, affirmativeWords),
		Decline:          containsAny(text, declineWords),
		Busy:             containsAny(text, busyWords),
		ExistingSolution: containsAny(text, existingWords),
		PricingInterest:  containsAny(text, pricingWords),
		Rejection:        containsAny(text, rejectionWords),
		PriceConcern:     containsAny(text, priceConcernWords),
		NotInterested:    containsAny(text, notInterestedWords),
		Deferral:         containsAny(text, deferralWords),
		WantsInfo:        containsAnyWord(text, infoWords),
		WantsDemo:        containsAnyWord(text, demoWords),
	}

	for _, rule := range painRules {
		if containsAny(text, rule.keywords) {
			s.PainPoints = append(s.PainPoints, rule.tag)
		}
	}

	if s.Intents.NotInterested || s.Intents.Rejection {
		s.Objections = append(s.Objections, domain.ObjectionNotInterested)
	}
	if s.Intents.PriceConcern && !s.Intents.PricingInterest {
		s.Objections = append(s.Objections, domain.ObjectionPrice)
	}
	if s.Intents.ExistingSolution {
		s.Objections = append(s.Objections, domain.ObjectionExistingSolution)
	}
	if s.Intents.Deferral {
		s.Objections = append(s.Objections, domain.ObjectionTiming)
	}

	switch {
	case s.Intents.NotInterested || s.Intents.Rejection || containsAny(text, doNotCallWords):
		s.Interest = InterestLower
	case s.Intents.PricingInterest || s.Intents.WantsDemo:
		s.Interest = InterestRaise
	case s.declined() && !containsAny(text, missedCallWords):
		// "I'm busy" on its own is about right now, not the phones.
		s.Interest = InterestLower
	case containsAny(text, painRules[0].keywords):
		s.Interest = InterestRaise
	}

	switch {
	case s.Intents.WantsDemo && !s.Intents.Rejection:
		s.NextAction = domain.NextActionScheduleDemo
		s.StageHint = domain.StageClose
	case s.Intents.Deferral:
		s.NextAction = domain.NextActionFollowUp
		s.StageHint = domain.StageFollowUp
	case s.Intents.WantsInfo && !s.Intents.Rejection:
		s.NextAction = domain.NextActionSendInfo
		s.StageHint = domain.StageClose
	case len(s.Objections) > 0:
		s.StageHint = domain.StageObjectionHandling
	case s.Intents.PricingInterest || len(s.PainPoints) > 0:
		s.StageHint = domain.StagePitch
	}

	s.ProspectName = extractName(text)
	return s
}

// declined reports a brush-off that carries no yes with it.
func (s Signals) declined() bool {
	return s.Intents.Decline && !s.Intents.Affirmative
}

func extractName(text string) string {
	m := namePattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	parts := strings.Fields(m[1])
	if len(parts) == 0 || nameStopWords[parts[0]] {
		return ""
	}
	if len(parts) == 2 && nameStopWords[parts[1]] {
		parts = parts[:1]
	}
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// containsAnyWord matches single-word phrases on word boundaries so "ok" does not match "book".
func containsAnyWord(text string, phrases []string) bool {
	words := wordPattern.FindAllString(text, -1)
	for _, p := range phrases {
		if strings.Contains(p, " ") {
			if strings.Contains(text, p) {
				return true
			}
			continue
		}
		for _, w := range words {
			if w == p {
				return true
			}
		}
	}
	return false
}
