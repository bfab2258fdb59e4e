package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// ComprehensionAdapter configures the check-in where a mentor confirms the
// learner understood the project before starting work.
type ComprehensionAdapter struct {
	Metadata          Metadata             `json:"metadata" yaml:"metadata"`
	Mentor            Persona              `json:"mentor" yaml:"mentor"`
	Topics            []ComprehensionTopic `json:"topics" yaml:"topics"`
	ConversationStyle ConversationStyle    `json:"conversationStyle" yaml:"conversationStyle"`
	ToneModifier      string               `json:"toneModifier" yaml:"toneModifier"`
	ClosingCriteria   ClosingCriteria      `json:"closingCriteria" yaml:"closingCriteria"`
	Understanding     Understanding        `json:"understanding" yaml:"understanding"`
	CompletionCTA     CompletionCTA        `json:"completionCta" yaml:"completionCta"`
}

type ComprehensionTopic struct {
	ID                    string `json:"id" yaml:"id"`
	Label                 string `json:"label" yaml:"label"`
	ExpectedUnderstanding string `json:"expectedUnderstanding" yaml:"expectedUnderstanding"`
}

type ClosingCriteria struct {
	MinUserMessages int `json:"minUserMessages" yaml:"minUserMessages"`
	MaxTurns        int `json:"maxTurns" yaml:"maxTurns"`

	// TopicsCovered is how many topics must come up before the mentor
	// offers to wrap up.
	TopicsCovered int `json:"topicsCovered" yaml:"topicsCovered"`
}

type Understanding struct {
	Depth          string `json:"depth" yaml:"depth"`
	AllowGaps      bool   `json:"allowGaps" yaml:"allowGaps"`
	ProbeFollowUps bool   `json:"probeFollowUps" yaml:"probeFollowUps"`
}

type CompletionCTA struct {
	Label   string `json:"label" yaml:"label"`
	Message string `json:"message" yaml:"message"`
}

var comprehensionRules = []compose.Rule{
	{Path: "topics", Strategy: compose.Override},
	{Path: "conversationStyle.maxReplyLength", Strategy: compose.Clamp, Min: 40, Max: 400},
	{Path: "toneModifier", Strategy: compose.Tone, Source: "conversationStyle.tone"},
	{Path: "closingCriteria.minUserMessages", Strategy: compose.Clamp, Min: 1, Max: compose.Unbounded},
	{Path: "closingCriteria.maxTurns", Strategy: compose.Clamp, Min: 1, Max: compose.Unbounded},
}

var comprehensionRequired = []string{
	"metadata.description",
	"mentor.name",
	"topics",
	"closingCriteria.maxTurns",
	"toneModifier",
	"completionCta.label",
}

// Comprehension composes the comprehension check adapter.
func (s *Service) Comprehension(role, level string) (ComprehensionAdapter, error) {
	var a ComprehensionAdapter
	sel, err := s.decode(DomainComprehension, role, level, "", &a)
	if err != nil {
		return ComprehensionAdapter{}, err
	}
	a.Metadata.stamp(sel)
	if a.ClosingCriteria.MinUserMessages > a.ClosingCriteria.MaxTurns {
		a.ClosingCriteria.MinUserMessages = a.ClosingCriteria.MaxTurns
	}
	return a, nil
}

func GetComprehensionAdapter(role, level string) ComprehensionAdapter {
	a, err := mustDefault().Comprehension(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
