package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// TeamIntroAdapter configures the one-on-one introductions with teammates.
type TeamIntroAdapter struct {
	Metadata          Metadata          `json:"metadata" yaml:"metadata"`
	Personas          []Persona         `json:"personas" yaml:"personas"`
	Topics            []IntroTopic      `json:"topics" yaml:"topics"`
	MaxTopics         int               `json:"maxTopics" yaml:"maxTopics"`
	ConversationStyle ConversationStyle `json:"conversationStyle" yaml:"conversationStyle"`
	ToneModifier      string            `json:"toneModifier" yaml:"toneModifier"`
	ClosingChecklist  ClosingChecklist  `json:"closingChecklist" yaml:"closingChecklist"`
}

type IntroTopic struct {
	ID       string `json:"id" yaml:"id"`
	Persona  string `json:"persona" yaml:"persona"`
	Question string `json:"question" yaml:"question"`
	Why      string `json:"why" yaml:"why"`
}

// ConversationStyle is shared by the team intro and comprehension chats.
type ConversationStyle struct {
	Tone           string `json:"tone" yaml:"tone"`
	Verbosity      string `json:"verbosity" yaml:"verbosity"`
	ExplainJargon  bool   `json:"explainJargon" yaml:"explainJargon"`
	ProactiveTips  bool   `json:"proactiveTips" yaml:"proactiveTips"`
	MaxReplyLength int    `json:"maxReplyLength" yaml:"maxReplyLength"`
}

type ClosingChecklist struct {
	MustShareTopics int      `json:"mustShareTopics" yaml:"mustShareTopics"`
	Items           []string `json:"items" yaml:"items"`
	ClosingMessage  string   `json:"closingMessage" yaml:"closingMessage"`
}

var teamIntroRules = []compose.Rule{
	{Path: "topics", Strategy: compose.Cap, Source: "maxTopics"},
	{Path: "conversationStyle.maxReplyLength", Strategy: compose.Clamp, Min: 40, Max: 400},
	{Path: "toneModifier", Strategy: compose.Tone, Source: "conversationStyle.tone"},
	{Path: "closingChecklist.mustShareTopics", Strategy: compose.Clamp, Min: 1, Max: 10},
}

var teamIntroRequired = []string{
	"metadata.description",
	"personas",
	"topics",
	"conversationStyle.tone",
	"toneModifier",
}

// TeamIntro composes the team introduction adapter.
func (s *Service) TeamIntro(role, level string) (TeamIntroAdapter, error) {
	var a TeamIntroAdapter
	sel, err := s.decode(DomainTeamIntro, role, level, "", &a)
	if err != nil {
		return TeamIntroAdapter{}, err
	}
	a.Metadata.stamp(sel)
	return a, nil
}

func GetTeamIntroAdapter(role, level string) TeamIntroAdapter {
	a, err := mustDefault().TeamIntro(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
