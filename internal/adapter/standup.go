package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// StandupAdapter configures the daily standup.
type StandupAdapter struct {
	Metadata     Metadata          `json:"metadata" yaml:"metadata"`
	Prompts      StandupPrompts    `json:"prompts" yaml:"prompts"`
	Questions    []StandupQuestion `json:"questions" yaml:"questions"`
	MaxQuestions int               `json:"maxQuestions" yaml:"maxQuestions"`
	UI           StandupUIConfig   `json:"ui" yaml:"ui"`
	Feedback     StandupFeedback   `json:"feedback" yaml:"feedback"`
}

type StandupPrompts struct {
	SystemPrompt       string    `json:"systemPrompt" yaml:"systemPrompt"`
	FeedbackGuidance   string    `json:"feedbackGuidance" yaml:"feedbackGuidance"`
	Facilitator        Persona   `json:"facilitator" yaml:"facilitator"`
	RespondingPersonas []Persona `json:"respondingPersonas" yaml:"respondingPersonas"`
}

type StandupQuestion struct {
	ID          string `json:"id" yaml:"id"`
	Label       string `json:"label" yaml:"label"`
	Placeholder string `json:"placeholder" yaml:"placeholder"`
	HelpText    string `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Required    bool   `json:"required" yaml:"required"`
	MinLength   int    `json:"minLength,omitempty" yaml:"minLength,omitempty"`
}

type StandupUIConfig struct {
	ShowExamples          bool `json:"showExamples" yaml:"showExamples"`
	ShowProgressIndicator bool `json:"showProgressIndicator" yaml:"showProgressIndicator"`
	ShowTeamContext       bool `json:"showTeamContext" yaml:"showTeamContext"`
	EnableVoiceInput      bool `json:"enableVoiceInput" yaml:"enableVoiceInput"`
}

// StandupFeedback bounds how many teammates answer a standup update.
type StandupFeedback struct {
	MinResponses             int     `json:"minResponses" yaml:"minResponses"`
	MaxResponses             int     `json:"maxResponses" yaml:"maxResponses"`
	TypicalResponses         int     `json:"typicalResponses" yaml:"typicalResponses"`
	ResponseMultiplier       float64 `json:"responseMultiplier" yaml:"responseMultiplier"`
	Tone                     string  `json:"tone" yaml:"tone"`
	ToneModifier             string  `json:"toneModifier" yaml:"toneModifier"`
	IncludeActionItems       bool    `json:"includeActionItems" yaml:"includeActionItems"`
	IncludeFollowUpQuestions bool    `json:"includeFollowUpQuestions" yaml:"includeFollowUpQuestions"`
}

var standupRules = []compose.Rule{
	{Path: "prompts.systemPrompt", Strategy: compose.Append},
	{Path: "feedback.minResponses", Strategy: compose.Clamp, Min: 0, Max: 10},
	{Path: "feedback.maxResponses", Strategy: compose.Clamp, Min: 0, Max: 10},
	{Path: "questions", Strategy: compose.Cap, Source: "maxQuestions"},
	{Path: "feedback", Strategy: compose.Blend,
		Keys: []string{"minResponses", "maxResponses", "typicalResponses"}, Source: "feedback.responseMultiplier"},
	{Path: "feedback.toneModifier", Strategy: compose.Tone, Source: "feedback.tone"},
}

var standupRequired = []string{
	"metadata.description",
	"prompts.systemPrompt",
	"prompts.facilitator.name",
	"questions",
	"feedback.typicalResponses",
	"feedback.toneModifier",
}

// Standup composes the standup adapter.
func (s *Service) Standup(role, level string) (StandupAdapter, error) {
	var a StandupAdapter
	sel, err := s.decode(DomainStandup, role, level, "", &a)
	if err != nil {
		return StandupAdapter{}, err
	}
	a.Metadata.stamp(sel)
	return a, nil
}

func GetStandupAdapter(role, level string) StandupAdapter {
	a, err := mustDefault().Standup(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
