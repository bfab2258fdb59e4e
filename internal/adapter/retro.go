package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// RetroAdapter configures the sprint retrospective.
type RetroAdapter struct {
	Metadata        Metadata           `json:"metadata" yaml:"metadata"`
	Facilitation    FacilitationConfig `json:"facilitation" yaml:"facilitation"`
	Prompts         RetroPrompts       `json:"prompts" yaml:"prompts"`
	UI              RetroUIConfig      `json:"ui" yaml:"ui"`
	ActionItems     ActionItemConfig   `json:"actionItems" yaml:"actionItems"`
	Evaluation      RetroEvaluation    `json:"evaluation" yaml:"evaluation"`
	StarterCards    []RetroCard        `json:"starterCards" yaml:"starterCards"`
	MaxStarterCards int                `json:"maxStarterCards" yaml:"maxStarterCards"`
}

type Facilitator struct {
	Persona            `yaml:",inline"`
	FacilitationStyle  string   `json:"facilitationStyle" yaml:"facilitationStyle"`
	FocusAreas         []string `json:"focusAreas" yaml:"focusAreas"`
	PromptingFrequency string   `json:"promptingFrequency" yaml:"promptingFrequency"`
}

// CardPrompt is one guided question shown for a card category.
type CardPrompt struct {
	Category        string `json:"category" yaml:"category"`
	Prompt          string `json:"prompt" yaml:"prompt"`
	Hint            string `json:"hint,omitempty" yaml:"hint,omitempty"`
	ExampleResponse string `json:"exampleResponse,omitempty" yaml:"exampleResponse,omitempty"`
}

type FacilitationConfig struct {
	Facilitator             Facilitator  `json:"facilitator" yaml:"facilitator"`
	ShowFacilitatorMessages bool         `json:"showFacilitatorMessages" yaml:"showFacilitatorMessages"`
	AutoSuggestCards        bool         `json:"autoSuggestCards" yaml:"autoSuggestCards"`
	GuidedQuestions         []CardPrompt `json:"guidedQuestions" yaml:"guidedQuestions"`
	MaxGuidedQuestions      int          `json:"maxGuidedQuestions" yaml:"maxGuidedQuestions"`
	MaxCardsPerCategory     int          `json:"maxCardsPerCategory" yaml:"maxCardsPerCategory"`
	VotingEnabled           bool         `json:"votingEnabled" yaml:"votingEnabled"`
	AnonymousCards          bool         `json:"anonymousCards" yaml:"anonymousCards"`
}

type RetroPrompts struct {
	SystemPrompt      string `json:"systemPrompt" yaml:"systemPrompt"`
	ReflectionPrompt  string `json:"reflectionPrompt" yaml:"reflectionPrompt"`
	ActionItemsPrompt string `json:"actionItemsPrompt" yaml:"actionItemsPrompt"`
	SummaryPrompt     string `json:"summaryPrompt" yaml:"summaryPrompt"`
}

type RetroUIConfig struct {
	ShowSprintContext    bool   `json:"showSprintContext" yaml:"showSprintContext"`
	ShowProgressBar      bool   `json:"showProgressBar" yaml:"showProgressBar"`
	ShowVoteCounts       bool   `json:"showVoteCounts" yaml:"showVoteCounts"`
	CelebrationAnimation bool   `json:"celebrationAnimation" yaml:"celebrationAnimation"`
	CardStyle            string `json:"cardStyle" yaml:"cardStyle"`
	LayoutMode           string `json:"layoutMode" yaml:"layoutMode"`
}

type ActionItemConfig struct {
	RequireOwner        bool     `json:"requireOwner" yaml:"requireOwner"`
	SuggestFromTopVoted bool     `json:"suggestFromTopVoted" yaml:"suggestFromTopVoted"`
	MaxActionItems      int      `json:"maxActionItems" yaml:"maxActionItems"`
	ShowPreviousActions bool     `json:"showPreviousActions" yaml:"showPreviousActions"`
	Categories          []string `json:"categories" yaml:"categories"`
}

type RetroEvaluation struct {
	Criteria         Weights `json:"criteria" yaml:"criteria"`
	PassingThreshold int     `json:"passingThreshold" yaml:"passingThreshold"`
	ShowFeedback     bool    `json:"showFeedback" yaml:"showFeedback"`
}

type RetroCard struct {
	ID       string `json:"id" yaml:"id"`
	Category string `json:"category" yaml:"category"`
	Text     string `json:"text" yaml:"text"`
}

var retroRules = []compose.Rule{
	{Path: "prompts.systemPrompt", Strategy: compose.Append},
	{Path: "facilitation.guidedQuestions", Strategy: compose.Cap, Source: "facilitation.maxGuidedQuestions"},
	{Path: "facilitation.maxCardsPerCategory", Strategy: compose.Clamp, Min: 1, Max: 10},
	{Path: "starterCards", Strategy: compose.Cap, Source: "maxStarterCards"},
	{Path: "actionItems.maxActionItems", Strategy: compose.Clamp, Min: 1, Max: 10},
	{Path: "evaluation.criteria", Strategy: compose.Rubric, Keys: []string{
		"reflectionDepth", "actionableItems", "participation", "positiveBalance",
	}},
	{Path: "evaluation.passingThreshold", Strategy: compose.Clamp, Min: 0, Max: 100},
}

var retroRequired = []string{
	"metadata.description",
	"facilitation.facilitator.name",
	"facilitation.facilitator.facilitationStyle",
	"prompts.systemPrompt",
	"evaluation.criteria",
}

// Retro composes the retrospective adapter.
func (s *Service) Retro(role, level string) (RetroAdapter, error) {
	var a RetroAdapter
	sel, err := s.decode(DomainRetro, role, level, "", &a)
	if err != nil {
		return RetroAdapter{}, err
	}
	a.Metadata.stamp(sel)
	return a, nil
}

func GetRetroAdapter(role, level string) RetroAdapter {
	a, err := mustDefault().Retro(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
