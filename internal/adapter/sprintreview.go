package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// SprintReviewAdapter configures the end-of-sprint demo to stakeholders.
// Its domain name is "review"; pull-request review lives in the execution
// adapter.
type SprintReviewAdapter struct {
	Metadata   Metadata               `json:"metadata" yaml:"metadata"`
	Demo       DemoConfig             `json:"demo" yaml:"demo"`
	Feedback   StakeholderFeedback    `json:"feedback" yaml:"feedback"`
	Prompts    SprintReviewPrompts    `json:"prompts" yaml:"prompts"`
	UI         SprintReviewUIConfig   `json:"ui" yaml:"ui"`
	Evaluation SprintReviewEvaluation `json:"evaluation" yaml:"evaluation"`
}

type DemoStep struct {
	Instruction  string `json:"instruction" yaml:"instruction"`
	Hint         string `json:"hint,omitempty" yaml:"hint,omitempty"`
	TimeEstimate int    `json:"timeEstimate" yaml:"timeEstimate"`
	Required     bool   `json:"required" yaml:"required"`
}

type DemoConfig struct {
	Format         string     `json:"format" yaml:"format"`
	ShowScript     bool       `json:"showScript" yaml:"showScript"`
	ShowTimer      bool       `json:"showTimer" yaml:"showTimer"`
	AllowSkip      bool       `json:"allowSkip" yaml:"allowSkip"`
	ScriptSteps    []DemoStep `json:"scriptSteps" yaml:"scriptSteps"`
	TimePerTicket  int        `json:"timePerTicket" yaml:"timePerTicket"`
	TimeMultiplier float64    `json:"timeMultiplier" yaml:"timeMultiplier"`
}

type Stakeholder struct {
	Persona              `yaml:",inline"`
	FeedbackStyle        string   `json:"feedbackStyle" yaml:"feedbackStyle"`
	FocusAreas           []string `json:"focusAreas" yaml:"focusAreas"`
	TypicalFeedbackCount int      `json:"typicalFeedbackCount" yaml:"typicalFeedbackCount"`
}

// SentimentMix is the probability of each stakeholder feedback sentiment.
type SentimentMix struct {
	Positive   float64 `json:"positive" yaml:"positive"`
	Neutral    float64 `json:"neutral" yaml:"neutral"`
	Suggestion float64 `json:"suggestion" yaml:"suggestion"`
	Concern    float64 `json:"concern" yaml:"concern"`
}

type StakeholderFeedback struct {
	Stakeholders                  []Stakeholder `json:"stakeholders" yaml:"stakeholders"`
	MinFeedbackPerStakeholder     int           `json:"minFeedbackPerStakeholder" yaml:"minFeedbackPerStakeholder"`
	MaxFeedbackPerStakeholder     int           `json:"maxFeedbackPerStakeholder" yaml:"maxFeedbackPerStakeholder"`
	TypicalFeedbackPerStakeholder int           `json:"typicalFeedbackPerStakeholder" yaml:"typicalFeedbackPerStakeholder"`
	FeedbackCountMultiplier       float64       `json:"feedbackCountMultiplier" yaml:"feedbackCountMultiplier"`
	SentimentDistribution         SentimentMix  `json:"sentimentDistribution" yaml:"sentimentDistribution"`
	RequireAcknowledgement        bool          `json:"requireAcknowledgement" yaml:"requireAcknowledgement"`
	Tone                          string        `json:"tone" yaml:"tone"`
	ToneModifier                  string        `json:"toneModifier" yaml:"toneModifier"`
}

type SprintReviewPrompts struct {
	SystemPrompt   string `json:"systemPrompt" yaml:"systemPrompt"`
	FeedbackPrompt string `json:"feedbackPrompt" yaml:"feedbackPrompt"`
	ClosingPrompt  string `json:"closingPrompt" yaml:"closingPrompt"`
}

type SprintReviewUIConfig struct {
	ShowDemoScript     bool   `json:"showDemoScript" yaml:"showDemoScript"`
	ShowSentimentIcons bool   `json:"showSentimentIcons" yaml:"showSentimentIcons"`
	ShowSprintMetrics  bool   `json:"showSprintMetrics" yaml:"showSprintMetrics"`
	LayoutMode         string `json:"layoutMode" yaml:"layoutMode"`
}

type SprintReviewEvaluation struct {
	Criteria         Weights `json:"criteria" yaml:"criteria"`
	PassingThreshold int     `json:"passingThreshold" yaml:"passingThreshold"`
}

var sprintReviewRules = []compose.Rule{
	{Path: "prompts.systemPrompt", Strategy: compose.Append},
	{Path: "feedback.stakeholders", Strategy: compose.Override},
	{Path: "feedback.sentimentDistribution", Strategy: compose.Distribution, Keys: []string{
		"positive", "neutral", "suggestion", "concern",
	}},
	{
		Path:        "feedback",
		Strategy:    compose.Blend,
		Keys:        []string{"minFeedbackPerStakeholder", "maxFeedbackPerStakeholder", "typicalFeedbackPerStakeholder"},
		Source:      "feedback.feedbackCountMultiplier",
		Members:     "feedback.stakeholders",
		MemberField: "typicalFeedbackCount",
	},
	{Path: "demo.timePerTicket", Strategy: compose.Scale, Source: "demo.timeMultiplier", Min: 1},
	{Path: "demo.scriptSteps", Strategy: compose.Scale, Source: "demo.timeMultiplier", MemberField: "timeEstimate", Min: 1},
	{Path: "feedback.toneModifier", Strategy: compose.Tone, Source: "feedback.tone"},
	{Path: "evaluation.criteria", Strategy: compose.Rubric, Keys: []string{
		"demoCoverage", "communicationClarity", "stakeholderEngagement", "feedbackReceptiveness",
	}},
	{Path: "evaluation.passingThreshold", Strategy: compose.Clamp, Min: 0, Max: 100},
}

var sprintReviewRequired = []string{
	"metadata.description",
	"demo.format",
	"feedback.stakeholders",
	"feedback.sentimentDistribution",
	"feedback.toneModifier",
	"evaluation.criteria",
}

// SprintReview composes the sprint review adapter.
func (s *Service) SprintReview(role, level string) (SprintReviewAdapter, error) {
	var a SprintReviewAdapter
	sel, err := s.decode(DomainReview, role, level, "", &a)
	if err != nil {
		return SprintReviewAdapter{}, err
	}
	a.Metadata.stamp(sel)
	return a, nil
}

// GetReviewAdapter composes the sprint review adapter from the embedded
// registries.
func GetReviewAdapter(role, level string) SprintReviewAdapter {
	a, err := mustDefault().SprintReview(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
