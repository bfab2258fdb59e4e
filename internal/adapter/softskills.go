package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// SoftSkillsAdapter configures soft-skill events such as handling scope
// pushback or giving a status update under pressure.
type SoftSkillsAdapter struct {
	Metadata      Metadata             `json:"metadata" yaml:"metadata"`
	Suggestions   SuggestionConfig     `json:"suggestions" yaml:"suggestions"`
	Evaluation    SoftSkillsEvaluation `json:"evaluation" yaml:"evaluation"`
	Feedback      SoftSkillsFeedback   `json:"feedback" yaml:"feedback"`
	FollowUp      FollowUpConfig       `json:"followUp" yaml:"followUp"`
	UI            SoftSkillsUIConfig   `json:"ui" yaml:"ui"`
	Prompts       SoftSkillsPrompts    `json:"prompts" yaml:"prompts"`
	RubricWeights Weights              `json:"rubricWeights" yaml:"rubricWeights"`
}

type SuggestionConfig struct {
	ShowSuggestions     bool   `json:"showSuggestions" yaml:"showSuggestions"`
	MaxSuggestionsShown int    `json:"maxSuggestionsShown" yaml:"maxSuggestionsShown"`
	AllowEditing        bool   `json:"allowEditing" yaml:"allowEditing"`
	SuggestionStyle     string `json:"suggestionStyle" yaml:"suggestionStyle"`
}

// SoftSkillsEvaluation decides when a free-text answer is scored by the
// language model rather than matched against a suggestion.
type SoftSkillsEvaluation struct {
	LLMThreshold           float64 `json:"llmThreshold" yaml:"llmThreshold"`
	LLMThresholdAdjustment float64 `json:"llmThresholdAdjustment" yaml:"llmThresholdAdjustment"`
	EditTolerance          float64 `json:"editTolerance" yaml:"editTolerance"`
	RubricPassingScore     int     `json:"rubricPassingScore" yaml:"rubricPassingScore"`
	Strictness             string  `json:"strictness" yaml:"strictness"`
}

type SoftSkillsFeedback struct {
	Tone              string `json:"tone" yaml:"tone"`
	ToneModifier      string `json:"toneModifier" yaml:"toneModifier"`
	ShowModelAnswer   bool   `json:"showModelAnswer" yaml:"showModelAnswer"`
	HighlightStrength bool   `json:"highlightStrength" yaml:"highlightStrength"`
}

type FollowUpConfig struct {
	Enabled      bool `json:"enabled" yaml:"enabled"`
	MaxFollowUps int  `json:"maxFollowUps" yaml:"maxFollowUps"`
	AllowRetry   bool `json:"allowRetry" yaml:"allowRetry"`
}

type SoftSkillsUIConfig struct {
	ShowTimer           bool `json:"showTimer" yaml:"showTimer"`
	ShowRubric          bool `json:"showRubric" yaml:"showRubric"`
	ShowScenarioContext bool `json:"showScenarioContext" yaml:"showScenarioContext"`
}

type SoftSkillsPrompts struct {
	FeedbackPrompt string `json:"feedbackPrompt" yaml:"feedbackPrompt"`
}

var softSkillsRules = []compose.Rule{
	{Path: "suggestions.maxSuggestionsShown", Strategy: compose.Clamp, Min: 1, Max: 5},
	{Path: "evaluation.llmThreshold", Strategy: compose.Adjust, Source: "evaluation.llmThresholdAdjustment", Min: 0, Max: 1},
	{Path: "evaluation.editTolerance", Strategy: compose.Clamp, Min: 0, Max: 1},
	{Path: "evaluation.rubricPassingScore", Strategy: compose.Clamp, Min: 0, Max: 100},
	{Path: "followUp.maxFollowUps", Strategy: compose.Clamp, Min: 0, Max: 5},
	{Path: "feedback.toneModifier", Strategy: compose.Tone, Source: "feedback.tone"},
	{Path: "prompts.feedbackPrompt", Strategy: compose.Append},
	{Path: "rubricWeights", Strategy: compose.Rubric, Keys: []string{
		"communication", "problemSolving", "assertiveness", "collaboration",
	}},
}

var softSkillsRequired = []string{
	"metadata.description",
	"evaluation.llmThreshold",
	"evaluation.strictness",
	"feedback.toneModifier",
	"prompts.feedbackPrompt",
	"rubricWeights",
}

// SoftSkills composes the soft-skills adapter.
func (s *Service) SoftSkills(role, level string) (SoftSkillsAdapter, error) {
	var a SoftSkillsAdapter
	sel, err := s.decode(DomainSoftSkills, role, level, "", &a)
	if err != nil {
		return SoftSkillsAdapter{}, err
	}
	a.Metadata.stamp(sel)
	return a, nil
}

func GetSoftSkillsAdapter(role, level string) SoftSkillsAdapter {
	a, err := mustDefault().SoftSkills(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
