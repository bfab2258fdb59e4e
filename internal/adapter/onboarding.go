package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// OnboardingAdapter configures the environment setup walkthrough.
type OnboardingAdapter struct {
	Metadata    Metadata             `json:"metadata" yaml:"metadata"`
	Environment EnvironmentSetup     `json:"environment" yaml:"environment"`
	UI          OnboardingUIControls `json:"ui" yaml:"ui"`
	Difficulty  OnboardingDifficulty `json:"difficulty" yaml:"difficulty"`
	Evaluation  OnboardingEvaluation `json:"evaluation" yaml:"evaluation"`
}

type ProjectContext struct {
	Name        string `json:"name" yaml:"name"`
	Org         string `json:"org" yaml:"org"`
	RepoURL     string `json:"repoUrl" yaml:"repoUrl"`
	Description string `json:"description" yaml:"description"`
}

type SetupStep struct {
	ID            string   `json:"id" yaml:"id"`
	Instruction   string   `json:"instruction" yaml:"instruction"`
	Hint          string   `json:"hint" yaml:"hint"`
	ValidCommands []string `json:"validCommands" yaml:"validCommands"`
	FailureHint   string   `json:"failureHint" yaml:"failureHint"`
	Competency    string   `json:"competency" yaml:"competency"`
}

type TerminalHint struct {
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description" yaml:"description"`
	Example     string `json:"example,omitempty" yaml:"example,omitempty"`
}

type CompletionMessage struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

type EnvironmentSetup struct {
	Project           ProjectContext    `json:"project" yaml:"project"`
	Steps             []SetupStep       `json:"steps" yaml:"steps"`
	TerminalHints     []TerminalHint    `json:"terminalHints" yaml:"terminalHints"`
	MaxTerminalHints  int               `json:"maxTerminalHints" yaml:"maxTerminalHints"`
	CompletionMessage CompletionMessage `json:"completionMessage" yaml:"completionMessage"`
}

type OnboardingUIControls struct {
	ShowHintsPanel        bool   `json:"showHintsPanel" yaml:"showHintsPanel"`
	ShowProgressIndicator bool   `json:"showProgressIndicator" yaml:"showProgressIndicator"`
	AllowSkipSteps        bool   `json:"allowSkipSteps" yaml:"allowSkipSteps"`
	ShowCommandHistory    bool   `json:"showCommandHistory" yaml:"showCommandHistory"`
	TerminalHeight        string `json:"terminalHeight" yaml:"terminalHeight"`
	HintVisibility        string `json:"hintVisibility" yaml:"hintVisibility"`
}

type OnboardingDifficulty struct {
	HintDetailLevel             string `json:"hintDetailLevel" yaml:"hintDetailLevel"`
	CommandValidationStrictness string `json:"commandValidationStrictness" yaml:"commandValidationStrictness"`
	ErrorRecoveryGuidance       bool   `json:"errorRecoveryGuidance" yaml:"errorRecoveryGuidance"`
	MaxRetries                  int    `json:"maxRetries" yaml:"maxRetries"`
	ShowExampleCommands         bool   `json:"showExampleCommands" yaml:"showExampleCommands"`
}

type OnboardingEvaluation struct {
	RubricWeights         Weights `json:"rubricWeights" yaml:"rubricWeights"`
	PassingThreshold      int     `json:"passingThreshold" yaml:"passingThreshold"`
	RequiredStepsComplete int     `json:"requiredStepsComplete" yaml:"requiredStepsComplete"`
}

var onboardingRules = []compose.Rule{
	{Path: "environment.steps", Strategy: compose.Override},
	{Path: "environment.terminalHints", Strategy: compose.Cap, Source: "environment.maxTerminalHints"},
	{Path: "difficulty.maxRetries", Strategy: compose.Clamp, Min: 1, Max: compose.Unbounded},
	{Path: "evaluation.rubricWeights", Strategy: compose.Rubric, Keys: []string{
		"commandAccuracy", "completionSpeed", "independentProgress", "errorRecovery",
	}},
	{Path: "evaluation.passingThreshold", Strategy: compose.Clamp, Min: 0, Max: 100},
	{Path: "evaluation.requiredStepsComplete", Strategy: compose.Clamp, Min: 0, Max: 10},
}

var onboardingRequired = []string{
	"metadata.description",
	"environment.project.name",
	"environment.steps",
	"environment.completionMessage.title",
	"difficulty.maxRetries",
	"evaluation.rubricWeights",
}

// Onboarding composes the onboarding adapter.
func (s *Service) Onboarding(role, level string) (OnboardingAdapter, error) {
	var a OnboardingAdapter
	sel, err := s.decode(DomainOnboarding, role, level, "", &a)
	if err != nil {
		return OnboardingAdapter{}, err
	}
	a.Metadata.stamp(sel)
	return a, nil
}

// GetOnboardingAdapter composes the onboarding adapter from the embedded
// registries.
func GetOnboardingAdapter(role, level string) OnboardingAdapter {
	a, err := mustDefault().Onboarding(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
