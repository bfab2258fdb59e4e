package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// CodeExecutionAdapter configures the in-browser editor and the mentor that
// reviews code runs.
type CodeExecutionAdapter struct {
	Metadata    Metadata          `json:"metadata" yaml:"metadata"`
	Editor      EditorConfig      `json:"editor" yaml:"editor"`
	Scaffolding ScaffoldingConfig `json:"scaffolding" yaml:"scaffolding"`
	Execution   ExecutionSettings `json:"execution" yaml:"execution"`
	UI          EditorUIConfig    `json:"ui" yaml:"ui"`
	Mentor      MentorConfig      `json:"mentor" yaml:"mentor"`
	Provider    ProviderConfig    `json:"provider" yaml:"provider"`
}

type EditorConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled"`
	Language    string `json:"language" yaml:"language"`
	Theme       string `json:"theme" yaml:"theme"`
	FontSize    int    `json:"fontSize" yaml:"fontSize"`
	Minimap     bool   `json:"minimap" yaml:"minimap"`
	LineNumbers bool   `json:"lineNumbers" yaml:"lineNumbers"`
	WordWrap    bool   `json:"wordWrap" yaml:"wordWrap"`
	TabSize     int    `json:"tabSize" yaml:"tabSize"`
	ReadOnly    bool   `json:"readOnly" yaml:"readOnly"`
}

type ScaffoldingConfig struct {
	StarterCodeAmount  string `json:"starterCodeAmount" yaml:"starterCodeAmount"`
	TestVisibility     string `json:"testVisibility" yaml:"testVisibility"`
	ShowInlineHints    bool   `json:"showInlineHints" yaml:"showInlineHints"`
	HintLevel          string `json:"hintLevel" yaml:"hintLevel"`
	AutoSuggestFixes   bool   `json:"autoSuggestFixes" yaml:"autoSuggestFixes"`
	AllowRunWithErrors bool   `json:"allowRunWithErrors" yaml:"allowRunWithErrors"`
	FeedbackDetail     string `json:"feedbackDetail" yaml:"feedbackDetail"`
	ShowExecutionTrace bool   `json:"showExecutionTrace" yaml:"showExecutionTrace"`
}

type ExecutionSettings struct {
	AutoRunOnSave          bool `json:"autoRunOnSave" yaml:"autoRunOnSave"`
	DebounceMs             int  `json:"debounceMs" yaml:"debounceMs"`
	MaxExecutionsPerMinute int  `json:"maxExecutionsPerMinute" yaml:"maxExecutionsPerMinute"`
	ShowStaticAnalysis     bool `json:"showStaticAnalysis" yaml:"showStaticAnalysis"`
	ShowTestResults        bool `json:"showTestResults" yaml:"showTestResults"`
}

type EditorUIConfig struct {
	LayoutMode      string   `json:"layoutMode" yaml:"layoutMode"`
	ShowFileTree    bool     `json:"showFileTree" yaml:"showFileTree"`
	ShowTestPanel   bool     `json:"showTestPanel" yaml:"showTestPanel"`
	ShowOutputPanel bool     `json:"showOutputPanel" yaml:"showOutputPanel"`
	ShowHintPanel   bool     `json:"showHintPanel" yaml:"showHintPanel"`
	ToolbarActions  []string `json:"toolbarActions" yaml:"toolbarActions"`
}

type MentorConfig struct {
	Hints                     []string `json:"hints" yaml:"hints"`
	MaxHints                  int      `json:"maxHints" yaml:"maxHints"`
	ShowSolutionAfterAttempts int      `json:"showSolutionAfterAttempts" yaml:"showSolutionAfterAttempts"`
	Tone                      string   `json:"tone" yaml:"tone"`
	ToneModifier              string   `json:"toneModifier" yaml:"toneModifier"`
}

// ProviderConfig selects the backend that runs submitted code.
type ProviderConfig struct {
	Type           string `json:"type" yaml:"type"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
}

var codeExecutionRules = []compose.Rule{
	{Path: "editor.fontSize", Strategy: compose.Clamp, Min: 10, Max: 32},
	{Path: "editor.tabSize", Strategy: compose.Clamp, Min: 2, Max: 8},
	{Path: "execution.maxExecutionsPerMinute", Strategy: compose.Clamp, Min: 1, Max: 60},
	{Path: "mentor.hints", Strategy: compose.Cap, Source: "mentor.maxHints"},
	{Path: "mentor.showSolutionAfterAttempts", Strategy: compose.Clamp, Min: 1, Max: compose.Unbounded},
	{Path: "mentor.toneModifier", Strategy: compose.Tone, Source: "mentor.tone"},
	{Path: "provider.timeoutSeconds", Strategy: compose.Clamp, Min: 5, Max: 120},
}

var codeExecutionRequired = []string{
	"metadata.description",
	"editor.language",
	"scaffolding.starterCodeAmount",
	"scaffolding.testVisibility",
	"mentor.toneModifier",
	"provider.type",
}

// CodeExecution composes the code execution adapter.
func (s *Service) CodeExecution(role, level string) (CodeExecutionAdapter, error) {
	var a CodeExecutionAdapter
	sel, err := s.decode(DomainCodeExecution, role, level, "", &a)
	if err != nil {
		return CodeExecutionAdapter{}, err
	}
	a.Metadata.stamp(sel)
	return a, nil
}

func GetCodeExecutionAdapter(role, level string) CodeExecutionAdapter {
	a, err := mustDefault().CodeExecution(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
