package adapter

import (
	"github.com/sprite-ai/adaptsim/internal/compose"
	"github.com/sprite-ai/adaptsim/internal/model"
)

// ExecutionAdapter configures the sprint execution scenario: git workflow,
// ticket work, teammates and the pull-request review loop.
type ExecutionAdapter struct {
	Metadata       Metadata            `json:"metadata" yaml:"metadata"`
	GitWorkflow    GitWorkflowConfig   `json:"gitWorkflow" yaml:"gitWorkflow"`
	Standup        ExecutionStandup    `json:"standup" yaml:"standup"`
	TicketWork     TicketWorkConfig    `json:"ticketWork" yaml:"ticketWork"`
	AIInteractions AIInteractionConfig `json:"aiInteractions" yaml:"aiInteractions"`
	PRReview       PRReviewConfig      `json:"prReview" yaml:"prReview"`
	UI             ExecutionUIControls `json:"ui" yaml:"ui"`
	Difficulty     ExecutionDifficulty `json:"difficulty" yaml:"difficulty"`
	Evaluation     ExecutionEvaluation `json:"evaluation" yaml:"evaluation"`
	Engagement     Engagement          `json:"engagement" yaml:"engagement"`
}

type GitStep struct {
	ID          string `json:"id" yaml:"id"`
	Instruction string `json:"instruction" yaml:"instruction"`
	Hint        string `json:"hint" yaml:"hint"`
	Competency  string `json:"competency" yaml:"competency"`
}

type GitWorkflowConfig struct {
	Steps                   []GitStep `json:"steps" yaml:"steps"`
	BranchNamingPattern     string    `json:"branchNamingPattern" yaml:"branchNamingPattern"`
	CommitMessageGuidelines []string  `json:"commitMessageGuidelines" yaml:"commitMessageGuidelines"`
	ShowCommandHints        bool      `json:"showCommandHints" yaml:"showCommandHints"`
	ShowNextStepPrompt      bool      `json:"showNextStepPrompt" yaml:"showNextStepPrompt"`
	AllowButtonShortcuts    bool      `json:"allowButtonShortcuts" yaml:"allowButtonShortcuts"`
}

type ExecutionStandup struct {
	IsUserFacilitator bool     `json:"isUserFacilitator" yaml:"isUserFacilitator"`
	Questions         []string `json:"questions" yaml:"questions"`
	FeedbackEnabled   bool     `json:"feedbackEnabled" yaml:"feedbackEnabled"`
	FeedbackTone      string   `json:"feedbackTone" yaml:"feedbackTone"`
	ShowExamples      bool     `json:"showExamples" yaml:"showExamples"`
}

type TicketWorkConfig struct {
	ShowAcceptanceCriteria bool `json:"showAcceptanceCriteria" yaml:"showAcceptanceCriteria"`
	AllowParallelTickets   bool `json:"allowParallelTickets" yaml:"allowParallelTickets"`
	MaxInProgress          int  `json:"maxInProgress" yaml:"maxInProgress"`
	RequireGitWorkflow     bool `json:"requireGitWorkflow" yaml:"requireGitWorkflow"`
}

type AIInteractionConfig struct {
	Personas              []Persona `json:"personas" yaml:"personas"`
	StandupFacilitator    string    `json:"standupFacilitator" yaml:"standupFacilitator"`
	HelpResponders        []string  `json:"helpResponders" yaml:"helpResponders"`
	InterruptionFrequency string    `json:"interruptionFrequency" yaml:"interruptionFrequency"`
	ResponsePersonality   string    `json:"responsePersonality" yaml:"responsePersonality"`
}

// PRReviewConfig parameterizes one pull-request review. It is the slice of
// the execution adapter that seeds the review lifecycle.
type PRReviewConfig struct {
	Enabled                bool    `json:"enabled" yaml:"enabled"`
	MinCommentsPerPR       int     `json:"minCommentsPerPR" yaml:"minCommentsPerPR"`
	MaxCommentsPerPR       int     `json:"maxCommentsPerPR" yaml:"maxCommentsPerPR"`
	TypicalCommentsPerPR   int     `json:"typicalCommentsPerPR" yaml:"typicalCommentsPerPR"`
	CommentCountMultiplier float64 `json:"commentCountMultiplier" yaml:"commentCountMultiplier"`
	RequireAllResolved     bool    `json:"requireAllResolved" yaml:"requireAllResolved"`

	// AutoApproveThreshold is the largest number of minor, response-free
	// threads a review may raise and still approve without rework.
	AutoApproveThreshold int `json:"autoApproveThreshold" yaml:"autoApproveThreshold"`
	MaxRevisionCycles    int `json:"maxRevisionCycles" yaml:"maxRevisionCycles"`

	Reviewers            []Reviewer        `json:"reviewers" yaml:"reviewers"`
	SeverityDistribution SeverityMix       `json:"severityDistribution" yaml:"severityDistribution"`
	CommentTemplates     []CommentTemplate `json:"commentTemplates" yaml:"commentTemplates"`
	MaxCommentTemplates  int               `json:"maxCommentTemplates" yaml:"maxCommentTemplates"`

	FeedbackTone                   string                      `json:"feedbackTone" yaml:"feedbackTone"`
	ToneModifier                   string                      `json:"toneModifier" yaml:"toneModifier"`
	ShowExampleResponses           bool                        `json:"showExampleResponses" yaml:"showExampleResponses"`
	MinorResponseBehavior          model.MinorResponseBehavior `json:"minorResponseBehavior" yaml:"minorResponseBehavior"`
	RequireExplicitApprovalRequest bool                        `json:"requireExplicitApprovalRequest" yaml:"requireExplicitApprovalRequest"`

	ReReview ReReviewConfig  `json:"reReview" yaml:"reReview"`
	UI       ReviewUIConfig  `json:"ui" yaml:"ui"`
	LLM      LLMReviewConfig `json:"llm" yaml:"llm"`
}

// Reviewer is a reviewer persona. TypicalCommentCount is derived so that
// the counts of all reviewers add up to TypicalCommentsPerPR.
type Reviewer struct {
	ID                  string   `json:"id" yaml:"id"`
	Name                string   `json:"name" yaml:"name"`
	Role                string   `json:"role" yaml:"role"`
	Personality         string   `json:"personality" yaml:"personality"`
	ReviewStyle         string   `json:"reviewStyle" yaml:"reviewStyle"`
	FocusAreas          []string `json:"focusAreas" yaml:"focusAreas"`
	TypicalCommentCount int      `json:"typicalCommentCount" yaml:"typicalCommentCount"`
}

// SeverityMix is the probability of each thread severity.
type SeverityMix struct {
	Minor    float64 `json:"minor" yaml:"minor"`
	Major    float64 `json:"major" yaml:"major"`
	Blocking float64 `json:"blocking" yaml:"blocking"`
}

// Weight returns the probability of sev.
func (m SeverityMix) Weight(sev model.Severity) float64 {
	switch sev {
	case model.SeverityMinor:
		return m.Minor
	case model.SeverityMajor:
		return m.Major
	case model.SeverityBlocking:
		return m.Blocking
	}
	return 0
}

// CommentTemplate is a canned reviewer comment.
type CommentTemplate struct {
	Kind             model.CommentKind `json:"type" yaml:"type"`
	Severity         model.Severity    `json:"severity" yaml:"severity"`
	Message          string            `json:"message" yaml:"message"`
	RequiresResponse bool              `json:"requiresResponse" yaml:"requiresResponse"`
}

// ReReviewConfig gates the re-review loop.
type ReReviewConfig struct {
	// RequireTestsPass blocks re-review until the latest test run passed.
	RequireTestsPass bool `json:"requireTestsPass" yaml:"requireTestsPass"`
	// StrictCodeVerification keeps addressed threads open until a
	// reviewer resolves them explicitly.
	StrictCodeVerification bool `json:"strictCodeVerification" yaml:"strictCodeVerification"`
}

type ReviewUIConfig struct {
	LayoutMode             string `json:"layoutMode" yaml:"layoutMode"`
	ShowDiffViewer         bool   `json:"showDiffViewer" yaml:"showDiffViewer"`
	ShowFileTree           bool   `json:"showFileTree" yaml:"showFileTree"`
	ShowTimeline           bool   `json:"showTimeline" yaml:"showTimeline"`
	ShowReviewChecklist    bool   `json:"showReviewChecklist" yaml:"showReviewChecklist"`
	InlineComments         bool   `json:"inlineComments" yaml:"inlineComments"`
	ExpandThreadsByDefault bool   `json:"expandThreadsByDefault" yaml:"expandThreadsByDefault"`
	HighlightUnresolved    bool   `json:"highlightUnresolved" yaml:"highlightUnresolved"`
	ShowRevisionHistory    bool   `json:"showRevisionHistory" yaml:"showRevisionHistory"`
}

type LLMReviewConfig struct {
	ExplanationDepth       string `json:"explanationDepth" yaml:"explanationDepth"`
	IncludeCodeExamples    bool   `json:"includeCodeExamples" yaml:"includeCodeExamples"`
	AssumeKnowledgeLevel   string `json:"assumeKnowledgeLevel" yaml:"assumeKnowledgeLevel"`
	MaxCommentsPerReviewer int    `json:"maxCommentsPerReviewer" yaml:"maxCommentsPerReviewer"`
}

type PanelLayout struct {
	Mode              string `json:"mode" yaml:"mode"`
	SidebarPosition   string `json:"sidebarPosition" yaml:"sidebarPosition"`
	SidebarWidth      string `json:"sidebarWidth" yaml:"sidebarWidth"`
	TerminalHeight    string `json:"terminalHeight" yaml:"terminalHeight"`
	CollapsiblePanels bool   `json:"collapsiblePanels" yaml:"collapsiblePanels"`
}

type ExecutionUIControls struct {
	ShowGitTerminal         bool        `json:"showGitTerminal" yaml:"showGitTerminal"`
	ShowTeamChat            bool        `json:"showTeamChat" yaml:"showTeamChat"`
	ShowAcceptanceCriteria  bool        `json:"showAcceptanceCriteria" yaml:"showAcceptanceCriteria"`
	ShowWorkflowProgress    bool        `json:"showWorkflowProgress" yaml:"showWorkflowProgress"`
	ShowBurndownChart       bool        `json:"showBurndownChart" yaml:"showBurndownChart"`
	ShowCompetencyBadges    bool        `json:"showCompetencyBadges" yaml:"showCompetencyBadges"`
	ShowMentorHints         bool        `json:"showMentorHints" yaml:"showMentorHints"`
	TerminalHintsVisibility string      `json:"terminalHintsVisibility" yaml:"terminalHintsVisibility"`
	AllowShortcutButtons    bool        `json:"allowShortcutButtons" yaml:"allowShortcutButtons"`
	Layout                  PanelLayout `json:"layout" yaml:"layout"`
}

type ExecutionDifficulty struct {
	GitCommandStrictness   string `json:"gitCommandStrictness" yaml:"gitCommandStrictness"`
	HintDetailLevel        string `json:"hintDetailLevel" yaml:"hintDetailLevel"`
	PRReviewIntensity      string `json:"prReviewIntensity" yaml:"prReviewIntensity"`
	InterruptionComplexity string `json:"interruptionComplexity" yaml:"interruptionComplexity"`
	StretchTasksEnabled    bool   `json:"stretchTasksEnabled" yaml:"stretchTasksEnabled"`
	TimeBoxedDays          bool   `json:"timeBoxedDays" yaml:"timeBoxedDays"`
}

type ExecutionEvaluation struct {
	RubricWeights           Weights `json:"rubricWeights" yaml:"rubricWeights"`
	PassingThreshold        int     `json:"passingThreshold" yaml:"passingThreshold"`
	RequiredTicketsComplete int     `json:"requiredTicketsComplete" yaml:"requiredTicketsComplete"`
	RequiredPRsReviewed     int     `json:"requiredPRsReviewed" yaml:"requiredPRsReviewed"`
}

// Engagement describes how much the simulated team leads versus the learner.
type Engagement struct {
	Mode             string  `json:"mode" yaml:"mode"`
	TeamTalkRatio    float64 `json:"teamTalkRatio" yaml:"teamTalkRatio"`
	StandupGuidance  string  `json:"standupGuidance" yaml:"standupGuidance"`
	GitGuidance      string  `json:"gitGuidance" yaml:"gitGuidance"`
	PRReviewGuidance string  `json:"prReviewGuidance" yaml:"prReviewGuidance"`
}

var executionRules = []compose.Rule{
	{Path: "prReview.minCommentsPerPR", Strategy: compose.Clamp, Min: 0, Max: 20},
	{Path: "prReview.maxCommentsPerPR", Strategy: compose.Clamp, Min: 0, Max: 20},
	{Path: "prReview.autoApproveThreshold", Strategy: compose.Clamp, Min: 0, Max: 100},
	{Path: "prReview.maxRevisionCycles", Strategy: compose.Clamp, Min: 1, Max: compose.Unbounded},
	{Path: "prReview.severityDistribution", Strategy: compose.Distribution, Keys: []string{"minor", "major", "blocking"}},
	{Path: "prReview.reviewers", Strategy: compose.Override},
	{Path: "prReview.commentTemplates", Strategy: compose.Cap, Source: "prReview.maxCommentTemplates"},
	{
		Path:        "prReview",
		Strategy:    compose.Blend,
		Keys:        []string{"minCommentsPerPR", "maxCommentsPerPR", "typicalCommentsPerPR"},
		Source:      "prReview.commentCountMultiplier",
		Members:     "prReview.reviewers",
		MemberField: "typicalCommentCount",
		Split:       true,
	},
	{Path: "prReview.toneModifier", Strategy: compose.Tone, Source: "prReview.feedbackTone"},
	{Path: "ticketWork.maxInProgress", Strategy: compose.Clamp, Min: 1, Max: 5},
	{Path: "engagement.teamTalkRatio", Strategy: compose.Clamp, Min: 0, Max: 1},
	{Path: "evaluation.rubricWeights", Strategy: compose.Rubric, Keys: []string{
		"gitMastery", "deliveryReliability", "communicationQuality", "collaborationSkill", "codeReviewResponse",
	}},
	{Path: "evaluation.passingThreshold", Strategy: compose.Clamp, Min: 0, Max: 100},
}

var executionRequired = []string{
	"metadata.description",
	"gitWorkflow.steps",
	"prReview.typicalCommentsPerPR",
	"prReview.reviewers",
	"prReview.severityDistribution",
	"prReview.minorResponseBehavior",
	"prReview.toneModifier",
	"prReview.reReview",
	"evaluation.rubricWeights",
	"engagement.mode",
}

// Execution composes the execution adapter.
func (s *Service) Execution(role, level string) (ExecutionAdapter, error) {
	var a ExecutionAdapter
	sel, err := s.decode(DomainExecution, role, level, "", &a)
	if err != nil {
		return ExecutionAdapter{}, err
	}
	a.Metadata.stamp(sel)
	return a, nil
}

// GetExecutionAdapter composes the execution adapter from the embedded
// registries.
func GetExecutionAdapter(role, level string) ExecutionAdapter {
	a, err := mustDefault().Execution(role, level)
	if err != nil {
		panic(err)
	}
	return a
}
