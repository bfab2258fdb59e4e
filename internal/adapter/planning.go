package adapter

import (
	"strconv"
	"strings"

	"github.com/sprite-ai/adaptsim/internal/compose"
	"github.com/sprite-ai/adaptsim/internal/model"
)

// PlanningAdapter configures a sprint planning meeting. It is the only
// domain with a tier layer.
type PlanningAdapter struct {
	Metadata      Metadata           `json:"metadata" yaml:"metadata"`
	Prompts       PlanningPrompts    `json:"prompts" yaml:"prompts"`
	UI            PlanningUIControls `json:"ui" yaml:"ui"`
	Difficulty    PlanningDifficulty `json:"difficulty" yaml:"difficulty"`
	Evaluation    PlanningEvaluation `json:"evaluation" yaml:"evaluation"`
	Engagement    PlanningEngagement `json:"engagement" yaml:"engagement"`
	TierMessaging *TierMessaging     `json:"tierMessaging,omitempty" yaml:"tierMessaging,omitempty"`
}

type PlanningPrompts struct {
	// SystemPrompt is the role prompt followed by level guidance and,
	// when a tier is set, the ownership text.
	SystemPrompt         string    `json:"systemPrompt" yaml:"systemPrompt"`
	Facilitator          string    `json:"facilitator" yaml:"facilitator"`
	Personas             []Persona `json:"personas" yaml:"personas"`
	AutoStartMessage     string    `json:"autoStartMessage" yaml:"autoStartMessage"`
	ReturningTeamMessage string    `json:"returningTeamMessage" yaml:"returningTeamMessage"`
	ResponseExpectation  string    `json:"responseExpectation" yaml:"responseExpectation"`
}

type PlanningUIControls struct {
	ShowPriorityEditor          bool `json:"showPriorityEditor" yaml:"showPriorityEditor"`
	ShowEstimationSliders       bool `json:"showEstimationSliders" yaml:"showEstimationSliders"`
	RequireDiscussionBeforeNext bool `json:"requireDiscussionBeforeNext" yaml:"requireDiscussionBeforeNext"`
	ShowLearningObjectives      bool `json:"showLearningObjectives" yaml:"showLearningObjectives"`
	ShowKnowledgeCheck          bool `json:"showKnowledgeCheck" yaml:"showKnowledgeCheck"`
	CanSkipPhases               bool `json:"canSkipPhases" yaml:"canSkipPhases"`
	ShowMeetingTimer            bool `json:"showMeetingTimer" yaml:"showMeetingTimer"`
	ShowCapacityIndicator       bool `json:"showCapacityIndicator" yaml:"showCapacityIndicator"`
}

type PlanningDifficulty struct {
	TicketComplexity   string  `json:"ticketComplexity" yaml:"ticketComplexity"`
	AmbiguityLevel     float64 `json:"ambiguityLevel" yaml:"ambiguityLevel"`
	ConflictScenarios  bool    `json:"conflictScenarios" yaml:"conflictScenarios"`
	PushbackIntensity  string  `json:"pushbackIntensity" yaml:"pushbackIntensity"`
	EstimationAccuracy string  `json:"estimationAccuracy" yaml:"estimationAccuracy"`
	BacklogSize        int     `json:"backlogSize" yaml:"backlogSize"`
}

type PlanningEvaluation struct {
	RubricWeights        Weights `json:"rubricWeights" yaml:"rubricWeights"`
	PassingThreshold     int     `json:"passingThreshold" yaml:"passingThreshold"`
	RequiredInteractions int     `json:"requiredInteractions" yaml:"requiredInteractions"`
}

// PhaseEngagement says whether the learner observes, responds or leads in
// each meeting phase.
type PhaseEngagement struct {
	Context    string `json:"context" yaml:"context"`
	Discussion string `json:"discussion" yaml:"discussion"`
	Commitment string `json:"commitment" yaml:"commitment"`
}

type PlanningEngagement struct {
	Mode                  string          `json:"mode" yaml:"mode"`
	TeamTalkRatio         float64         `json:"teamTalkRatio" yaml:"teamTalkRatio"`
	AutoStartConversation bool            `json:"autoStartConversation" yaml:"autoStartConversation"`
	PhaseEngagement       PhaseEngagement `json:"phaseEngagement" yaml:"phaseEngagement"`
}

// TierMessaging is shown when a learner plays a sprint at a given tier.
type TierMessaging struct {
	Title           string     `json:"title" yaml:"title"`
	Description     string     `json:"description" yaml:"description"`
	AdvanceMessage  string     `json:"advanceMessage" yaml:"advanceMessage"`
	PracticeMessage string     `json:"practiceMessage" yaml:"practiceMessage"`
	NextTier        model.Tier `json:"nextTier,omitempty" yaml:"nextTier,omitempty"`
}

// PlanningOptions carries session context that is not part of the
// role/level/tier selection.
type PlanningOptions struct {
	// SprintNumber switches the auto-start message to the returning-team
	// variant from the second sprint on.
	SprintNumber int
}

var planningRules = []compose.Rule{
	{Path: "prompts.systemPrompt", Strategy: compose.Append},
	{Path: "prompts.personas", Strategy: compose.Override},
	{Path: "engagement.teamTalkRatio", Strategy: compose.Clamp, Min: 0, Max: 1},
	{Path: "difficulty.ambiguityLevel", Strategy: compose.Clamp, Min: 0, Max: 1},
	{Path: "difficulty.backlogSize", Strategy: compose.Clamp, Min: 3, Max: 20},
	{Path: "evaluation.rubricWeights", Strategy: compose.Rubric, Keys: []string{
		"participation", "understanding", "collaboration", "goalClarity", "scopeRealism",
	}},
	{Path: "evaluation.passingThreshold", Strategy: compose.Clamp, Min: 0, Max: 100},
}

var planningRequired = []string{
	"metadata.description",
	"prompts.systemPrompt",
	"prompts.personas",
	"engagement.mode",
	"engagement.phaseEngagement.context",
	"evaluation.rubricWeights",
}

// Planning composes the planning adapter for the first sprint.
func (s *Service) Planning(role, level, tier string) (PlanningAdapter, error) {
	return s.PlanningWith(role, level, tier, PlanningOptions{SprintNumber: 1})
}

// PlanningWith composes the planning adapter with session options applied.
func (s *Service) PlanningWith(role, level, tier string, opts PlanningOptions) (PlanningAdapter, error) {
	var a PlanningAdapter
	sel, err := s.decode(DomainPlanning, role, level, tier, &a)
	if err != nil {
		return PlanningAdapter{}, err
	}
	a.Metadata.stamp(sel)

	if a.TierMessaging != nil {
		a.TierMessaging.NextTier = sel.Tier.Next()
	}
	if opts.SprintNumber > 1 && a.Prompts.ReturningTeamMessage != "" {
		a.Prompts.AutoStartMessage = strings.ReplaceAll(
			a.Prompts.ReturningTeamMessage, "{sprint}", strconv.Itoa(opts.SprintNumber))
	}
	return a, nil
}

// GetPlanningAdapter composes the planning adapter from the embedded
// registries. An empty tier applies no tier layer.
func GetPlanningAdapter(role, level, tier string) PlanningAdapter {
	a, err := mustDefault().Planning(role, level, tier)
	if err != nil {
		panic(err)
	}
	return a
}
