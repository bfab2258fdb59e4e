package adapter

import "github.com/sprite-ai/adaptsim/internal/compose"

// domainRules returns the merge rules and required paths of a domain.
func domainRules(domain string) ([]compose.Rule, []string) {
	switch domain {
	case DomainOnboarding:
		return onboardingRules, onboardingRequired
	case DomainPlanning:
		return planningRules, planningRequired
	case DomainExecution:
		return executionRules, executionRequired
	case DomainCodeExecution:
		return codeExecutionRules, codeExecutionRequired
	case DomainStandup:
		return standupRules, standupRequired
	case DomainRetro:
		return retroRules, retroRequired
	case DomainReview:
		return sprintReviewRules, sprintReviewRequired
	case DomainSoftSkills:
		return softSkillsRules, softSkillsRequired
	case DomainTeamIntro:
		return teamIntroRules, teamIntroRequired
	case DomainComprehension:
		return comprehensionRules, comprehensionRequired
	}
	return nil, nil
}
