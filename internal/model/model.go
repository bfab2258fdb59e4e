// Package model defines the closed enumerations and small value types shared
// across adaptsim. Every registry, adapter and the review lifecycle consume
// these instead of declaring their own copies.
package model

// Role is the job function a learner is simulating.
type Role string

const (
	RoleDeveloper   Role = "developer"
	RolePM          Role = "pm"
	RoleQA          Role = "qa"
	RoleDevOps      Role = "devops"
	RoleDataScience Role = "data_science"
)

// DefaultRole is substituted for any unknown role.
const DefaultRole = RoleDeveloper

// AllRoles returns every role in declaration order.
func AllRoles() []Role {
	return []Role{RoleDeveloper, RolePM, RoleQA, RoleDevOps, RoleDataScience}
}

// ParseRole reports whether s names a known role.
func ParseRole(s string) (Role, bool) {
	for _, r := range AllRoles() {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// Title is the human-readable job title.
func (r Role) Title() string {
	switch r {
	case RoleDeveloper:
		return "Developer"
	case RolePM:
		return "Product Manager"
	case RoleQA:
		return "QA Engineer"
	case RoleDevOps:
		return "DevOps Engineer"
	case RoleDataScience:
		return "Data Scientist"
	default:
		return "unknown"
	}
}

// Level is the seniority stage, the scaffolding axis.
type Level string

const (
	LevelIntern Level = "intern"
	LevelJunior Level = "junior"
	LevelMid    Level = "mid"
	LevelSenior Level = "senior"
)

// DefaultLevel is substituted for any unknown level.
const DefaultLevel = LevelIntern

// AllLevels returns every level from least to most senior.
func AllLevels() []Level {
	return []Level{LevelIntern, LevelJunior, LevelMid, LevelSenior}
}

// ParseLevel reports whether s names a known level.
func ParseLevel(s string) (Level, bool) {
	for _, l := range AllLevels() {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

func (l Level) String() string { return string(l) }

// Title is the display form used in adapter metadata.
func (l Level) Title() string {
	switch l {
	case LevelIntern:
		return "Intern"
	case LevelJunior:
		return "Junior"
	case LevelMid:
		return "Mid-Level"
	case LevelSenior:
		return "Senior"
	default:
		return "unknown"
	}
}

// Tier is an earned ownership stage, orthogonal to Level. Only the planning
// domain defines tier overlays.
type Tier string

const (
	TierObserver       Tier = "observer"
	TierCoFacilitator  Tier = "co_facilitator"
	TierEmergingLeader Tier = "emerging_leader"
)

// DefaultTier is substituted for a non-empty unknown tier.
const DefaultTier = TierObserver

// AllTiers returns every tier in progression order.
func AllTiers() []Tier {
	return []Tier{TierObserver, TierCoFacilitator, TierEmergingLeader}
}

// ParseTier reports whether s names a known tier.
func ParseTier(s string) (Tier, bool) {
	for _, t := range AllTiers() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

func (t Tier) String() string { return string(t) }

// Next returns the tier after t, or "" when t is the last one.
func (t Tier) Next() Tier {
	tiers := AllTiers()
	for i, cur := range tiers {
		if cur == t && i+1 < len(tiers) {
			return tiers[i+1]
		}
	}
	return ""
}

// Severity grades a review thread.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityBlocking Severity = "blocking"
)

// AllSeverities returns severities from least to most serious.
func AllSeverities() []Severity {
	return []Severity{SeverityMinor, SeverityMajor, SeverityBlocking}
}

// Valid reports whether s is one of the declared severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityBlocking:
		return true
	}
	return false
}

func (s Severity) String() string { return string(s) }

// ThreadStatus is the resolution status of a review thread.
type ThreadStatus string

const (
	ThreadOpen      ThreadStatus = "open"
	ThreadAddressed ThreadStatus = "addressed"
	ThreadResolved  ThreadStatus = "resolved"
	ThreadDismissed ThreadStatus = "dismissed"
)

// Closed reports whether the thread no longer needs attention.
func (s ThreadStatus) Closed() bool {
	return s == ThreadResolved || s == ThreadDismissed
}

// ReviewStatus is the persisted status of a pull-request review.
type ReviewStatus string

const (
	StatusPendingReview    ReviewStatus = "pending_review"
	StatusChangesRequested ReviewStatus = "changes_requested"
	StatusApproved         ReviewStatus = "approved"
	StatusMerged           ReviewStatus = "merged"
)

// CommentKind is what a reviewer comment asks of the author.
type CommentKind string

const (
	KindSuggestion     CommentKind = "suggestion"
	KindQuestion       CommentKind = "question"
	KindApproval       CommentKind = "approval"
	KindRequestChanges CommentKind = "request_changes"
)

// Valid reports whether k is one of the declared kinds.
func (k CommentKind) Valid() bool {
	switch k {
	case KindSuggestion, KindQuestion, KindApproval, KindRequestChanges:
		return true
	}
	return false
}

// MinorResponseBehavior decides what happens to a minor thread when the
// author responds to it.
type MinorResponseBehavior string

const (
	MinorAutoResolve         MinorResponseBehavior = "auto-resolve"
	MinorManual              MinorResponseBehavior = "manual"
	MinorIntelligentFollowUp MinorResponseBehavior = "intelligent-follow-up"
)

// Anchor pins a review thread to a location in the submitted change.
type Anchor struct {
	File    string   `json:"file" yaml:"file"`
	Line    int      `json:"line" yaml:"line"`
	Snippet []string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	// Start is the line number of Snippet[0].
	Start int `json:"start,omitempty" yaml:"start,omitempty"`
}
