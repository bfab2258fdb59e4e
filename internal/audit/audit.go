// Package audit checks composed adapters for data problems that the merge
// engine tolerates at runtime but a registry author should fix.
package audit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/model"
)

// Severity grades a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText lets findings serialize the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Finding is one problem in one composed adapter.
type Finding struct {
	Pass     string   `json:"pass"`
	Domain   string   `json:"domain"`
	Combo    string   `json:"combo,omitempty"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (f Finding) String() string {
	loc := f.Domain
	if f.Combo != "" {
		loc += " " + f.Combo
	}
	if f.Path != "" {
		loc += " " + f.Path
	}
	return fmt.Sprintf("[%s] %s: %s", f.Pass, loc, f.Message)
}

// Results holds every finding of a run.
type Results struct {
	Findings []Finding `json:"findings"`
	Checked  int       `json:"checked"`
}

// ByDomain groups findings by domain.
func (r *Results) ByDomain() map[string][]Finding {
	m := make(map[string][]Finding)
	for _, f := range r.Findings {
		m[f.Domain] = append(m[f.Domain], f)
	}
	return m
}

// Max returns the most severe finding level.
func (r *Results) Max() Severity {
	m := SeverityInfo
	for _, f := range r.Findings {
		m = max(m, f.Severity)
	}
	return m
}

// ExitCode is 2 when any error was found, 1 for warnings only, otherwise 0.
func (r *Results) ExitCode() int {
	if len(r.Findings) == 0 {
		return 0
	}
	switch r.Max() {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// Summary returns a one-line summary of findings.
func (r *Results) Summary() string {
	if len(r.Findings) == 0 {
		return "No issues found"
	}
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	var parts []string
	for _, s := range []Severity{SeverityError, SeverityWarning, SeverityInfo} {
		if c := counts[s]; c > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c, s))
		}
	}
	return strings.Join(parts, ", ")
}

// Pass inspects every combination and returns its findings.
type Pass func(svc *adapter.Service, combos []Combo) []Finding

type namedPass struct {
	name string
	run  Pass
}

var passes = []namedPass{
	{"totality", TotalityPass},
	{"distributions", DistributionPass},
	{"ranges", RangePass},
	{"fallback", FallbackPass},
	{"determinism", DeterminismPass},
}

// PassNames lists the passes in the order Run executes them.
func PassNames() []string {
	names := make([]string, len(passes))
	for i, p := range passes {
		names[i] = p.name
	}
	return names
}

// Run executes every pass not named in skip. Naming an unknown pass in skip
// is an error.
func Run(svc *adapter.Service, skip []string) (*Results, error) {
	for _, s := range skip {
		if !slices.Contains(PassNames(), s) {
			return nil, fmt.Errorf("unknown audit pass %q (have %s)", s, strings.Join(PassNames(), ", "))
		}
	}
	combos := Combos(svc)
	res := &Results{Checked: len(combos)}
	for _, p := range passes {
		if slices.Contains(skip, p.name) {
			continue
		}
		res.Findings = append(res.Findings, p.run(svc, combos)...)
	}
	return res, nil
}

// Combo is one domain and resolved selection.
type Combo struct {
	Domain string
	Sel    adapter.Selection
}

func (c Combo) String() string {
	s := string(c.Sel.Role) + "/" + string(c.Sel.Level)
	if c.Sel.Tier != "" {
		s += "/" + string(c.Sel.Tier)
	}
	return s
}

// Combos enumerates every domain, role and level, and for tiered domains
// every tier plus the untiered case.
func Combos(svc *adapter.Service) []Combo {
	var out []Combo
	for _, domain := range adapter.Domains() {
		tiers := []model.Tier{""}
		if d, ok := svc.Catalog().Domain(domain); ok && d.HasTiers() {
			tiers = append(tiers, model.AllTiers()...)
		}
		for _, role := range model.AllRoles() {
			for _, level := range model.AllLevels() {
				for _, tier := range tiers {
					out = append(out, Combo{
						Domain: domain,
						Sel:    adapter.Selection{Role: role, Level: level, Tier: tier},
					})
				}
			}
		}
	}
	return out
}

func (c Combo) finding(pass, path string, sev Severity, format string, args ...any) Finding {
	return Finding{
		Pass:     pass,
		Domain:   c.Domain,
		Combo:    c.String(),
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
	}
}
