package audit

import (
	"fmt"
	"math"

	"github.com/google/go-cmp/cmp"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/compose"
	"github.com/sprite-ai/adaptsim/internal/model"
)

// TotalityPass composes and decodes every combination. Missing required
// fields and decode failures are errors; values the engine refused or
// replaced with a default are warnings.
func TotalityPass(svc *adapter.Service, combos []Combo) []Finding {
	var findings []Finding
	for _, c := range combos {
		_, rep, err := svc.ComposeUncached(c.Domain, c.Sel)
		if err != nil {
			findings = append(findings, c.finding("totality", "", SeverityError, "compose: %v", err))
			continue
		}
		for _, issue := range rep.Issues {
			sev := SeverityWarning
			if issue.Fatal {
				sev = SeverityError
			}
			msg := issue.Message
			if issue.Layer != "" {
				msg = fmt.Sprintf("%s (from %s)", msg, issue.Layer)
			}
			findings = append(findings, c.finding("totality", issue.Path, sev, "%s", msg))
		}
		if _, err := svc.Adapter(c.Domain, string(c.Sel.Role), string(c.Sel.Level), string(c.Sel.Tier)); err != nil {
			findings = append(findings, c.finding("totality", "", SeverityError, "decode: %v", err))
		}
	}
	return findings
}

// DistributionPass checks that every distribution and rubric of the composed
// result covers its dimensions and sums to 1.
func DistributionPass(svc *adapter.Service, combos []Combo) []Finding {
	var findings []Finding
	for _, c := range combos {
		schema, ok := svc.Schema(c.Domain)
		if !ok {
			continue
		}
		tree, _, err := svc.ComposeUncached(c.Domain, c.Sel)
		if err != nil {
			continue
		}
		for _, r := range schema.Rules {
			if r.Strategy != compose.Distribution && r.Strategy != compose.Rubric {
				continue
			}
			v, ok := compose.Get(tree, r.Path)
			if !ok {
				findings = append(findings, c.finding("distributions", r.Path, SeverityError, "%s is missing", r.Strategy))
				continue
			}
			if err := compose.ValidDistribution(compose.Weights(v), r.Keys); err != nil {
				findings = append(findings, c.finding("distributions", r.Path, SeverityError, "%v", err))
			}
		}
	}
	return findings
}

// RangePass checks blended count ranges, clamped numbers and capped lists.
func RangePass(svc *adapter.Service, combos []Combo) []Finding {
	var findings []Finding
	for _, c := range combos {
		schema, ok := svc.Schema(c.Domain)
		if !ok {
			continue
		}
		tree, _, err := svc.ComposeUncached(c.Domain, c.Sel)
		if err != nil {
			continue
		}
		for _, r := range schema.Rules {
			switch r.Strategy {
			case compose.Blend:
				findings = append(findings, checkBlend(c, tree, r)...)
			case compose.Clamp:
				v, _ := compose.Get(tree, r.Path)
				if f, isNum := compose.Number(v); !isNum || !compose.InRange(f, r.Min, r.Max) {
					findings = append(findings, c.finding("ranges", r.Path, SeverityError,
						"%v is outside [%g, %g]", v, r.Min, r.Max))
				}
			case compose.Cap:
				findings = append(findings, checkCap(c, tree, r)...)
			}
		}
	}
	return findings
}

func checkBlend(c Combo, tree compose.Tree, r compose.Rule) []Finding {
	if len(r.Keys) != 3 {
		return nil
	}
	obj, _ := compose.Get(tree, r.Path)
	t, ok := obj.(compose.Tree)
	if !ok {
		return []Finding{c.finding("ranges", r.Path, SeverityError, "blended range is not an object")}
	}
	lo, _ := compose.Number(t[r.Keys[0]])
	hi, _ := compose.Number(t[r.Keys[1]])
	typ, _ := compose.Number(t[r.Keys[2]])

	var findings []Finding
	if lo > typ || typ > hi {
		findings = append(findings, c.finding("ranges", r.Path, SeverityError,
			"%s=%g, %s=%g, %s=%g are not ordered", r.Keys[0], lo, r.Keys[2], typ, r.Keys[1], hi))
	}
	if r.Members == "" || !r.Split {
		return findings
	}
	list, _ := compose.Get(tree, r.Members)
	members, _ := list.([]any)
	if len(members) == 0 {
		return findings
	}
	var total float64
	for _, m := range members {
		if mt, ok := m.(compose.Tree); ok {
			n, _ := compose.Number(mt[r.MemberField])
			total += n
		}
	}
	if total != typ {
		findings = append(findings, c.finding("ranges", r.Members, SeverityError,
			"%s adds up to %g, want %g", r.MemberField, total, typ))
	}
	return findings
}

func checkCap(c Combo, tree compose.Tree, r compose.Rule) []Finding {
	v, ok := compose.Get(tree, r.Path)
	if !ok {
		return nil
	}
	list, _ := v.([]any)
	limit, ok := compose.Get(tree, r.Source)
	if !ok {
		return nil
	}
	n, _ := compose.Number(limit)
	if float64(len(list)) > n {
		return []Finding{c.finding("ranges", r.Path, SeverityError, "%d items exceed the cap of %g", len(list), n)}
	}
	return nil
}

type fallbackCase struct {
	what string
	role, level, tier string
	want adapter.Selection
}

// FallbackPass checks that unknown inputs resolve to the documented
// defaults: an unknown role composes exactly like developer, an unknown
// level like intern, and an unknown tier like observer.
func FallbackPass(svc *adapter.Service, _ []Combo) []Finding {
	const bogus = "no-such-value"
	var findings []Finding
	for _, domain := range adapter.Domains() {
		c := Combo{Domain: domain}
		cases := []fallbackCase{
			{"role", bogus, "mid", "", adapter.Selection{Role: model.RoleDeveloper, Level: model.LevelMid}},
			{"level", "qa", bogus, "", adapter.Selection{Role: model.RoleQA, Level: model.LevelIntern}},
		}
		if d, ok := svc.Catalog().Domain(domain); ok && d.HasTiers() {
			cases = append(cases, fallbackCase{"tier", "pm", "junior", bogus,
				adapter.Selection{Role: model.RolePM, Level: model.LevelJunior, Tier: model.TierObserver}})
		}
		for _, tc := range cases {
			got, sel, err := svc.Tree(domain, tc.role, tc.level, tc.tier)
			if err != nil {
				findings = append(findings, c.finding("fallback", "", SeverityError, "unknown %s: %v", tc.what, err))
				continue
			}
			if sel != tc.want {
				findings = append(findings, c.finding("fallback", "", SeverityError,
					"unknown %s resolved to %+v, want %+v", tc.what, sel, tc.want))
				continue
			}
			want, _, err := svc.Tree(domain, string(tc.want.Role), string(tc.want.Level), string(tc.want.Tier))
			if err != nil {
				continue
			}
			if diff := cmp.Diff(want, got); diff != "" {
				findings = append(findings, c.finding("fallback", "", SeverityError,
					"unknown %s does not compose like the default (-want +got):\n%s", tc.what, diff))
			}
		}
	}
	return findings
}

// DeterminismPass composes every combination twice, bypassing the cache, and
// compares the results.
func DeterminismPass(svc *adapter.Service, combos []Combo) []Finding {
	var findings []Finding
	for _, c := range combos {
		a, _, errA := svc.ComposeUncached(c.Domain, c.Sel)
		b, _, errB := svc.ComposeUncached(c.Domain, c.Sel)
		if errA != nil || errB != nil {
			continue
		}
		if diff := cmp.Diff(a, b, cmp.Comparer(floatEqual)); diff != "" {
			findings = append(findings, c.finding("determinism", "", SeverityError,
				"two compositions differ (-first +second):\n%s", diff))
		}
	}
	return findings
}

func floatEqual(x, y float64) bool {
	return x == y || (math.IsNaN(x) && math.IsNaN(y))
}
