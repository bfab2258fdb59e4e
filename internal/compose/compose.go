// Package compose implements the layered configuration merge engine.
//
// A domain describes itself with a Schema: canonical defaults keyed by field
// path plus a merge strategy per path. Compose folds any number of partial
// layers (role, then level, then tier) on top of the defaults, applies the
// derived-value passes and returns a total tree together with a Report of
// every override it had to reject.
package compose

import (
	"fmt"
	"sort"
	"strings"
)

// Tree is a decoded configuration document. Nested objects are Trees, lists
// are []any and leaves are strings, bools or numbers.
type Tree = map[string]any

// Strategy tags a field path with the rule used to combine layers.
type Strategy int

const (
	// Merge combines maps key by key and lets later scalars win.
	Merge Strategy = iota
	// Override replaces the value wholesale, even when it is a map.
	Override
	// Append concatenates text from every layer.
	Append
	// Distribution accepts a complete replacement weight set or keeps the prior one.
	Distribution
	// Rubric fills missing dimensions from the prior layer, then validates.
	Rubric
	// Clamp rejects numeric overrides outside [Min, Max].
	Clamp

	// Derived strategies run after all layers are folded.

	// Blend turns a base range and a multiplier into min, max and typical counts.
	Blend
	// Scale multiplies a count by the multiplier at Source.
	Scale
	// Adjust adds the delta at Source and clamps to [Min, Max].
	Adjust
	// Cap truncates a list to the length at Source.
	Cap
	// Tone writes the prompt fragment for the tone at Source.
	Tone
)

func (s Strategy) String() string {
	switch s {
	case Merge:
		return "merge"
	case Override:
		return "override"
	case Append:
		return "append"
	case Distribution:
		return "distribution"
	case Rubric:
		return "rubric"
	case Clamp:
		return "clamp"
	case Blend:
		return "blend"
	case Scale:
		return "scale"
	case Adjust:
		return "adjust"
	case Cap:
		return "cap"
	case Tone:
		return "tone"
	default:
		return "unknown"
	}
}

func (s Strategy) derived() bool { return s >= Blend }

// Rule attaches a Strategy to one dotted field path.
type Rule struct {
	Path     string
	Strategy Strategy

	// Keys lists the dimensions of a Distribution or Rubric, or the
	// min, max and typical field names of a Blend.
	Keys []string

	// Min and Max bound Clamp and Adjust. Min is also the floor for Scale.
	Min float64
	Max float64

	// Source is the path of the multiplier, delta, cap or tone that feeds
	// a derived strategy.
	Source string

	// Members names a list of objects whose MemberField receives the
	// derived value. With Split the Blend total is shared across members
	// instead of copied to each.
	Members     string
	MemberField string
	Split       bool
}

// Schema is everything the engine needs to know about one domain.
type Schema struct {
	Domain   string
	Defaults Tree
	Rules    []Rule
	Required []string

	index map[string]Rule
}

// NewSchema indexes rules by path. Later rules for the same path replace
// earlier ones.
func NewSchema(domain string, defaults Tree, rules []Rule, required ...string) *Schema {
	s := &Schema{
		Domain:   domain,
		Defaults: defaults,
		Rules:    rules,
		Required: required,
		index:    make(map[string]Rule, len(rules)),
	}
	for _, r := range rules {
		s.index[r.Path] = r
	}
	return s
}

// Rule returns the rule registered for path.
func (s *Schema) Rule(path string) (Rule, bool) {
	r, ok := s.index[path]
	return r, ok
}

// Default resolves the canonical default for a dotted path.
func (s *Schema) Default(path string) (any, bool) {
	v, ok := Get(s.Defaults, path)
	if !ok {
		return nil, false
	}
	return deepCopy(v), true
}

// Layer is one named partial configuration.
type Layer struct {
	Name string
	Tree Tree
}

// Issue describes a value the engine refused or had to fill in.
type Issue struct {
	Path    string `json:"path"`
	Layer   string `json:"layer,omitempty"`
	Message string `json:"message"`
	// Fatal marks a required path missing from every layer and the
	// defaults, which only a broken registry can cause.
	Fatal bool `json:"fatal,omitempty"`
}

func (i Issue) String() string {
	if i.Layer == "" {
		return fmt.Sprintf("%s: %s", i.Path, i.Message)
	}
	return fmt.Sprintf("%s (%s): %s", i.Path, i.Layer, i.Message)
}

// Report collects the issues raised by one Compose call.
type Report struct {
	Issues []Issue `json:"issues,omitempty"`
}

func (r *Report) add(path, layer, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: path, Layer: layer, Message: fmt.Sprintf(format, args...)})
}

// Fatal returns the issues that left a required field unpopulated.
func (r Report) Fatal() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Fatal {
			out = append(out, i)
		}
	}
	return out
}

// Compose folds layers over the schema defaults in order. The result is a
// fresh tree; neither the schema nor the layers are modified.
func Compose(s *Schema, layers ...Layer) (Tree, Report) {
	var rep Report
	out := Copy(s.Defaults)
	if out == nil {
		out = Tree{}
	}

	for _, l := range layers {
		if l.Tree == nil {
			continue
		}
		s.fold(out, l.Tree, "", l.Name, &rep)
	}

	s.finalize(out, &rep)
	s.derive(out, &rep)

	for _, path := range s.Required {
		if v, ok := Get(out, path); !ok || v == nil {
			rep.Issues = append(rep.Issues, Issue{Path: path, Message: "required field has no value", Fatal: true})
		}
	}
	return out, rep
}

func (s *Schema) fold(dst, src Tree, prefix, layer string, rep *Report) {
	for _, k := range sortedKeys(src) {
		v := src[k]
		if v == nil {
			continue
		}
		path := joinPath(prefix, k)

		rule, ok := s.index[path]
		if !ok || rule.Strategy.derived() {
			rule = Rule{Path: path, Strategy: Merge}
		}

		switch rule.Strategy {
		case Override:
			dst[k] = deepCopy(v)

		case Append:
			dst[k] = appendText(dst[k], v)

		case Distribution:
			if err := distributionError(v, rule.Keys); err != nil {
				rep.add(path, layer, "distribution override rejected: %v", err)
				continue
			}
			dst[k] = deepCopy(v)

		case Rubric:
			overlay, isTree := v.(Tree)
			if !isTree {
				rep.add(path, layer, "rubric override is not an object")
				continue
			}
			prior, _ := dst[k].(Tree)
			filled := FillRubric(prior, overlay)
			if err := distributionError(filled, rule.Keys); err != nil {
				rep.add(path, layer, "rubric override rejected: %v", err)
				continue
			}
			dst[k] = filled

		case Clamp:
			f, isNum := toFloat(v)
			if !isNum || !InRange(f, rule.Min, rule.Max) {
				rep.add(path, layer, "value %v outside [%s, %s]", v, fmtBound(rule.Min), fmtBound(rule.Max))
				continue
			}
			dst[k] = v

		default:
			sub, isTree := v.(Tree)
			if !isTree {
				dst[k] = deepCopy(v)
				continue
			}
			cur, curIsTree := dst[k].(Tree)
			if !curIsTree {
				cur = Tree{}
				dst[k] = cur
			}
			s.fold(cur, sub, path, layer, rep)
		}
	}
}

// finalize re-checks validated paths on the folded result so that a
// malformed role value cannot survive when no overlay replaced it.
func (s *Schema) finalize(out Tree, rep *Report) {
	for _, r := range s.Rules {
		var bad error
		v, present := Get(out, r.Path)

		switch r.Strategy {
		case Distribution, Rubric:
			if !present {
				bad = fmt.Errorf("missing")
			} else {
				bad = distributionError(v, r.Keys)
			}
		case Clamp:
			f, isNum := toFloat(v)
			if !present || !isNum {
				bad = fmt.Errorf("missing or not numeric")
			} else if !InRange(f, r.Min, r.Max) {
				bad = fmt.Errorf("%v outside [%s, %s]", v, fmtBound(r.Min), fmtBound(r.Max))
			}
		default:
			continue
		}

		if bad == nil {
			continue
		}
		def, ok := s.Default(r.Path)
		if !ok {
			rep.add(r.Path, "", "%v and no default is declared", bad)
			continue
		}
		Set(out, r.Path, def)
		rep.add(r.Path, "", "%v; using default", bad)
	}
}

func (s *Schema) derive(out Tree, rep *Report) {
	for _, r := range s.Rules {
		if !r.Strategy.derived() {
			continue
		}
		switch r.Strategy {
		case Cap:
			s.applyCap(out, r, rep)
		case Blend:
			s.applyBlend(out, r, rep)
		case Scale:
			s.applyScale(out, r, rep)
		case Adjust:
			s.applyAdjust(out, r, rep)
		case Tone:
			tone, _ := Get(out, r.Source)
			name, _ := tone.(string)
			if !KnownTone(name) {
				rep.add(r.Source, "", "unknown tone %q; using %q", name, NeutralTone)
			}
			Set(out, r.Path, ToneModifier(name))
		}
	}
}

func (s *Schema) applyCap(out Tree, r Rule, rep *Report) {
	v, ok := Get(out, r.Path)
	if !ok {
		return
	}
	list, isList := v.([]any)
	if !isList {
		rep.add(r.Path, "", "cap target is not a list")
		return
	}
	limit, ok := Get(out, r.Source)
	if !ok {
		return
	}
	n, isNum := toFloat(limit)
	if !isNum || n < 0 {
		rep.add(r.Source, "", "cap %v is not a non-negative number", limit)
		return
	}
	if int(n) < len(list) {
		Set(out, r.Path, list[:int(n)])
	}
}

func (s *Schema) applyBlend(out Tree, r Rule, rep *Report) {
	if len(r.Keys) != 3 {
		rep.add(r.Path, "", "blend rule needs min, max and typical keys")
		return
	}
	parent, ok := Get(out, r.Path)
	obj, isTree := parent.(Tree)
	if !ok || !isTree {
		rep.add(r.Path, "", "blend target is not an object")
		return
	}
	lo, _ := toFloat(obj[r.Keys[0]])
	hi, _ := toFloat(obj[r.Keys[1]])
	m := s.multiplier(out, r, rep)

	rng := BlendRange(lo, hi, m)
	obj[r.Keys[0]] = rng.Min
	obj[r.Keys[1]] = rng.Max
	obj[r.Keys[2]] = rng.Typical

	if r.Members == "" {
		return
	}
	members := memberObjects(out, r.Members)
	counts := make([]int, len(members))
	if r.Split {
		counts = SplitEven(rng.Typical, len(members))
	} else {
		for i := range counts {
			counts[i] = rng.Typical
		}
	}
	for i, obj := range members {
		obj[r.MemberField] = counts[i]
	}
}

func (s *Schema) applyScale(out Tree, r Rule, rep *Report) {
	m := s.multiplier(out, r, rep)
	floor := int(r.Min)

	if r.MemberField != "" {
		for _, obj := range memberObjects(out, r.Path) {
			if base, isNum := toFloat(obj[r.MemberField]); isNum {
				obj[r.MemberField] = ScaleCount(base, m, floor)
			}
		}
		return
	}

	v, ok := Get(out, r.Path)
	base, isNum := toFloat(v)
	if !ok || !isNum {
		rep.add(r.Path, "", "scale target is not numeric")
		return
	}
	Set(out, r.Path, ScaleCount(base, m, floor))
}

func (s *Schema) applyAdjust(out Tree, r Rule, rep *Report) {
	v, ok := Get(out, r.Path)
	base, isNum := toFloat(v)
	if !ok || !isNum {
		rep.add(r.Path, "", "adjust target is not numeric")
		return
	}
	var delta float64
	if d, ok := Get(out, r.Source); ok {
		if f, isNum := toFloat(d); isNum {
			delta = f
		} else {
			rep.add(r.Source, "", "adjustment %v is not numeric; ignoring", d)
		}
	}
	Set(out, r.Path, AdjustClamp(base, delta, r.Min, r.Max))
}

// multiplier reads the rule's Source, treating a missing or negative value
// as the identity.
func (s *Schema) multiplier(out Tree, r Rule, rep *Report) float64 {
	v, ok := Get(out, r.Source)
	if !ok {
		return 1
	}
	m, isNum := toFloat(v)
	if !isNum || m < 0 {
		rep.add(r.Source, "", "multiplier %v is invalid; using 1", v)
		return 1
	}
	return m
}

func memberObjects(t Tree, path string) []Tree {
	v, ok := Get(t, path)
	if !ok {
		return nil
	}
	list, _ := v.([]any)
	out := make([]Tree, 0, len(list))
	for _, item := range list {
		if obj, isTree := item.(Tree); isTree {
			out = append(out, obj)
		}
	}
	return out
}

func appendText(prior, next any) any {
	a, _ := prior.(string)
	b, ok := next.(string)
	if !ok {
		return deepCopy(next)
	}
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n\n" + b
}

func fmtBound(f float64) string {
	if f > 1e300 {
		return "inf"
	}
	return fmt.Sprintf("%g", f)
}

func sortedKeys(t Tree) []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
