// Package adapter is the public entry point for composed scenario
// configuration. Each domain exposes a GetXAdapter function that resolves
// unknown roles, levels and tiers to their documented defaults, composes the
// registries through the merge engine and decodes the result into a typed,
// fully populated adapter.
package adapter

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/adaptsim/internal/compose"
	"github.com/sprite-ai/adaptsim/internal/model"
	"github.com/sprite-ai/adaptsim/internal/registry"
)

// Domain names.
const (
	DomainOnboarding    = "onboarding"
	DomainPlanning      = "planning"
	DomainExecution     = "execution"
	DomainCodeExecution = "code_execution"
	DomainStandup       = "standup"
	DomainRetro         = "retro"
	DomainReview        = "review"
	DomainSoftSkills    = "soft_skills"
	DomainTeamIntro     = "team_intro"
	DomainComprehension = "comprehension"
)

// Domains lists every domain in the order a learner meets them.
func Domains() []string {
	return []string{
		DomainOnboarding,
		DomainTeamIntro,
		DomainComprehension,
		DomainPlanning,
		DomainStandup,
		DomainExecution,
		DomainCodeExecution,
		DomainReview,
		DomainRetro,
		DomainSoftSkills,
	}
}

// Selection is a resolved (role, level, tier) combination.
type Selection struct {
	Role  model.Role
	Level model.Level
	Tier  model.Tier
}

// Resolve applies the fallback policy: unknown role becomes developer,
// unknown level becomes intern, and a non-empty unknown tier becomes
// observer. An empty tier means no tier layer. The second return value lists
// what was substituted.
func Resolve(role, level, tier string) (Selection, []string) {
	var sel Selection
	var subs []string

	r, ok := model.ParseRole(role)
	if !ok {
		r = model.DefaultRole
		subs = append(subs, fmt.Sprintf("role %q -> %s", role, r))
	}
	l, ok := model.ParseLevel(level)
	if !ok {
		l = model.DefaultLevel
		subs = append(subs, fmt.Sprintf("level %q -> %s", level, l))
	}
	sel.Role, sel.Level = r, l

	if tier != "" {
		t, ok := model.ParseTier(tier)
		if !ok {
			t = model.DefaultTier
			subs = append(subs, fmt.Sprintf("tier %q -> %s", tier, t))
		}
		sel.Tier = t
	}
	return sel, subs
}

// Service composes adapters from a registry catalog.
type Service struct {
	catalog *registry.Catalog
	cache   *compose.Cache
	logger  *zap.Logger
	schemas map[string]*compose.Schema
}

// NewService builds a service over catalog. A nil logger discards output.
func NewService(catalog *registry.Catalog, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		catalog: catalog,
		cache:   compose.NewCache(),
		logger:  logger,
		schemas: make(map[string]*compose.Schema),
	}
	for _, name := range Domains() {
		d, ok := catalog.Domain(name)
		if !ok {
			return nil, fmt.Errorf("registry has no %q domain", name)
		}
		rules, required := domainRules(name)
		s.schemas[name] = compose.NewSchema(name, d.Defaults, rules, required...)
	}
	return s, nil
}

var (
	defaultOnce sync.Once
	defaultSvc  *Service
	defaultErr  error
)

// Default returns a shared service over the embedded registries.
func Default() (*Service, error) {
	defaultOnce.Do(func() {
		cat, err := registry.Load()
		if err != nil {
			defaultErr = fmt.Errorf("loading registries: %w", err)
			return
		}
		defaultSvc, defaultErr = NewService(cat, nil)
	})
	return defaultSvc, defaultErr
}

func mustDefault() *Service {
	s, err := Default()
	if err != nil {
		// Embedded registries are covered by tests; reaching this is a
		// build defect, not a runtime condition.
		panic(err)
	}
	return s
}

// Schema returns the merge schema of a domain.
func (s *Service) Schema(domain string) (*compose.Schema, bool) {
	sc, ok := s.schemas[domain]
	return sc, ok
}

// Catalog returns the registries the service composes from.
func (s *Service) Catalog() *registry.Catalog { return s.catalog }

// Tree composes the untyped adapter document for one combination, applying
// the fallback policy first.
func (s *Service) Tree(domain, role, level, tier string) (compose.Tree, Selection, error) {
	sel, subs := Resolve(role, level, tier)
	if len(subs) > 0 {
		s.logger.Debug("adapter fallback",
			zap.String("domain", domain),
			zap.Strings("substituted", subs))
	}
	tree, rep, err := s.compose(domain, sel)
	if err != nil {
		return nil, sel, err
	}
	for _, issue := range rep.Issues {
		s.logger.Warn("adapter data quality",
			zap.String("domain", domain),
			zap.String("role", string(sel.Role)),
			zap.String("level", string(sel.Level)),
			zap.String("tier", string(sel.Tier)),
			zap.String("path", issue.Path),
			zap.String("layer", issue.Layer),
			zap.String("issue", issue.Message))
	}
	return tree, sel, nil
}

// ComposeUncached runs the merge engine directly, bypassing the cache. The
// audit uses it to check determinism.
func (s *Service) ComposeUncached(domain string, sel Selection) (compose.Tree, compose.Report, error) {
	schema, ok := s.schemas[domain]
	if !ok {
		return nil, compose.Report{}, fmt.Errorf("unknown domain %q", domain)
	}
	tier := sel.Tier
	if d, _ := s.catalog.Domain(domain); d != nil && !d.HasTiers() {
		tier = ""
	}
	layers, err := s.catalog.Layers(domain, sel.Role, sel.Level, tier)
	if err != nil {
		return nil, compose.Report{}, err
	}
	tree, rep := compose.Compose(schema, layers...)
	return tree, rep, nil
}

func (s *Service) compose(domain string, sel Selection) (compose.Tree, compose.Report, error) {
	if _, ok := s.schemas[domain]; !ok {
		return nil, compose.Report{}, fmt.Errorf("unknown domain %q", domain)
	}
	key := compose.Key{Domain: domain, Role: string(sel.Role), Level: string(sel.Level), Tier: string(sel.Tier)}

	return s.cache.Get(key, func() (compose.Tree, compose.Report, error) {
		return s.ComposeUncached(domain, sel)
	})
}

// decode composes one domain and decodes it into out.
func (s *Service) decode(domain, role, level, tier string, out any) (Selection, error) {
	tree, sel, err := s.Tree(domain, role, level, tier)
	if err != nil {
		return sel, err
	}
	if err := decodeTree(tree, out); err != nil {
		return sel, fmt.Errorf("%s: decoding adapter: %w", domain, err)
	}
	return sel, nil
}

func decodeTree(tree compose.Tree, out any) error {
	var node yaml.Node
	if err := node.Encode(tree); err != nil {
		return err
	}
	return node.Decode(out)
}

// Adapter composes any domain into its typed adapter.
func (s *Service) Adapter(domain, role, level, tier string) (any, error) {
	switch domain {
	case DomainOnboarding:
		return s.Onboarding(role, level)
	case DomainPlanning:
		return s.Planning(role, level, tier)
	case DomainExecution:
		return s.Execution(role, level)
	case DomainCodeExecution:
		return s.CodeExecution(role, level)
	case DomainStandup:
		return s.Standup(role, level)
	case DomainRetro:
		return s.Retro(role, level)
	case DomainReview:
		return s.SprintReview(role, level)
	case DomainSoftSkills:
		return s.SoftSkills(role, level)
	case DomainTeamIntro:
		return s.TeamIntro(role, level)
	case DomainComprehension:
		return s.Comprehension(role, level)
	default:
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
}

// Metadata identifies the combination an adapter was composed for.
type Metadata struct {
	Role         model.Role  `json:"role" yaml:"role"`
	Level        model.Level `json:"level" yaml:"level"`
	Tier         model.Tier  `json:"tier,omitempty" yaml:"tier,omitempty"`
	DisplayName  string      `json:"displayName" yaml:"displayName"`
	Description  string      `json:"description" yaml:"description"`
	Scaffolding  string      `json:"scaffolding" yaml:"scaffolding"`
	Competencies []string    `json:"competencies,omitempty" yaml:"competencies,omitempty"`
}

func (m *Metadata) stamp(sel Selection) {
	m.Role = sel.Role
	m.Level = sel.Level
	m.Tier = sel.Tier
	m.DisplayName = sel.Level.Title() + " " + sel.Role.Title()
}

// Persona is a simulated teammate.
type Persona struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Role        string   `json:"role" yaml:"role"`
	Personality string   `json:"personality" yaml:"personality"`
	Color       string   `json:"color,omitempty" yaml:"color,omitempty"`
	Expertise   []string `json:"expertise,omitempty" yaml:"expertise,omitempty"`
}

// Weights is a named weight set such as a rubric or a distribution.
type Weights map[string]float64

// Sum adds every weight.
func (w Weights) Sum() float64 {
	return compose.Sum(w)
}
