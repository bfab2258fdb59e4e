// Package registry loads the role profile, level overlay and tier overlay
// registries for every scenario domain.
//
// Each domain is one YAML document with four top-level sections:
//
//	defaults: the canonical value for every field of the domain's adapter
//	roles:    role -> partial config, optionally "extends: <role>"
//	levels:   level -> partial overlay
//	tiers:    tier -> partial overlay (planning only)
//
// The documents ship embedded in the binary; LoadDir overlays a directory of
// documents with the same layout on top of them.
package registry

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/adaptsim/internal/compose"
	"github.com/sprite-ai/adaptsim/internal/model"
)

//go:embed data/*.yaml
var embedded embed.FS

// Domain holds the registries of one scenario domain. Trees are never
// modified after loading.
type Domain struct {
	Name     string
	Defaults compose.Tree
	Roles    map[model.Role]compose.Tree
	Levels   map[model.Level]compose.Tree
	Tiers    map[model.Tier]compose.Tree
}

// HasTiers reports whether the domain defines tier overlays.
func (d *Domain) HasTiers() bool { return len(d.Tiers) > 0 }

// Catalog is the set of loaded domains.
type Catalog struct {
	domains map[string]*Domain
}

// document is the on-disk shape before role inheritance is resolved.
type document struct {
	Defaults compose.Tree            `yaml:"defaults"`
	Roles    map[string]compose.Tree `yaml:"roles"`
	Levels   map[string]compose.Tree `yaml:"levels"`
	Tiers    map[string]compose.Tree `yaml:"tiers"`
}

// Load parses the embedded registries.
func Load() (*Catalog, error) {
	docs, err := readDocs(embedded, "data")
	if err != nil {
		return nil, err
	}
	return build(docs)
}

// LoadDir parses the embedded registries and overlays every <domain>.yaml
// found in dir. A document for an unknown domain is an error.
func LoadDir(dir string) (*Catalog, error) {
	docs, err := readDocs(embedded, "data")
	if err != nil {
		return nil, err
	}
	extra, err := readDocs(os.DirFS(dir), ".")
	if err != nil {
		return nil, fmt.Errorf("registry dir %s: %w", dir, err)
	}
	for name, doc := range extra {
		base, ok := docs[name]
		if !ok {
			return nil, fmt.Errorf("registry dir %s: unknown domain %q", dir, name)
		}
		docs[name] = overlay(base, doc)
	}
	return build(docs)
}

// Domain returns the named domain.
func (c *Catalog) Domain(name string) (*Domain, bool) {
	d, ok := c.domains[name]
	return d, ok
}

// Domains lists the loaded domain names in sorted order.
func (c *Catalog) Domains() []string {
	names := make([]string, 0, len(c.domains))
	for n := range c.domains {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Layers returns the ordered role, level and tier layers for one
// combination. Inputs must already be valid; no fallback happens here.
func (c *Catalog) Layers(domain string, role model.Role, level model.Level, tier model.Tier) ([]compose.Layer, error) {
	d, ok := c.domains[domain]
	if !ok {
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
	r, ok := d.Roles[role]
	if !ok {
		return nil, fmt.Errorf("%s: no role profile for %q", domain, role)
	}
	l, ok := d.Levels[level]
	if !ok {
		return nil, fmt.Errorf("%s: no level overlay for %q", domain, level)
	}

	layers := []compose.Layer{
		{Name: "role:" + string(role), Tree: r},
		{Name: "level:" + string(level), Tree: l},
	}
	if tier != "" && d.HasTiers() {
		t, ok := d.Tiers[tier]
		if !ok {
			return nil, fmt.Errorf("%s: no tier overlay for %q", domain, tier)
		}
		layers = append(layers, compose.Layer{Name: "tier:" + string(tier), Tree: t})
	}
	return layers, nil
}

func readDocs(fsys fs.FS, dir string) (map[string]document, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	docs := make(map[string]document)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, e.Name())))
		if err != nil {
			return nil, err
		}
		var doc document
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		docs[strings.TrimSuffix(e.Name(), ".yaml")] = doc
	}
	return docs, nil
}

func overlay(base, extra document) document {
	out := document{
		Defaults: compose.MergeTrees(base.Defaults, extra.Defaults),
		Roles:    mergeSection(base.Roles, extra.Roles),
		Levels:   mergeSection(base.Levels, extra.Levels),
		Tiers:    mergeSection(base.Tiers, extra.Tiers),
	}
	return out
}

func mergeSection(base, extra map[string]compose.Tree) map[string]compose.Tree {
	out := make(map[string]compose.Tree, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = compose.MergeTrees(out[k], v)
	}
	return out
}

func build(docs map[string]document) (*Catalog, error) {
	c := &Catalog{domains: make(map[string]*Domain, len(docs))}
	for name, doc := range docs {
		d, err := buildDomain(name, doc)
		if err != nil {
			return nil, err
		}
		c.domains[name] = d
	}
	return c, nil
}

func buildDomain(name string, doc document) (*Domain, error) {
	if doc.Defaults == nil {
		return nil, fmt.Errorf("%s: missing defaults", name)
	}
	d := &Domain{
		Name:     name,
		Defaults: doc.Defaults,
		Roles:    make(map[model.Role]compose.Tree),
		Levels:   make(map[model.Level]compose.Tree),
		Tiers:    make(map[model.Tier]compose.Tree),
	}

	resolved := make(map[string]compose.Tree)
	for key := range doc.Roles {
		role, ok := model.ParseRole(key)
		if !ok {
			return nil, fmt.Errorf("%s: unknown role %q", name, key)
		}
		t, err := resolveRole(doc.Roles, key, resolved, nil)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		d.Roles[role] = t
	}
	for _, r := range model.AllRoles() {
		if _, ok := d.Roles[r]; !ok {
			return nil, fmt.Errorf("%s: missing role profile %q", name, r)
		}
	}

	for key, t := range doc.Levels {
		level, ok := model.ParseLevel(key)
		if !ok {
			return nil, fmt.Errorf("%s: unknown level %q", name, key)
		}
		d.Levels[level] = t
	}
	for _, l := range model.AllLevels() {
		if _, ok := d.Levels[l]; !ok {
			return nil, fmt.Errorf("%s: missing level overlay %q", name, l)
		}
	}

	for key, t := range doc.Tiers {
		tier, ok := model.ParseTier(key)
		if !ok {
			return nil, fmt.Errorf("%s: unknown tier %q", name, key)
		}
		d.Tiers[tier] = t
	}
	if len(d.Tiers) > 0 {
		for _, t := range model.AllTiers() {
			if _, ok := d.Tiers[t]; !ok {
				return nil, fmt.Errorf("%s: missing tier overlay %q", name, t)
			}
		}
	}
	return d, nil
}

// resolveRole flattens the extends chain of one role.
func resolveRole(roles map[string]compose.Tree, key string, done map[string]compose.Tree, chain []string) (compose.Tree, error) {
	if t, ok := done[key]; ok {
		return t, nil
	}
	for _, seen := range chain {
		if seen == key {
			return nil, fmt.Errorf("role inheritance cycle: %s -> %s", strings.Join(chain, " -> "), key)
		}
	}
	raw, ok := roles[key]
	if !ok {
		return nil, fmt.Errorf("role %q extends unknown role %q", chain[len(chain)-1], key)
	}

	own := compose.Copy(raw)
	parent, _ := own["extends"].(string)
	delete(own, "extends")

	t := own
	if parent != "" {
		base, err := resolveRole(roles, parent, done, append(chain, key))
		if err != nil {
			return nil, err
		}
		t = compose.MergeTrees(base, own)
	}
	done[key] = t
	return t, nil
}
