package api

import (
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/sprite-ai/adaptsim/internal/adapter"
	"github.com/sprite-ai/adaptsim/internal/audit"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Store().Len(),
	})
}

// --- Adapters ---

type domainJSON struct {
	Name     string `json:"name"`
	HasTiers bool   `json:"has_tiers"`
}

func (s *Server) handleDomains(w http.ResponseWriter, r *http.Request) {
	cat := s.sessions.Adapters().Catalog()
	var out []domainJSON
	for _, name := range adapter.Domains() {
		d, ok := cat.Domain(name)
		if !ok {
			continue
		}
		out = append(out, domainJSON{Name: name, HasTiers: d.HasTiers()})
	}
	s.writeJSON(w, http.StatusOK, out)
}

type adapterResponse struct {
	Domain        string   `json:"domain"`
	Role          string   `json:"role"`
	Level         string   `json:"level"`
	Tier          string   `json:"tier,omitempty"`
	Substitutions []string `json:"substitutions,omitempty"`
	Adapter       any      `json:"adapter"`
}

func (s *Server) handleAdapter(w http.ResponseWriter, r *http.Request) {
	domain := r.PathValue("domain")
	if !slices.Contains(adapter.Domains(), domain) {
		s.writeError(w, http.StatusNotFound, "unknown domain: "+domain)
		return
	}

	q := r.URL.Query()
	role, level, tier := q.Get("role"), q.Get("level"), q.Get("tier")
	if domain != adapter.DomainPlanning {
		tier = ""
	}

	a, err := s.sessions.Adapters().Adapter(domain, role, level, tier)
	if err != nil {
		s.logger.Error("composing adapter", zap.String("domain", domain), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sel, subs := adapter.Resolve(role, level, tier)
	s.writeJSON(w, http.StatusOK, adapterResponse{
		Domain:        domain,
		Role:          string(sel.Role),
		Level:         string(sel.Level),
		Tier:          string(sel.Tier),
		Substitutions: subs,
		Adapter:       a,
	})
}

// --- Audit ---

type auditResponse struct {
	Summary  string          `json:"summary"`
	Checked  int             `json:"checked"`
	Max      string          `json:"max"`
	Findings []audit.Finding `json:"findings"`
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var skip []string
	if v := r.URL.Query().Get("skip"); v != "" {
		skip = strings.Split(v, ",")
	}

	results, err := audit.Run(s.sessions.Adapters(), skip)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	findings := results.Findings
	if findings == nil {
		findings = []audit.Finding{}
	}
	s.writeJSON(w, http.StatusOK, auditResponse{
		Summary:  results.Summary(),
		Checked:  results.Checked,
		Max:      results.Max().String(),
		Findings: findings,
	})
}
