package domain

import (
	"slices"
	"strings"
)

// SessionConfig identifies one experiment session: which export file to read
// and which label scheme applies to it. It is read-only once resolved.
type SessionConfig struct {
	ID             string              `json:"id" validate:"required"`
	File           string              `json:"file" validate:"required"`
	Phases         []string            `json:"phases,omitempty" validate:"dive,required"`
	PhaseMap       map[string]string   `json:"phase_map,omitempty" validate:"dive,keys,required,endkeys,required"`
	GroupIDs       map[string][]string `json:"group_ids,omitempty"`
	SexIDs         map[string][]string `json:"sex_ids,omitempty"`
	ComponentsFile string              `json:"components_file,omitempty"`
}

// IsContext reports whether the session is a context test, whose components
// are plain minute bins.
func (s SessionConfig) IsContext() bool {
	id := strings.ToLower(s.ID)
	return id == "context" || id == "ctx"
}

// TracksSex reports whether sex labels should be assigned.
func (s SessionConfig) TracksSex() bool {
	return len(s.SexIDs) > 0
}

// DeclaredPhases returns the set of phase labels a cleaned table may contain.
func (s SessionConfig) DeclaredPhases() []string {
	if len(s.Phases) > 0 {
		return slices.Clone(s.Phases)
	}
	if len(s.PhaseMap) > 0 {
		var phases []string
		for _, p := range s.PhaseMap {
			if !slices.Contains(phases, p) {
				phases = append(phases, p)
			}
		}
		slices.Sort(phases)
		return phases
	}
	if s.IsContext() {
		return []string{PhaseContext}
	}
	return []string{PhaseBaseline, PhaseTone, PhaseTrace, PhaseITI}
}

// PhaseFor looks up the declared phase of a component, ignoring case.
func (s SessionConfig) PhaseFor(component string) (string, bool) {
	if p, ok := s.PhaseMap[component]; ok {
		return p, true
	}
	for k, p := range s.PhaseMap {
		if strings.EqualFold(k, component) {
			return p, true
		}
	}
	return "", false
}

// ComponentTime is one labelled span of a TFC protocol, in seconds from
// session start.
type ComponentTime struct {
	Phase string  `json:"phase"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Contains reports whether t falls within the span, inclusive at both ends.
func (c ComponentTime) Contains(t float64) bool {
	return t >= c.Start && t <= c.End
}
