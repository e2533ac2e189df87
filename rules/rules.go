// Package rules validates assembled machines against business constraints:
// metadata completeness, graph well-formedness, reachability, and category
// heuristics. It consumes its own summary shape so it never shares state with
// the parser, and it scores findings independently of the lint checker.
package rules

import (
	"strings"

	machinegen "github.com/goliatone/go-machinegen"
	"github.com/goliatone/go-machinegen/diagram"
)

// Soft ceilings. Exceeding them is a warning, never an error.
const (
	MaxStates              = 50
	MaxTransitionsPerState = 20
)

// MachineSummary is the validator-facing shape of one assembled machine.
type MachineSummary struct {
	ID          string
	DisplayName string
	Category    machinegen.Category
	Initial     string
	States      []StateSummary
}

// StateSummary is one state with its outgoing targets.
type StateSummary struct {
	ID      string
	Label   string
	Final   bool
	Targets []string
	Line    int
}

// Result scores one validation pass. Valid means zero errors.
type Result struct {
	Diagnostics []machinegen.Diagnostic `json:"diagnostics"`
	Errors      int                     `json:"errors"`
	Warnings    int                     `json:"warnings"`
	Valid       bool                    `json:"valid"`
}

func newResult(diags []machinegen.Diagnostic) Result {
	machinegen.SortDiagnostics(diags)
	errs, warns := machinegen.CountSeverities(diags)
	return Result{Diagnostics: diags, Errors: errs, Warnings: warns, Valid: errs == 0}
}

// Summarize converts a parsed machine into the validator-facing shape.
func Summarize(m diagram.ParsedMachine) MachineSummary {
	s := MachineSummary{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		Category:    m.Category,
		Initial:     m.InitialNode,
	}
	for _, n := range m.Nodes {
		st := StateSummary{ID: n.ID, Label: n.Label, Final: n.IsFinal, Line: n.Line}
		for _, e := range m.OutgoingEdges(n.ID) {
			st.Targets = append(st.Targets, e.To)
		}
		s.States = append(s.States, st)
	}
	return s
}

// Validate checks one machine.
func Validate(m MachineSummary) Result {
	var diags []machinegen.Diagnostic

	if m.ID == "" {
		diags = append(diags, machinegen.Errorf(0, "machine has no identifier"))
	}
	if m.DisplayName == "" {
		diags = append(diags, machinegen.Errorf(0, "machine %q has no display name", m.ID))
	}
	if !m.Category.Valid() {
		diags = append(diags, machinegen.Errorf(0, "machine %q has unknown category %q", m.ID, m.Category))
	}
	if len(m.States) > MaxStates {
		diags = append(diags, machinegen.Warnf(0, "machine %q defines %d states, above the ceiling of %d", m.ID, len(m.States), MaxStates).
			WithSuggestion("split the flow into smaller machines"))
	}

	states := map[string]*StateSummary{}
	for i := range m.States {
		st := &m.States[i]
		if states[st.ID] != nil {
			diags = append(diags, machinegen.Errorf(st.Line, "duplicate state %q", st.ID))
			continue
		}
		states[st.ID] = st
	}

	switch {
	case m.Initial == "":
		diags = append(diags, machinegen.Errorf(0, "machine %q declares no initial state", m.ID))
	case states[m.Initial] == nil:
		diags = append(diags, machinegen.Errorf(0, "initial state %q is not declared", m.Initial))
	}

	for i := range m.States {
		st := m.States[i]
		if len(st.Targets) > MaxTransitionsPerState {
			diags = append(diags, machinegen.Warnf(st.Line, "state %q has %d outgoing transitions, above the ceiling of %d", st.ID, len(st.Targets), MaxTransitionsPerState))
		}
		for _, target := range st.Targets {
			if states[target] == nil {
				diags = append(diags, machinegen.Errorf(st.Line, "transition from %q targets undeclared state %q", st.ID, target))
			}
		}
		switch {
		case st.Final && len(st.Targets) > 0:
			diags = append(diags, machinegen.Errorf(st.Line, "final state %q has outgoing transitions", st.ID))
		case !st.Final && len(st.Targets) == 0:
			diags = append(diags, machinegen.Warnf(st.Line, "state %q is a dead end", st.ID).
				WithSuggestion("add an outgoing transition or mark the state final"))
		}
	}

	for _, st := range unreachable(m, states) {
		diags = append(diags, machinegen.Warnf(st.Line, "state %q is unreachable from %q", st.ID, m.Initial))
	}

	diags = append(diags, categoryHeuristics(m)...)
	return newResult(diags)
}

// ValidateBatch runs the cross-machine checks: name collisions and batch
// category mix. Per-machine findings stay in Validate.
func ValidateBatch(machines []MachineSummary) Result {
	var diags []machinegen.Diagnostic

	seen := map[string]string{}
	for _, m := range machines {
		if first, ok := seen[m.ID]; ok {
			diags = append(diags, machinegen.Errorf(0, "machine name %q is used by both %q and %q", m.ID, first, m.DisplayName))
			continue
		}
		seen[m.ID] = m.DisplayName
	}

	var hasUser, hasCore bool
	for _, m := range machines {
		hasUser = hasUser || m.Category == machinegen.CategoryUser
		hasCore = hasCore || m.Category == machinegen.CategoryCore
	}
	if len(machines) > 0 && !hasUser && !hasCore {
		diags = append(diags, machinegen.Warnf(0, "batch defines neither a user nor a core machine"))
	}
	return newResult(diags)
}

// unreachable returns states a forward walk from the initial state never
// reaches. Nothing to report when the initial state itself is missing; that
// is already an error.
func unreachable(m MachineSummary, states map[string]*StateSummary) []*StateSummary {
	if states[m.Initial] == nil {
		return nil
	}
	visited := map[string]bool{m.Initial: true}
	queue := []string{m.Initial}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, target := range states[id].Targets {
			if states[target] == nil || visited[target] {
				continue
			}
			visited[target] = true
			queue = append(queue, target)
		}
	}

	var out []*StateSummary
	for i := range m.States {
		if !visited[m.States[i].ID] {
			out = append(out, &m.States[i])
		}
	}
	return out
}

var (
	authKeywords = []string{"pin", "auth", "login", "verify"}
	menuKeywords = []string{"menu", "option", "select"}
)

// categoryHeuristics flags user machines missing the states user flows are
// expected to have.
func categoryHeuristics(m MachineSummary) []machinegen.Diagnostic {
	if m.Category != machinegen.CategoryUser {
		return nil
	}
	var diags []machinegen.Diagnostic
	if !anyStateMatches(m.States, authKeywords) {
		diags = append(diags, machinegen.Warnf(0, "user machine %q has no auth-like state", m.ID).
			WithSuggestion("add a state whose id or label mentions pin, auth, login, or verify"))
	}
	if !anyStateMatches(m.States, menuKeywords) {
		diags = append(diags, machinegen.Warnf(0, "user machine %q has no menu-like state", m.ID).
			WithSuggestion("add a state whose id or label mentions menu, option, or select"))
	}
	return diags
}

func anyStateMatches(states []StateSummary, keywords []string) bool {
	for _, st := range states {
		text := strings.ToLower(st.ID + " " + st.Label)
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}
