package compiler

import (
	"slices"
	"strconv"
	"strings"

	"github.com/roach88/omnikeys/internal/ir"
)

// Analysis is the read-only whole-configuration metadata built before any rule is
// lowered: leaders, sequence groups and their tries.
type Analysis struct {
	// Leaders are the single unmodified keys that begin a sequence, sorted.
	Leaders []ir.KeyCode

	// Groups are the sequence groups sorted by anchor identity.
	Groups []*Group

	// Chords are the single-step rules in input order.
	Chords []ChordRule

	leaders map[ir.KeyCode]bool
	groups  map[string]*Group
	opts    options
}

// Group is every sequence rule sharing the same first step.
type Group struct {
	Anchor   ir.Chord
	AnchorID string

	// Leader is set when the anchor is a single unmodified key. Leader groups enter
	// the automaton on a solitary tap; anchored groups enter on key-down.
	Leader bool

	Variable ir.VarName
	Root     *Node
}

// Node is one automaton state position in a group's trie.
type Node struct {
	Step  ir.Chord
	Path  []string
	State ir.IRString

	Children map[string]*Node

	// Finals are the actions bound to the path ending here, keyed by scope.
	Finals map[string]*Final
}

// Final is one action bound to a complete sequence path.
type Final struct {
	Action ir.Action
	When   *ir.When
	Rule   string
}

// ChordRule is a single-step rule with its resolved hold leader, if any.
type ChordRule struct {
	Rule ir.Rule

	// Leader is the held key for two-key chords; empty for one-key chords.
	Leader ir.KeyCode

	// Key is the key the production triggers on.
	Key ir.KeyCode
}

// IsState reports whether the node is a non-idle automaton state, i.e. some
// transition leaves it.
func (n *Node) IsState() bool {
	return len(n.Children) > 0
}

// SortedChildren returns the children ordered by step identity.
func (n *Node) SortedChildren() []*Node {
	ids := make([]string, 0, len(n.Children))
	for id := range n.Children {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = n.Children[id]
	}
	return out
}

// SortedFinals returns the finals ordered by scope key.
func (n *Node) SortedFinals() []*Final {
	keys := make([]string, 0, len(n.Finals))
	for k := range n.Finals {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]*Final, len(keys))
	for i, k := range keys {
		out[i] = n.Finals[k]
	}
	return out
}

// Walk visits the node and its descendants depth-first in canonical order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.SortedChildren() {
		c.Walk(fn)
	}
}

// States returns every non-idle state of the group in canonical order.
func (g *Group) States() []*Node {
	var out []*Node
	g.Root.Walk(func(n *Node) {
		if n.IsState() {
			out = append(out, n)
		}
	})
	return out
}

// IsLeader reports whether key begins a leader group.
func (a *Analysis) IsLeader(key ir.KeyCode) bool {
	return a.leaders[key]
}

// Group returns the group anchored at the given step identity.
func (a *Analysis) Group(anchorID string) (*Group, bool) {
	g, ok := a.groups[anchorID]
	return g, ok
}

// HoldVariable names the hold flag of a leader.
func (a *Analysis) HoldVariable(leader ir.KeyCode) ir.VarName {
	return ir.VarName(a.opts.namespace + ".hold." + string(leader))
}

// Analyze builds leader and trie metadata from the whole rule set.
// It returns every structural error it finds; lowering must not run on a failed
// analysis.
func Analyze(rules []ir.Rule, opts ...Option) (*Analysis, Errors) {
	a := &Analysis{
		leaders: make(map[ir.KeyCode]bool),
		groups:  make(map[string]*Group),
		opts:    buildOptions(opts),
	}

	var errs Errors
	var sequences []ir.Rule

	for i, r := range rules {
		if r.Source == "" {
			r.Source = ruleSource(i, r)
		}
		if e := checkShape(r); e != nil {
			errs = append(errs, e)
			continue
		}
		if r.Trigger.IsSequence() {
			sequences = append(sequences, r)
		} else {
			a.Chords = append(a.Chords, ChordRule{Rule: r})
		}
	}

	for _, r := range sequences {
		errs = append(errs, a.insert(r)...)
	}

	for _, g := range a.groups {
		if g.Leader {
			a.Leaders = append(a.Leaders, g.Anchor.Keys[0])
			a.leaders[g.Anchor.Keys[0]] = true
		}
		a.Groups = append(a.Groups, g)
	}
	slices.Sort(a.Leaders)
	slices.SortFunc(a.Groups, func(x, y *Group) int {
		return strings.Compare(x.AnchorID, y.AnchorID)
	})

	for _, g := range a.Groups {
		errs = append(errs, checkPrefixes(g)...)
	}

	errs = append(errs, a.resolveChords()...)

	return a, errs
}

func ruleSource(i int, r ir.Rule) string {
	return "rule[" + strconv.Itoa(i) + "] " + r.Trigger.String()
}

// checkShape rejects malformed IR before any metadata is built.
func checkShape(r ir.Rule) *CompileError {
	if len(r.Trigger.Steps) == 0 {
		return newError(ErrEmptyTrigger, r.Source, "trigger has no steps")
	}
	for i, step := range r.Trigger.Steps {
		if len(step.Keys) == 0 {
			return newError(ErrEmptyStep, r.Source, "step %d has no keys", i+1)
		}
	}
	switch r.Action.(type) {
	case ir.Emit, ir.Shell:
	case nil:
		return newError(ErrUnsupportedTrigger, r.Source, "rule has no action")
	default:
		return newError(ErrUnsupportedTrigger, r.Source, "unsupported action %T", r.Action)
	}
	if r.Trigger.IsSequence() {
		for i, step := range r.Trigger.Steps {
			if !step.IsSingleKey() {
				return newError(ErrUnsupportedTrigger, r.Source,
					"sequence step %d presses %d keys at once; sequence steps take one key", i+1, len(step.Keys))
			}
		}
	}
	return nil
}

// insert adds a sequence rule to its group's trie, reporting conflicting finals.
func (a *Analysis) insert(r ir.Rule) Errors {
	anchor := r.Trigger.Steps[0]
	anchorID := anchor.ID()

	g, ok := a.groups[anchorID]
	if !ok {
		g = &Group{
			Anchor:   anchor,
			AnchorID: anchorID,
			Leader:   anchor.IsBare(),
			Variable: ir.VarName(a.opts.namespace + ".seq." + anchorID),
		}
		g.Root = newNode(anchor, []string{anchorID})
		a.groups[anchorID] = g
	}

	n := g.Root
	for _, step := range r.Trigger.Steps[1:] {
		id := step.ID()
		child, ok := n.Children[id]
		if !ok {
			child = newNode(step, append(slices.Clone(n.Path), id))
			n.Children[id] = child
		}
		n = child
	}

	scope := r.When.Key()
	if prev, ok := n.Finals[scope]; ok {
		if prev.Action.String() == r.Action.String() {
			return nil
		}
		return Errors{newError(ErrConflictingMapping, r.Source,
			"%s in scope %s is already bound to %q by %s, cannot also bind %q",
			r.Trigger, scope, prev.Action, prev.Rule, r.Action)}
	}
	n.Finals[scope] = &Final{Action: r.Action, When: r.When, Rule: r.Source}
	return nil
}

func newNode(step ir.Chord, path []string) *Node {
	return &Node{
		Step:     step,
		Path:     path,
		State:    ir.IRString("seq:" + strings.Join(path, ":")),
		Children: make(map[string]*Node),
		Finals:   make(map[string]*Final),
	}
}

// checkPrefixes reports every complete path that is a strict prefix of another
// path in the same group, regardless of scope.
func checkPrefixes(g *Group) Errors {
	var errs Errors
	g.Root.Walk(func(n *Node) {
		if len(n.Finals) == 0 || !n.IsState() {
			return
		}
		var longer string
		n.Walk(func(d *Node) {
			if longer == "" && d != n && len(d.Finals) > 0 {
				longer = strings.Join(d.Path, ">")
			}
		})
		for _, f := range n.SortedFinals() {
			errs = append(errs, newError(ErrAmbiguousPrefix, f.Rule,
				"%s is a strict prefix of %s", strings.Join(n.Path, ">"), longer))
		}
	})
	return errs
}

// resolveChords classifies single-step rules against the leader set and reports
// chords that shadow a sequence anchor or that cannot be lowered. Duplicates are
// dropped.
func (a *Analysis) resolveChords() Errors {
	var errs Errors
	var kept []ChordRule
	bound := make(map[string]ChordRule)

	for _, cr := range a.Chords {
		c := &cr
		step := c.Rule.Trigger.Steps[0]
		src := c.Rule.Source

		if _, ok := a.groups[step.ID()]; ok {
			errs = append(errs, newError(ErrAmbiguousPrefix, src,
				"chord %s is the first step of a sequence", step.ID()))
			continue
		}

		switch len(step.Keys) {
		case 1:
			c.Key = step.Keys[0]
		case 2:
			first, second := step.Keys[0], step.Keys[1]
			switch {
			case a.leaders[first]:
				c.Leader, c.Key = first, second
			case a.leaders[second]:
				c.Leader, c.Key = second, first
			default:
				errs = append(errs, newError(ErrUnresolvedLeader, src,
					"neither %s nor %s begins a sequence, cannot tell a held leader from simultaneous keys", first, second))
				continue
			}
		default:
			errs = append(errs, newError(ErrUnsupportedTrigger, src,
				"chord presses %d keys at once; at most 2 are supported", len(step.Keys)))
			continue
		}

		trigger := ir.Chord{Keys: []ir.KeyCode{c.Key}, Modifiers: step.Modifiers}
		key := string(c.Leader) + "|" + trigger.ID() + "|" + c.Rule.When.Key()
		if prev, ok := bound[key]; ok {
			if prev.Rule.Action.String() != c.Rule.Action.String() {
				errs = append(errs, newError(ErrConflictingMapping, src,
					"%s in scope %s is already bound to %q by %s, cannot also bind %q",
					step.ID(), c.Rule.When.Key(), prev.Rule.Action, prev.Rule.Source, c.Rule.Action))
			}
			continue
		}
		bound[key] = *c
		kept = append(kept, *c)
	}

	a.Chords = kept
	return errs
}
