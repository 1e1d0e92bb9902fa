package compiler

import (
	"slices"

	"github.com/roach88/omnikeys/internal/ir"
)

// lowerGroup emits the automaton of one sequence group: its entry production,
// one transition per trie edge, modifier pass-through, leader re-entry and
// wrong-key cancellation for every live state.
func lowerGroup(a *Analysis, g *Group) []ir.Production {
	out := []ir.Production{rootProduction(a, g)}

	for _, state := range g.States() {
		for _, child := range state.SortedChildren() {
			out = append(out, transitions(a, g, state, child)...)
		}
		out = append(out, passthroughs(a, g, state)...)
		out = append(out, leaderReentries(a, g, state)...)
		out = append(out, cancelProduction(g, state))
	}
	return out
}

// rootProduction enters the group's root state. A leader tracks its hold flag on
// press/release and enters the root only when tapped alone; an anchored group
// enters on key-down.
func rootProduction(a *Analysis, g *Group) ir.Production {
	enter := ir.SetVar(g.Variable, g.Root.State)

	if !g.Leader {
		return ir.Production{
			Tier:    ir.TierRoot,
			Trigger: stepTrigger(g.Anchor),
			Effects: []ir.Effect{enter},
			Delayed: timeout(a, g),
		}
	}

	leader := g.Anchor.Keys[0]
	hold := a.HoldVariable(leader)
	return ir.Production{
		Tier:       ir.TierRoot,
		Trigger:    ir.Trigger{Key: leader},
		Effects:    []ir.Effect{ir.SetVar(hold, ir.IRInt(1))},
		AfterKeyUp: []ir.Effect{ir.SetVar(hold, ir.IRInt(0))},
		IfAlone:    []ir.Effect{enter},
		Delayed:    timeout(a, g),
	}
}

// transitions lowers the edge state -> child. Intermediate edges advance the state
// and re-arm the timeout; they are shared by every sequence through them and are
// never scoped. Final edges reset to idle and run the bound action, one production
// per scope.
func transitions(a *Analysis, g *Group, state, child *Node) []ir.Production {
	cond := []ir.Condition{{Variable: g.Variable, Value: state.State}}

	if child.IsState() {
		return []ir.Production{{
			Tier:       ir.TierTransition,
			Trigger:    stepTrigger(child.Step),
			Conditions: cond,
			Effects:    []ir.Effect{ir.SetVar(g.Variable, child.State)},
			Delayed:    timeout(a, g),
		}}
	}

	var out []ir.Production
	for _, f := range child.SortedFinals() {
		effects := []ir.Effect{ir.SetVar(g.Variable, IdleState)}
		effects = append(effects, actionEffects(f.Action)...)
		out = append(out, ir.Production{
			Tier:       ir.TierTransition,
			Trigger:    stepTrigger(child.Step),
			Conditions: cond,
			Effects:    effects,
			Scope:      scopeOf(f.When),
		})
	}
	return out
}

// passthroughs re-emits the modifier keys that an outgoing transition of state
// needs, so the catch-all cancellation does not swallow them.
func passthroughs(a *Analysis, g *Group, state *Node) []ir.Production {
	var keys []ir.KeyCode
	for _, child := range state.Children {
		for _, m := range child.Step.Modifiers {
			keys = append(keys, m.KeyCodes()...)
		}
	}
	slices.Sort(keys)
	keys = slices.Compact(keys)

	out := make([]ir.Production, 0, len(keys))
	for _, k := range keys {
		out = append(out, ir.Production{
			Tier:       ir.TierPassthrough,
			Trigger:    ir.Trigger{Key: k, AnyOptional: true},
			Conditions: []ir.Condition{{Variable: g.Variable, Value: state.State}},
			Effects:    []ir.Effect{ir.EmitChord(ir.KeyChord{Key: k})},
			Delayed:    timeout(a, g),
		})
	}
	return out
}

// leaderReentries keeps leader hold tracking alive while state is live. A bare
// leader press that no transition of state claims abandons the group and then
// behaves exactly like that leader's root: hold flag on press and release, root
// entry when tapped alone.
func leaderReentries(a *Analysis, g *Group, state *Node) []ir.Production {
	var out []ir.Production
	for _, leader := range a.Leaders {
		if _, claimed := state.Children[string(leader)]; claimed {
			continue
		}
		lg, ok := a.Group(string(leader))
		if !ok {
			continue
		}
		root := rootProduction(a, lg)
		out = append(out, ir.Production{
			Tier:       ir.TierPassthrough,
			Trigger:    root.Trigger,
			Conditions: []ir.Condition{{Variable: g.Variable, Value: state.State}},
			Effects:    append([]ir.Effect{ir.SetVar(g.Variable, IdleState)}, root.Effects...),
			AfterKeyUp: root.AfterKeyUp,
			IfAlone:    root.IfAlone,
			Delayed:    root.Delayed,
		})
	}
	return out
}

// cancelProduction resets state to idle on any key no transition claimed.
func cancelProduction(g *Group, state *Node) ir.Production {
	return ir.Production{
		Tier:       ir.TierCancel,
		Trigger:    ir.Trigger{Any: true, AnyOptional: true},
		Conditions: []ir.Condition{{Variable: g.Variable, Value: state.State}},
		Effects:    []ir.Effect{ir.SetVar(g.Variable, IdleState)},
	}
}

// stepTrigger matches a sequence step exactly: its modifiers and no others.
func stepTrigger(step ir.Chord) ir.Trigger {
	return ir.Trigger{Key: step.Keys[0], Mandatory: step.Modifiers.Normalize()}
}

func timeout(a *Analysis, g *Group) *ir.Delayed {
	return &ir.Delayed{
		DelayMS:   a.opts.timeoutMS,
		OnInvoked: []ir.Effect{ir.SetVar(g.Variable, IdleState)},
	}
}
