package compiler

import "github.com/roach88/omnikeys/internal/ir"

// lowerChord emits one production for a single-step rule. One-key chords match on
// mandatory modifiers and tolerate others. Two-key chords become "leader held +
// key", gated on the leader's hold flag.
func lowerChord(a *Analysis, c ChordRule) ir.Production {
	step := c.Rule.Trigger.Steps[0]
	p := ir.Production{
		Tier: ir.TierChord,
		Trigger: ir.Trigger{
			Key:         c.Key,
			Mandatory:   step.Modifiers.Normalize(),
			AnyOptional: true,
		},
		Effects: actionEffects(c.Rule.Action),
		Scope:   scopeOf(c.Rule.When),
	}

	if c.Leader != "" {
		p.Tier = ir.TierHold
		p.Conditions = []ir.Condition{{Variable: a.HoldVariable(c.Leader), Value: ir.IRInt(1)}}
	}
	return p
}
