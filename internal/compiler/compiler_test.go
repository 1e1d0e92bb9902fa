package compiler

import (
	"encoding/json"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/omnikeys/internal/dsl"
	"github.com/roach88/omnikeys/internal/ir"
)

// rule parses trigger and emit expressions into a rule scoped to apps.
func rule(t *testing.T, trigger, emit string, apps ...string) ir.Rule {
	t.Helper()
	p, err := dsl.NewParser(dsl.Aliases{})
	require.NoError(t, err)
	r, err := p.ParseRule(trigger, emit)
	require.NoError(t, err)
	if len(apps) > 0 {
		r.When = &ir.When{Applications: apps}
	}
	return r
}

func mustCompile(t *testing.T, rules ...ir.Rule) []ir.Production {
	t.Helper()
	set, err := Compile(rules, "test")
	require.NoError(t, err)
	return set.Productions
}

func byTier(prods []ir.Production, tier ir.Tier) []ir.Production {
	var out []ir.Production
	for _, p := range prods {
		if p.Tier == tier {
			out = append(out, p)
		}
	}
	return out
}

func onKey(prods []ir.Production, key ir.KeyCode) []ir.Production {
	var out []ir.Production
	for _, p := range prods {
		if p.Trigger.Key == key {
			out = append(out, p)
		}
	}
	return out
}

func cond(name string, v ir.IRValue) []ir.Condition {
	return []ir.Condition{{Variable: ir.VarName(name), Value: v}}
}

func idleTimeout(name string) *ir.Delayed {
	return &ir.Delayed{
		DelayMS:   DefaultTimeoutMS,
		OnInvoked: []ir.Effect{ir.SetVar(ir.VarName(name), IdleState)},
	}
}

// =============================================================================
// Scenarios
// =============================================================================

func TestCompileTwoStepSequence(t *testing.T) {
	prods := mustCompile(t, rule(t, "f18>w", "1", "com.example.app"))
	require.Len(t, prods, 4)

	// First-match order: transition, leader re-entry, cancel, root.
	final := prods[0]
	assert.Equal(t, ir.TierTransition, final.Tier)
	assert.Equal(t, ir.KeyCode("w"), final.Trigger.Key)
	assert.Equal(t, cond("omni.seq.f18", ir.IRString("seq:f18")), final.Conditions)
	assert.Equal(t, []ir.Effect{
		ir.SetVar("omni.seq.f18", IdleState),
		ir.EmitChord(ir.KeyChord{Key: "1"}),
	}, final.Effects)
	require.NotNil(t, final.Scope)
	assert.Equal(t, []string{"com.example.app"}, final.Scope.Applications)
	assert.Nil(t, final.Delayed, "finals do not re-arm the timeout")

	reentry := prods[1]
	assert.Equal(t, ir.TierPassthrough, reentry.Tier)
	assert.Equal(t, ir.KeyCode("f18"), reentry.Trigger.Key)

	cancel := prods[2]
	assert.Equal(t, ir.TierCancel, cancel.Tier)
	assert.True(t, cancel.Trigger.Any)
	assert.Equal(t, cond("omni.seq.f18", ir.IRString("seq:f18")), cancel.Conditions)
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.seq.f18", IdleState)}, cancel.Effects)
	assert.Nil(t, cancel.Scope)

	root := prods[3]
	assert.Equal(t, ir.TierRoot, root.Tier)
	assert.Equal(t, ir.KeyCode("f18"), root.Trigger.Key)
	assert.Empty(t, root.Conditions, "entry must not require a previous state")
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.seq.f18", ir.IRString("seq:f18"))}, root.IfAlone)
	assert.Equal(t, idleTimeout("omni.seq.f18"), root.Delayed)
	assert.Nil(t, root.Scope, "leader tracking is never scoped")
}

func TestCompileThreeStepSequence(t *testing.T) {
	prods := mustCompile(t, rule(t, "f18>w>v", "2"))
	require.Len(t, prods, 7)

	trans := byTier(prods, ir.TierTransition)
	require.Len(t, trans, 2)

	// Sorted by trigger key: v before w.
	final, mid := trans[0], trans[1]

	assert.Equal(t, ir.KeyCode("w"), mid.Trigger.Key)
	assert.Equal(t, cond("omni.seq.f18", ir.IRString("seq:f18")), mid.Conditions)
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.seq.f18", ir.IRString("seq:f18:w"))}, mid.Effects)
	assert.Equal(t, idleTimeout("omni.seq.f18"), mid.Delayed)
	assert.Nil(t, mid.Scope)

	assert.Equal(t, ir.KeyCode("v"), final.Trigger.Key)
	assert.Equal(t, cond("omni.seq.f18", ir.IRString("seq:f18:w")), final.Conditions)
	assert.Equal(t, []ir.Effect{
		ir.SetVar("omni.seq.f18", IdleState),
		ir.EmitChord(ir.KeyChord{Key: "2"}),
	}, final.Effects)

	cancels := byTier(prods, ir.TierCancel)
	require.Len(t, cancels, 2)
	assert.Equal(t, cond("omni.seq.f18", ir.IRString("seq:f18")), cancels[0].Conditions)
	assert.Equal(t, cond("omni.seq.f18", ir.IRString("seq:f18:w")), cancels[1].Conditions)

	require.Len(t, byTier(prods, ir.TierRoot), 1)
	assert.Len(t, byTier(prods, ir.TierPassthrough), 2, "every live state re-enters on the leader")
}

func TestCompileLeaderReentry(t *testing.T) {
	prods := mustCompile(t,
		rule(t, "f18>w", "1"),
		rule(t, "f19>a", "2"),
	)

	reentries := onKey(byTier(prods, ir.TierPassthrough), "f18")
	require.Len(t, reentries, 2, "one per live state of every group")

	// f19's root state abandoned for the f18 leader.
	var fromF19 ir.Production
	for _, p := range reentries {
		if p.Conditions[0].Variable == "omni.seq.f19" {
			fromF19 = p
		}
	}
	require.NotEmpty(t, fromF19.Conditions)
	assert.Equal(t, cond("omni.seq.f19", ir.IRString("seq:f19")), fromF19.Conditions)
	assert.Equal(t, []ir.Effect{
		ir.SetVar("omni.seq.f19", IdleState),
		ir.SetVar("omni.hold.f18", ir.IRInt(1)),
	}, fromF19.Effects)
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.hold.f18", ir.IRInt(0))}, fromF19.AfterKeyUp)
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.seq.f18", ir.IRString("seq:f18"))}, fromF19.IfAlone)
	assert.Equal(t, idleTimeout("omni.seq.f18"), fromF19.Delayed)
	assert.False(t, fromF19.Trigger.AnyOptional, "only a bare leader press re-enters")
}

func TestCompileLeaderReentrySkipsClaimedKey(t *testing.T) {
	prods := mustCompile(t, rule(t, "f18>f18", "escape"))

	assert.Empty(t, byTier(prods, ir.TierPassthrough), "f18 is a transition of seq:f18")
	finals := onKey(byTier(prods, ir.TierTransition), "f18")
	require.Len(t, finals, 1)
}

func TestCompileLeaderHoldVsTap(t *testing.T) {
	prods := mustCompile(t,
		rule(t, "f18>w>v", "1"),
		rule(t, "f18+h", "left_arrow"),
	)

	roots := onKey(byTier(prods, ir.TierRoot), "f18")
	require.Len(t, roots, 1)
	root := roots[0]
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.hold.f18", ir.IRInt(1))}, root.Effects)
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.hold.f18", ir.IRInt(0))}, root.AfterKeyUp)
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.seq.f18", ir.IRString("seq:f18"))}, root.IfAlone)

	holds := byTier(prods, ir.TierHold)
	require.Len(t, holds, 1)
	h := holds[0]
	assert.Equal(t, ir.KeyCode("h"), h.Trigger.Key)
	assert.Equal(t, cond("omni.hold.f18", ir.IRInt(1)), h.Conditions, "gated on the hold flag only")
	assert.Equal(t, []ir.Effect{ir.EmitChord(ir.KeyChord{Key: "left_arrow"})}, h.Effects)
}

func TestCompileModifierFidelity(t *testing.T) {
	prods := mustCompile(t, rule(t, "right_command+right_shift+h", "cmd+shift+left_arrow"))
	require.Len(t, prods, 1)
	p := prods[0]

	want := ir.ModifierSet{ir.ModRightCommand, ir.ModRightShift}
	assert.Equal(t, want, p.Trigger.Mandatory)
	assert.True(t, p.Trigger.AnyOptional, "other modifiers are tolerated")
	assert.True(t, want.SatisfiedBy(ir.ModifierSet{ir.ModRightCommand, ir.ModRightShift}))
	assert.False(t, want.SatisfiedBy(ir.ModifierSet{ir.ModLeftCommand, ir.ModLeftShift}),
		"left-sided equivalents must not match")

	require.Len(t, p.Effects, 1)
	require.NotNil(t, p.Effects[0].Emit)
	assert.Equal(t, ir.ModifierSet{ir.ModCommand, ir.ModShift}, p.Effects[0].Emit.Modifiers)
	assert.Equal(t, ir.KeyCode("left_arrow"), p.Effects[0].Emit.Key)
}

// =============================================================================
// Properties
// =============================================================================

func richRules(t *testing.T) []ir.Rule {
	return []ir.Rule{
		rule(t, "f18>w>v", "1", "com.example.app"),
		rule(t, "f18>w>h", "2"),
		rule(t, "f18>t", "3"),
		rule(t, "f18>cmd+s", "4"),
		rule(t, "f19>a>b>c", "5"),
		rule(t, "cmd+k>c", "6"),
		rule(t, "f18+h", "left_arrow"),
		rule(t, "f19+j", "down_arrow"),
		rule(t, "cmd+h", "home"),
		rule(t, "h", "7", "com.example.other"),
	}
}

func TestCompileDeterministic(t *testing.T) {
	rules := richRules(t)

	first, err := Compile(rules, "rich")
	require.NoError(t, err)
	second, err := Compile(rules, "rich")
	require.NoError(t, err)

	reversed := slices.Clone(rules)
	slices.Reverse(reversed)
	third, err := Compile(reversed, "rich")
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	c, err := json.Marshal(third)
	require.NoError(t, err)

	assert.Equal(t, string(a), string(b))
	assert.Equal(t, string(a), string(c), "input order must not change output")
	h1, err := ir.ProductionSetHash(first)
	require.NoError(t, err)
	h3, err := ir.ProductionSetHash(third)
	require.NoError(t, err)
	assert.Equal(t, h1, h3)
}

func TestCompileNoDanglingState(t *testing.T) {
	rules := richRules(t)
	set, err := Compile(rules, "rich")
	require.NoError(t, err)

	a, errs := Analyze(rules)
	require.Empty(t, errs)

	for _, g := range a.Groups {
		for _, state := range g.States() {
			want := cond(string(g.Variable), state.State)

			var cancelled, armed bool
			for _, p := range set.Productions {
				if p.Tier == ir.TierCancel && p.Trigger.Any && slices.Equal(p.Conditions, want) {
					cancelled = true
				}
				if entersState(p, g.Variable, state.State) && reflect.DeepEqual(p.Delayed.OnInvoked,
					[]ir.Effect{ir.SetVar(g.Variable, IdleState)}) {
					armed = true
				}
			}
			assert.True(t, cancelled, "state %s has no cancellation", state.State)
			assert.True(t, armed, "state %s has no timeout", state.State)
		}
	}
}

func entersState(p ir.Production, v ir.VarName, state ir.IRString) bool {
	if p.Delayed == nil {
		return false
	}
	for _, e := range slices.Concat(p.Effects, p.IfAlone) {
		if e.Set != nil && e.Set.Variable == v && e.Set.Value == state {
			return true
		}
	}
	return false
}

func TestCompileSharedPrefixCollapses(t *testing.T) {
	prods := mustCompile(t,
		rule(t, "f18>w>v", "1"),
		rule(t, "f18>w>h", "2"),
	)

	var advances int
	for _, p := range byTier(prods, ir.TierTransition) {
		if p.Trigger.Key == "w" {
			advances++
		}
	}
	assert.Equal(t, 1, advances, "sequences sharing f18>w share one transition")
}

// =============================================================================
// Validation
// =============================================================================

func TestCompileAmbiguousPrefix(t *testing.T) {
	_, err := Compile([]ir.Rule{
		rule(t, "f18>w", "1"),
		rule(t, "f18>w>v", "2"),
	}, "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousPrefix)

	var errs Errors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, CodeAmbiguousPrefix, errs[0].Code)
	assert.Contains(t, errs[0].Message, "f18>w is a strict prefix of f18>w>v")
}

func TestCompileAmbiguousPrefixIgnoresScope(t *testing.T) {
	_, err := Compile([]ir.Rule{
		rule(t, "f18>w", "1", "com.a"),
		rule(t, "f18>w>v", "2", "com.b"),
	}, "test")
	assert.ErrorIs(t, err, ErrAmbiguousPrefix)
}

func TestCompileChordShadowingAnchor(t *testing.T) {
	_, err := Compile([]ir.Rule{
		rule(t, "f18", "escape"),
		rule(t, "f18>w", "1"),
	}, "test")
	assert.ErrorIs(t, err, ErrAmbiguousPrefix)

	_, err = Compile([]ir.Rule{
		rule(t, "cmd+k", "escape"),
		rule(t, "cmd+k>c", "1"),
	}, "test")
	assert.ErrorIs(t, err, ErrAmbiguousPrefix)
}

func TestCompileConflictingMapping(t *testing.T) {
	_, err := Compile([]ir.Rule{
		rule(t, "f18>w>v", "2"),
		rule(t, "f18>w>v", "3"),
	}, "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflictingMapping)
	assert.Contains(t, err.Error(), CodeConflictingMapping)
}

func TestCompileConflictingChords(t *testing.T) {
	_, err := Compile([]ir.Rule{
		rule(t, "cmd+h", "home"),
		rule(t, "cmd+h", "end"),
	}, "test")
	assert.ErrorIs(t, err, ErrConflictingMapping)
}

func TestCompileDuplicateRulesDeduplicated(t *testing.T) {
	prods := mustCompile(t,
		rule(t, "f18>w", "1"),
		rule(t, "f18>w", "1"),
		rule(t, "cmd+h", "home"),
		rule(t, "cmd+h", "home"),
	)
	assert.Len(t, byTier(prods, ir.TierTransition), 1)
	assert.Len(t, byTier(prods, ir.TierChord), 1)
}

func TestCompileSamePathDifferentScopes(t *testing.T) {
	prods := mustCompile(t,
		rule(t, "f18>w", "1"),
		rule(t, "f18>w", "2", "com.example.app"),
	)

	finals := byTier(prods, ir.TierTransition)
	require.Len(t, finals, 2)
	require.NotNil(t, finals[0].Scope, "scoped finals come first")
	assert.Equal(t, "com.example.app", finals[0].Scope.Key())
	assert.Nil(t, finals[1].Scope)
}

func TestCompileUnresolvedLeader(t *testing.T) {
	_, err := Compile([]ir.Rule{rule(t, "a+b", "c")}, "test")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnresolvedLeader)
}

func TestCompileUnsupportedTrigger(t *testing.T) {
	tests := []struct {
		name  string
		rules []ir.Rule
	}{
		{"three simultaneous keys", []ir.Rule{rule(t, "f18>w", "1"), rule(t, "f18+a+b", "c")}},
		{"multi-key sequence step", []ir.Rule{rule(t, "f18>a+b", "c")}},
		{"multi-key anchor", []ir.Rule{rule(t, "a+b>c", "d")}},
		{"missing action", []ir.Rule{{Trigger: ir.Hotkey{Steps: []ir.Chord{{Keys: []ir.KeyCode{"a"}}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.rules, "test")
			assert.ErrorIs(t, err, ErrUnsupportedTrigger)
		})
	}
}

func TestCompileMalformedIR(t *testing.T) {
	emit := ir.Emit{Chord: ir.KeyChord{Key: "a"}}

	_, err := Compile([]ir.Rule{{Action: emit}}, "test")
	assert.ErrorIs(t, err, ErrEmptyTrigger)

	_, err = Compile([]ir.Rule{{
		Trigger: ir.Hotkey{Steps: []ir.Chord{{Keys: []ir.KeyCode{"f18"}}, {}}},
		Action:  emit,
	}}, "test")
	assert.ErrorIs(t, err, ErrEmptyStep)
}

func TestCompileCollectsAllErrors(t *testing.T) {
	_, err := Compile([]ir.Rule{
		rule(t, "a+b", "c"),
		rule(t, "f18>w", "1"),
		rule(t, "f18>w", "2"),
		rule(t, "f19>a+b", "c"),
	}, "test")
	require.Error(t, err)

	var errs Errors
	require.True(t, errors.As(err, &errs))
	assert.Len(t, errs, 3)
	assert.True(t, errs.Has(ErrUnresolvedLeader))
	assert.True(t, errs.Has(ErrConflictingMapping))
	assert.True(t, errs.Has(ErrUnsupportedTrigger))
	assert.Contains(t, err.Error(), "3 errors")
}

func TestCompileErrorNamesRule(t *testing.T) {
	r := rule(t, "a+b", "c")
	r.Source = "keyboard.toml rule[0]"
	_, err := Compile([]ir.Rule{r}, "test")

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "keyboard.toml rule[0]", ce.Rule)
	assert.Equal(t, CodeUnresolvedLeader, ce.Code)
}

// =============================================================================
// Lowering details
// =============================================================================

func TestCompileAnchoredGroup(t *testing.T) {
	prods := mustCompile(t, rule(t, "cmd+k>shift+c", "1"))

	roots := byTier(prods, ir.TierRoot)
	require.Len(t, roots, 1)
	root := roots[0]
	assert.Equal(t, ir.KeyCode("k"), root.Trigger.Key)
	assert.Equal(t, ir.ModifierSet{ir.ModCommand}, root.Trigger.Mandatory)
	assert.Equal(t, []ir.Effect{ir.SetVar("omni.seq.command+k", ir.IRString("seq:command+k"))}, root.Effects)
	assert.Empty(t, root.IfAlone, "anchored groups enter on key-down")
	assert.Empty(t, root.AfterKeyUp)

	pass := byTier(prods, ir.TierPassthrough)
	require.Len(t, pass, 2)
	assert.Equal(t, ir.KeyCode("left_shift"), pass[0].Trigger.Key)
	assert.Equal(t, ir.KeyCode("right_shift"), pass[1].Trigger.Key)
	for _, p := range pass {
		assert.Equal(t, cond("omni.seq.command+k", ir.IRString("seq:command+k")), p.Conditions)
		require.Len(t, p.Effects, 1)
		assert.Equal(t, p.Trigger.Key, p.Effects[0].Emit.Key, "the modifier key is re-emitted")
		assert.NotNil(t, p.Delayed)
	}

	finals := byTier(prods, ir.TierTransition)
	require.Len(t, finals, 1)
	assert.Equal(t, ir.ModifierSet{ir.ModShift}, finals[0].Trigger.Mandatory)
	assert.False(t, finals[0].Trigger.AnyOptional, "sequence steps match modifiers exactly")
}

func TestCompileBothKeysLeaders(t *testing.T) {
	prods := mustCompile(t,
		rule(t, "f18>w", "1"),
		rule(t, "f19>w", "2"),
		rule(t, "f19+f18", "escape"),
	)

	holds := byTier(prods, ir.TierHold)
	require.Len(t, holds, 1)
	assert.Equal(t, ir.KeyCode("f18"), holds[0].Trigger.Key, "the first written key is the leader")
	assert.Equal(t, cond("omni.hold.f19", ir.IRInt(1)), holds[0].Conditions)
}

func TestCompileHoldChordSecondKeyLeader(t *testing.T) {
	prods := mustCompile(t,
		rule(t, "f18>w", "1"),
		rule(t, "h+f18", "left_arrow"),
	)

	holds := byTier(prods, ir.TierHold)
	require.Len(t, holds, 1)
	assert.Equal(t, ir.KeyCode("h"), holds[0].Trigger.Key)
	assert.Equal(t, cond("omni.hold.f18", ir.IRInt(1)), holds[0].Conditions)
}

func TestCompileChordOrdering(t *testing.T) {
	prods := mustCompile(t,
		rule(t, "h", "left_arrow"),
		rule(t, "cmd+h", "home"),
		rule(t, "cmd+shift+h", "end"),
		rule(t, "a", "b"),
	)
	require.Len(t, prods, 4)

	assert.Equal(t, ir.KeyCode("a"), prods[0].Trigger.Key)
	assert.Len(t, prods[1].Trigger.Mandatory, 2, "more specific chords match first")
	assert.Len(t, prods[2].Trigger.Mandatory, 1)
	assert.Empty(t, prods[3].Trigger.Mandatory)
}

func TestCompileTierOrder(t *testing.T) {
	prods := mustCompile(t, richRules(t)...)

	for i := 1; i < len(prods); i++ {
		assert.LessOrEqual(t, prods[i-1].Tier, prods[i].Tier, "production %d out of tier order", i)
	}
}

func TestCompileShellAction(t *testing.T) {
	p, err := dsl.NewParser(dsl.Aliases{})
	require.NoError(t, err)
	r, err := p.ParseShellRule("f18>t", "open -a Terminal")
	require.NoError(t, err)

	prods := mustCompile(t, r)
	finals := byTier(prods, ir.TierTransition)
	require.Len(t, finals, 1)
	assert.Equal(t, []ir.Effect{
		ir.SetVar("omni.seq.f18", IdleState),
		ir.RunShell("open -a Terminal"),
	}, finals[0].Effects)
}

func TestCompileOptions(t *testing.T) {
	set, err := Compile([]ir.Rule{rule(t, "f18>w", "1")}, "test",
		WithTimeout(250), WithNamespace("mine"))
	require.NoError(t, err)

	roots := byTier(set.Productions, ir.TierRoot)
	require.Len(t, roots, 1)
	assert.Equal(t, 250, roots[0].Delayed.DelayMS)
	assert.Equal(t, []ir.Effect{ir.SetVar("mine.hold.f18", ir.IRInt(1))}, roots[0].Effects)
	assert.Equal(t, ir.VarName("mine.seq.f18"), roots[0].IfAlone[0].Set.Variable)
}

func TestCompileConfigTimeout(t *testing.T) {
	cfg := &ir.Config{
		Description: "cfg",
		Rules:       []ir.Rule{rule(t, "f18>w", "1")},
		TimeoutMS:   500,
	}

	set, err := CompileConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "cfg", set.Description)
	assert.Equal(t, 500, byTier(set.Productions, ir.TierRoot)[0].Delayed.DelayMS)

	set, err = CompileConfig(cfg, WithTimeout(2000))
	require.NoError(t, err)
	assert.Equal(t, 2000, byTier(set.Productions, ir.TierRoot)[0].Delayed.DelayMS, "options override the config")
}

func TestCompileEmptyRuleSet(t *testing.T) {
	set, err := Compile(nil, "empty")
	require.NoError(t, err)
	assert.Empty(t, set.Productions)
	assert.Equal(t, "empty", set.Description)
}

func TestAnalyzeLeaders(t *testing.T) {
	a, errs := Analyze([]ir.Rule{
		rule(t, "f19>a", "1"),
		rule(t, "f18>w", "2"),
		rule(t, "cmd+k>c", "3"),
	})
	require.Empty(t, errs)
	assert.Equal(t, []ir.KeyCode{"f18", "f19"}, a.Leaders)
	assert.True(t, a.IsLeader("f18"))
	assert.False(t, a.IsLeader("k"), "modified anchors are not leaders")

	require.Len(t, a.Groups, 3)
	assert.Equal(t, "command+k", a.Groups[0].AnchorID)
	assert.False(t, a.Groups[0].Leader)

	g, ok := a.Group("f18")
	require.True(t, ok)
	assert.Equal(t, ir.VarName("omni.seq.f18"), g.Variable)
	assert.Len(t, g.States(), 1)
}
