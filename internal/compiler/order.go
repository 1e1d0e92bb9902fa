package compiler

import (
	"cmp"
	"slices"
	"strings"

	"github.com/roach88/omnikeys/internal/ir"
)

// sortProductions puts productions in canonical first-match order: by tier, then
// trigger key, more mandatory modifiers before fewer, conditions, and scoped
// productions before unscoped ones.
func sortProductions(prods []ir.Production) {
	slices.SortStableFunc(prods, compareProductions)
}

func compareProductions(a, b ir.Production) int {
	return cmp.Or(
		cmp.Compare(a.Tier, b.Tier),
		compareBool(a.Trigger.Any, b.Trigger.Any),
		cmp.Compare(a.Trigger.Key, b.Trigger.Key),
		cmp.Compare(len(b.Trigger.Mandatory), len(a.Trigger.Mandatory)),
		strings.Compare(modifierKey(a.Trigger.Mandatory), modifierKey(b.Trigger.Mandatory)),
		strings.Compare(conditionKey(a.Conditions), conditionKey(b.Conditions)),
		compareBool(a.Scope == nil, b.Scope == nil),
		strings.Compare(a.Scope.Key(), b.Scope.Key()),
	)
}

// compareBool orders false before true.
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func modifierKey(s ir.ModifierSet) string {
	return strings.Join(s.Strings(), "+")
}

func conditionKey(conds []ir.Condition) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = string(c.Variable) + "=" + ir.FormatValue(c.Value)
	}
	return strings.Join(parts, ",")
}
