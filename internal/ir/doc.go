// Package ir provides the intermediate representation types for omnikeys.
//
// It holds two models. The trigger model (Rule, Hotkey, Chord, KeyChord, Action,
// When) is what the config frontend produces and the compiler consumes. The
// production model (Production, Trigger, Condition, Effect) is what the compiler
// produces and the Karabiner emitter serializes.
//
// This package contains type definitions and small canonicalisation helpers only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Modifier sets are always kept in canonical sorted order
//   - Target variables are opaque names (VarName); nothing here reads them
//   - All JSON tags use snake_case
package ir
