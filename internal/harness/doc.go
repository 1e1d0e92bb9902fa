// Package harness simulates a compiled production set and checks scripted
// keyboard sessions against it.
//
// The simulator follows the target engine's rules: productions are tried in
// order on every key-down and the first match wins; a key no production
// accepts passes through unchanged. A production's effects run on key-down,
// its after-key-up effects on release, and its if-alone effects on release
// when no other key went down in between and the key was held under
// AloneTimeoutMS. A delayed action is cancelled by the next key-down and
// invoked once the clock passes its deadline. Time is logical: it only moves
// on wait events.
//
// # Scenario Format
//
//	name: leader_two_step
//	description: "f18 then w emits command+1"
//	config: keys.toml          # or inline: with TOML source
//	app: com.example.editor
//	events:
//	  - tap: f18
//	  - tap: w
//	  - tap: s
//	    modifiers: [left_command]
//	  - wait: 1200
//	assertions:
//	  - type: emitted
//	    values: [command+1]
//	  - type: variable
//	    variable: omni.seq.f18
//	    value: idle
//	  - type: idle
//
// # Assertion Types
//
//   - emitted: the exact list of outputs, in order
//   - emitted_count: the number of outputs
//   - passed: the exact list of keys no production accepted
//   - variable: the final value of one variable ("<unset>" when never set)
//   - idle: every sequence state variable is idle or unset
//
// Golden files under testdata/golden hold the rendered trace of a scenario;
// see RunWithGolden.
package harness
