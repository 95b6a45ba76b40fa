// Package harness runs build scenarios against the content pipeline.
//
// A scenario seeds a project directory, then runs a list of steps. Each
// step may write or remove files and then build with a fixed build id.
// Asset statuses are checked per step, assertions are checked against
// the final host module, and the whole run can be compared against a
// golden snapshot.
//
// # Scenario Format
//
//	name: rename_effect
//	description: "Renaming an effect replaces its generated type"
//	fixture: lit
//	files:
//	  effects/extra.vert: "void main() {}"
//	steps:
//	  - build: b1
//	    expect:
//	      effects/lit.fx.cue: built
//	  - write:
//	      effects/lit.fx.cue: |
//	        effect: name: "glow"
//	    remove: [effects/extra.vert]
//	    build: b2
//	    removed: [Game.LitEffect]
//	assertions:
//	  - type: has_type
//	    name: Game.GlowEffect
//	  - type: markers
//	    count: 1
//	    build_id: b2
//
// The only fixture is "lit", the Game project with effects/lit.fx.cue
// and its shaders. Files listed under files are written over it.
//
// # Assertion Types
//
//   - has_type: name is a type of the host module
//   - no_type: name is not a type of the host module
//   - markers: the ledger holds count markers, all with build_id if set
//   - message: some step reported a message with severity, and file and
//     text containing contains when set
//
// # Golden Files
//
// RunWithGolden stores a canonical JSON snapshot of the step results and
// the final markers under testdata/golden/{name}.golden. Message text is
// left out of the snapshot so that compiler wording can change.
package harness
