// Package harness runs YAML scenarios against the operation model.
//
// A scenario declares named programs and a list of checks over them. Every
// program is built through package program, so appends are shape-checked and
// deferred inverses resolved exactly as library callers see them. Checks then
// exercise equality, soft compare, inversion, reversal and decomposition, and
// every outcome is recorded in a trace.
//
// # Scenario Format
//
//	name: crz_inverse
//	description: "Inverting a composite negates rotations and the phase"
//	symbols: [theta]
//	programs:
//	  - name: circ
//	    qubits: 2
//	    phase: 0.3
//	    steps:
//	      - gate: h
//	        qubits: [0]
//	      - gate: crz
//	        params: ["theta/2"]
//	        qubits: [0, 1]
//	  - name: outer
//	    qubits: 3
//	    steps:
//	      - use: circ
//	        inverse: true
//	        qubits: [2, 0]
//	checks:
//	  - type: inverse_equals
//	    program: circ
//	    other: circ_expected
//	    name: circ_dg
//
// Params are parameter expressions ("pi/2", "-theta", "0.1"). A step uses
// either a built-in gate or an earlier program, which is converted to an
// instruction with unused bits compacted away. Files are validated against
// an embedded CUE schema before decoding, then decoded with unknown fields
// rejected.
//
// # Determinism
//
// Trace seq numbers come from a logical clock and run ids from an injectable
// generator, so the same scenario always produces byte-identical canonical
// traces. Golden files live in testdata/golden; regenerate them with
//
//	go test ./internal/harness -update
package harness
