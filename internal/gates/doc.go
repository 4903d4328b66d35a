// Package gates is the standard gate library.
//
// Every operation built here is flagged builtin. Primitive gates (h, x, s,
// rz, u, cx, ...) are opaque and rely on the closed-form inverse table
// returned by Inverses. Composite gates (cz, swap, crz, ccx, ...) carry a
// lazily computed definition in terms of primitives, so they can also be
// expanded by Program.Decompose and inverted generically.
package gates
