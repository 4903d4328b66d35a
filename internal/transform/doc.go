// Package transform implements semantics-preserving transformations over
// operations: inversion, reversal, and the deferred-inverse wrapper.
//
// INVERSION ORDER:
//
//  1. A builtin operation with a registered closed-form inverse returns that
//     named operation. This also applies when the annotated form is requested.
//  2. When the annotated form is requested, the operation is wrapped in an
//     AnnotatedOperation carrying an inverse modifier. Nothing is expanded, so
//     opaque operations can be wrapped too.
//  3. An opaque operation fails with an OPAQUE error.
//  4. Otherwise the definition tree is inverted eagerly: steps reversed, each
//     child inverted, global phase negated, name toggled with the "_dg" suffix.
//
// Eager inversion walks nested definitions with an explicit work stack, so
// nesting depth never grows the Go call stack. Results are memoised by
// operation identity: a child shared by several steps is inverted once.
// Measurement, reset and conditional steps block inversion at every depth.
//
// Reversal never fails. Opaque operations reverse to a copy of themselves;
// others get a "_reverse" name and their top-level steps in reverse order.
package transform
