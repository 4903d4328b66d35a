// Package param provides the parameter values carried by operations.
//
// Value is a sealed interface. Only Float, Int, Matrix and *Expr implement it:
//   - Float and Int are concrete numbers and compare numerically (Int(1) equals Float(1))
//   - Matrix is a dense complex matrix (Kraus-style operands)
//   - *Expr is an immutable symbolic expression over Symbol leaves
//
// Arithmetic helpers (Neg, Scale, Add, Sub, Mul, Div) fold constants eagerly,
// so a *Expr always contains at least one free Symbol. Symbol identity is a
// UUID: two symbols created with the same name are different symbols.
//
// This package imports nothing internal.
package param
