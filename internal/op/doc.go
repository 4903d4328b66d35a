// Package op implements the operation model: named operations over fixed
// counts of qubit and classical bit slots, their ordered parameters, and
// optional definitions expressed as ordered steps of sub-operations.
//
// Equality is structural over name, shape and parameters. Kind, label and
// definition never take part in equality. SoftCompare relaxes the parameter
// comparison to a numeric tolerance and treats symbolic parameters as equal.
//
// Definitions may be supplied directly or computed lazily by a Definer, which
// runs at most once per Operation value. Operations without either are opaque.
//
// Mutation is limited to SetParams, SetParam and SetLabel. These are not
// synchronised; callers must not share a mutated Operation across goroutines.
package op
