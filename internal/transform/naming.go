package transform

import "strings"

const (
	inverseSuffix = "_dg"
	reverseSuffix = "_reverse"
)

// InverseName toggles the inverse marker: "circ" becomes "circ_dg" and
// "circ_dg" becomes "circ".
func InverseName(name string) string {
	if base, ok := strings.CutSuffix(name, inverseSuffix); ok && base != "" {
		return base
	}
	return name + inverseSuffix
}

// ReverseName marks a reversed operation.
func ReverseName(name string) string {
	return name + reverseSuffix
}
