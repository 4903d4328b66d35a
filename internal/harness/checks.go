package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
	"github.com/roach88/gatekit/internal/transform"
)

// CheckError is returned when a check's expectation does not hold.
type CheckError struct {
	ID       string
	Type     string
	Expected string
	Actual   string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("check %s (%s) failed: expected %s, got %s", e.ID, e.Type, e.Expected, e.Actual)
}

// outcome is what a check observed. observed is recorded in the trace even
// when the check passes.
type outcome struct {
	observed string
	err      error
}

func pass(observed string) outcome { return outcome{observed: observed} }

func fail(c Check, observed, expected, actual string) outcome {
	return outcome{observed: observed, err: &CheckError{ID: c.ID, Type: c.Type, Expected: expected, Actual: actual}}
}

func broken(observed string, err error) outcome { return outcome{observed: observed, err: err} }

// evaluate runs one check against the workspace.
func (w *Workspace) evaluate(c Check, compare []op.CompareOption) outcome {
	subject, err := w.Operation(c.Program, c)
	if err != nil {
		return broken("", err)
	}

	switch c.Type {
	case CheckEqual, CheckNotEqual, CheckSoftEqual, CheckNotSoftEqual:
		other, err := w.Operation(c.Other, c)
		if err != nil {
			return broken("", err)
		}
		return compareCheck(c, subject, other, compare)

	case CheckInverseEquals:
		inv, observed, err := w.invert(subject, c.Annotated)
		if err != nil {
			return broken(observed, err)
		}
		return w.matches(c, observed, inv)

	case CheckReverseEquals:
		rev, err := transform.Reverse(subject)
		if err != nil {
			return broken("", err)
		}
		return w.matches(c, rev.Name(), rev)

	case CheckInverseFails:
		_, observed, err := w.invert(subject, c.Annotated)
		if err == nil {
			return fail(c, observed, "error "+c.Code, "success")
		}
		code, ok := op.CodeOf(err)
		if !ok || string(code) != c.Code {
			return fail(c, string(code), "error "+c.Code, err.Error())
		}
		return pass(string(code))

	case CheckInverseName:
		result, err := w.inverter.Inverse(subject, inverseOpts(c.Annotated)...)
		if err != nil {
			return broken("", err)
		}
		if result.Name() != c.Name {
			return fail(c, result.Name(), fmt.Sprintf("name %q", c.Name), fmt.Sprintf("%q", result.Name()))
		}
		return pass(result.Name())

	case CheckDoubleInverse:
		once, _, err := w.invert(subject, c.Annotated)
		if err != nil {
			return broken("", err)
		}
		twice, observed, err := w.invert(once, c.Annotated)
		if err != nil {
			return broken(observed, err)
		}
		if twice.Name() != subject.Name() {
			return fail(c, observed, fmt.Sprintf("name %q", subject.Name()), fmt.Sprintf("%q", twice.Name()))
		}
		if msg, ok := sameStructure(twice, subject); !ok {
			return fail(c, observed, "original operation", msg)
		}
		return pass(observed)

	case CheckDecomposeEquals:
		p, _ := w.Program(c.Program)
		decomposed, err := p.Decompose()
		if err != nil {
			return broken("", err)
		}
		want, _ := w.Program(c.Other)
		if !decomposed.Equal(want) {
			return fail(c, decomposed.Name(), "program "+c.Other, "different steps")
		}
		return pass(decomposed.Name())

	case CheckProgramInverseEquals:
		p, _ := w.Program(c.Program)
		inv, err := p.Inverse()
		if err != nil {
			return broken("", err)
		}
		if c.Name != "" && inv.Name() != c.Name {
			return fail(c, inv.Name(), fmt.Sprintf("name %q", c.Name), fmt.Sprintf("%q", inv.Name()))
		}
		want, _ := w.Program(c.Other)
		if !inv.Equal(want) {
			return fail(c, inv.Name(), "program "+c.Other, "different steps")
		}
		return pass(inv.Name())
	}
	return broken("", fmt.Errorf("unknown check type %q", c.Type))
}

func compareCheck(c Check, a, b *op.Operation, compare []op.CompareOption) outcome {
	var same bool
	switch c.Type {
	case CheckEqual, CheckNotEqual:
		same = a.Equal(b)
	default:
		opts := compare
		if c.RTol != 0 || c.ATol != 0 {
			opts = append(opts[:len(opts):len(opts)], op.WithTolerance(c.RTol, c.ATol))
		}
		same = a.SoftCompare(b, opts...)
	}
	want := c.Type == CheckEqual || c.Type == CheckSoftEqual
	observed := "different"
	if same {
		observed = "same"
	}
	if same != want {
		expected := "same"
		if !want {
			expected = "different"
		}
		return fail(c, observed, fmt.Sprintf("%s and %s %s", c.Program, c.Other, expected), observed)
	}
	return pass(observed)
}

func inverseOpts(annotated bool) []transform.InverseOption {
	if annotated {
		return []transform.InverseOption{transform.Annotated()}
	}
	return nil
}

// invert inverts o and resolves a deferred result. observed is the name of
// the direct result, so a deferred inverse reports "annotated".
func (w *Workspace) invert(o *op.Operation, annotated bool) (*op.Operation, string, error) {
	result, err := w.inverter.Inverse(o, inverseOpts(annotated)...)
	if err != nil {
		return nil, "", err
	}
	resolved, err := result.Resolve()
	if err != nil {
		return nil, result.Name(), err
	}
	return resolved, result.Name(), nil
}

// matches compares got against the instruction of c.Other, and its name
// against c.Name when one is given.
func (w *Workspace) matches(c Check, observed string, got *op.Operation) outcome {
	if c.Name != "" && got.Name() != c.Name {
		return fail(c, observed, fmt.Sprintf("name %q", c.Name), fmt.Sprintf("%q", got.Name()))
	}
	want, err := w.Operation(c.Other, c)
	if err != nil {
		return broken(observed, err)
	}
	if msg, ok := sameStructure(got, want); !ok {
		return fail(c, observed, "structure of "+c.Other, msg)
	}
	return pass(observed)
}

// sameStructure compares shape, params and definition, ignoring names.
func sameStructure(got, want *op.Operation) (string, bool) {
	if got.NumQubits() != want.NumQubits() || got.NumClbits() != want.NumClbits() {
		return fmt.Sprintf("shape %d/%d, want %d/%d",
			got.NumQubits(), got.NumClbits(), want.NumQubits(), want.NumClbits()), false
	}
	if !param.EqualSlices(got.Params(), want.Params()) {
		return fmt.Sprintf("params %s, want %s",
			param.FormatList(got.Params()), param.FormatList(want.Params())), false
	}
	gotDef, err := got.Definition()
	if err != nil {
		return err.Error(), false
	}
	wantDef, err := want.Definition()
	if err != nil {
		return err.Error(), false
	}
	if (gotDef == nil) != (wantDef == nil) {
		return "opacity differs", false
	}
	if gotDef != nil && !gotDef.Equal(wantDef) {
		return fmt.Sprintf("definition with %d steps and phase %s, want %d steps and phase %s",
			gotDef.Len(), param.FormatFloat(gotDef.GlobalPhase),
			wantDef.Len(), param.FormatFloat(wantDef.GlobalPhase)), false
	}
	return "", true
}

// isCheckError reports whether err is a failed expectation rather than a
// failure to evaluate the check at all.
func isCheckError(err error) bool {
	var ce *CheckError
	return errors.As(err, &ce)
}
