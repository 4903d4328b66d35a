package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gatekit/internal/harness"
	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
)

// InspectResult is the JSON payload of inspect.
type InspectResult struct {
	Name        string         `json:"name"`
	Kind        string         `json:"kind"`
	NumQubits   int            `json:"num_qubits"`
	NumClbits   int            `json:"num_clbits"`
	Params      []string       `json:"params"`
	Fingerprint string         `json:"fingerprint"`
	Document    map[string]any `json:"document"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <scenario> <program>",
		Short: "Show a program's operation",
		Long: `Build a program from a scenario file and show the operation it
compacts to: its shape, parameters, definition tree and fingerprint.

Builtin gates are shown but not expanded.

Examples:
  gatekit inspect ./scenarios/crz_inverse.yaml circ
  gatekit inspect ./scenarios/crz_inverse.yaml circ --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, rootOpts, args[0], args[1])
		},
	}
	return cmd
}

func runInspect(cmd *cobra.Command, opts *RootOptions, path, name string) error {
	_, logger, err := opts.settings(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	o, err := programOperation(f, path, name, logger)
	if err != nil {
		return err
	}
	fingerprint, err := o.Fingerprint()
	if err != nil {
		return WrapExitError(ExitFailure, "failed to fingerprint operation", err)
	}

	if opts.Format == "json" {
		doc, err := o.Document()
		if err != nil {
			return WrapExitError(ExitFailure, "failed to encode operation", err)
		}
		return f.Success(InspectResult{
			Name:        o.Name(),
			Kind:        o.Kind().String(),
			NumQubits:   o.NumQubits(),
			NumClbits:   o.NumClbits(),
			Params:      formatParams(o.Params()),
			Fingerprint: fingerprint,
			Document:    doc,
		})
	}

	w := cmd.OutOrStdout()
	if err := writeTree(w, o, 0); err != nil {
		return WrapExitError(ExitFailure, "failed to expand definition", err)
	}
	fmt.Fprintf(w, "fingerprint: %s\n", fingerprint)
	return nil
}

// programOperation loads the scenario at path and returns the named
// program as an instruction. Failures are reported through f.
func programOperation(f *OutputFormatter, path, name string, logger *slog.Logger) (*op.Operation, error) {
	s, err := harness.LoadScenario(path)
	if err != nil {
		_ = f.Error(CodeScenario, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	ws, err := harness.Build(s, nil, logger)
	if err != nil {
		_ = f.Error(operationCode(err, CodeScenario), err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to build scenario", err)
	}
	if _, ok := ws.Program(name); !ok {
		msg := fmt.Sprintf("scenario %s has no program %q", s.Name, name)
		_ = f.Error(CodeUnknownProgram, msg, ws.Names())
		return nil, NewExitError(ExitCommandError, msg)
	}
	f.VerboseLog("Loaded scenario %s (%d programs)", s.Name, len(ws.Names()))

	o, err := ws.Instruction(name, false)
	if err != nil {
		_ = f.Error(operationCode(err, CodeScenario), err.Error(), nil)
		return nil, WrapExitError(ExitFailure, "failed to compact program", err)
	}
	return o, nil
}

// writeTree prints o and, unless it is builtin or opaque, its definition
// steps indented beneath it.
func writeTree(w io.Writer, o *op.Operation, depth int) error {
	indent := strings.Repeat("  ", depth)
	if depth == 0 {
		fmt.Fprintf(w, "%s\n", o)
	}
	if o.IsBuiltin() || o.IsOpaque() {
		return nil
	}
	def, err := o.Definition()
	if err != nil {
		return err
	}
	if def == nil {
		return nil
	}
	if def.GlobalPhase != 0 {
		fmt.Fprintf(w, "%s  global_phase=%s\n", indent, param.FormatFloat(def.GlobalPhase))
	}
	for i, step := range def.Steps {
		fmt.Fprintf(w, "%s  [%d] %s %s\n", indent, i, step.Op, formatBits(step))
		if err := writeTree(w, step.Op, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// formatBits renders a step's wiring as q[0,1] c[0] if c[0]==1.
func formatBits(step op.Step) string {
	var b strings.Builder
	fmt.Fprintf(&b, "q%s", formatIndices(step.Qubits))
	if len(step.Clbits) > 0 {
		fmt.Fprintf(&b, " c%s", formatIndices(step.Clbits))
	}
	if step.Condition != nil {
		fmt.Fprintf(&b, " if c%s==%d", formatIndices(step.Condition.Clbits), step.Condition.Value)
	}
	return b.String()
}

func formatIndices(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatParams(vs []param.Value) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = param.Format(v)
	}
	return out
}
