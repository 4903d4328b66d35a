package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/store"
	"github.com/roach88/gatekit/internal/transform"
)

// TransformOptions holds flags shared by invert and reverse.
type TransformOptions struct {
	*RootOptions
	Annotated bool   // invert only: defer the inverse
	Save      bool   // store the result in the operation library
	Database  string // defaults to the configured db
}

// TransformResult is the JSON payload of invert and reverse.
type TransformResult struct {
	Input       string   `json:"input"`
	Name        string   `json:"name"`
	Deferred    bool     `json:"deferred,omitempty"`
	Resolved    string   `json:"resolved,omitempty"`
	NumQubits   int      `json:"num_qubits"`
	NumClbits   int      `json:"num_clbits"`
	Params      []string `json:"params"`
	Fingerprint string   `json:"fingerprint,omitempty"`
	Saved       bool     `json:"saved,omitempty"`
}

// NewInvertCommand creates the invert command.
func NewInvertCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransformOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "invert <scenario> <program>",
		Short: "Invert a program's operation",
		Long: `Build a program from a scenario file and print the inverse of the
operation it compacts to.

With --annotated the inverse is deferred: closed forms are still used for
builtin gates, other operations are wrapped and only resolved when needed.
Programs containing measurement, reset or conditional steps cannot be
inverted and exit with code 1.

Examples:
  gatekit invert ./scenarios/crz_inverse.yaml circ
  gatekit invert ./scenarios/crz_inverse.yaml circ --annotated
  gatekit invert ./scenarios/crz_inverse.yaml circ --save --db ./gatekit.db`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, opts, args[0], args[1], invertWith(opts))
		},
	}

	cmd.Flags().BoolVar(&opts.Annotated, "annotated", false, "defer the inverse")
	addSaveFlags(cmd, opts)

	return cmd
}

// NewReverseCommand creates the reverse command.
func NewReverseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TransformOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reverse <scenario> <program>",
		Short: "Reverse the order of a program's steps",
		Long: `Build a program from a scenario file and print the operation with
its top-level steps in reverse order. Steps are not inverted, so any
program can be reversed, including ones with measurement.

Examples:
  gatekit reverse ./scenarios/compaction.yaml outer_flat
  gatekit reverse ./scenarios/compaction.yaml outer_flat --save`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransform(cmd, opts, args[0], args[1], func(o *op.Operation) (op.Operator, error) {
				reversed, err := transform.Reverse(o)
				if err != nil {
					return nil, err
				}
				return reversed, nil
			})
		},
	}

	addSaveFlags(cmd, opts)

	return cmd
}

func addSaveFlags(cmd *cobra.Command, opts *TransformOptions) {
	cmd.Flags().BoolVar(&opts.Save, "save", false, "save the result in the operation library")
	cmd.Flags().StringVar(&opts.Database, "db", "", "operation library (default from config)")
}

func invertWith(opts *TransformOptions) func(*op.Operation) (op.Operator, error) {
	return func(o *op.Operation) (op.Operator, error) {
		inv := transform.NewInverter(transform.WithLogger(opts.Logger))
		if opts.Annotated {
			return inv.Inverse(o, transform.Annotated())
		}
		return inv.Inverse(o)
	}
}

func runTransform(cmd *cobra.Command, opts *TransformOptions, path, name string, apply func(*op.Operation) (op.Operator, error)) error {
	cfg, logger, err := opts.settings(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}

	o, err := programOperation(f, path, name, logger)
	if err != nil {
		return err
	}
	out, err := apply(o)
	if err != nil {
		code := operationCode(err, CodeTransform)
		_ = f.Error(code, err.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("cannot transform %s", o.Name()), err)
	}

	resolved, err := out.Resolve()
	if err != nil {
		_ = f.Error(operationCode(err, CodeTransform), err.Error(), nil)
		return WrapExitError(ExitFailure, fmt.Sprintf("cannot resolve %s", out.Name()), err)
	}

	result := TransformResult{
		Input:     o.Name(),
		Name:      out.Name(),
		NumQubits: out.NumQubits(),
		NumClbits: out.NumClbits(),
		Params:    formatParams(resolved.Params()),
	}
	if _, ok := out.(*transform.AnnotatedOperation); ok {
		result.Deferred = true
		result.Resolved = resolved.Name()
	}

	if opts.Save {
		dbPath := opts.Database
		if dbPath == "" {
			dbPath = cfg.DB
		}
		fingerprint, inserted, err := saveOperation(cmd.Context(), dbPath, resolved)
		if err != nil {
			_ = f.Error(CodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to save operation", err)
		}
		result.Fingerprint = fingerprint
		result.Saved = inserted
		f.VerboseLog("Saved %s to %s", resolved.Name(), dbPath)
	}

	if opts.Format == "json" {
		return f.Success(result)
	}

	w := cmd.OutOrStdout()
	if result.Deferred {
		fmt.Fprintf(w, "%v\n", out)
		fmt.Fprint(w, "resolves to: ")
	}
	if err := writeTree(w, resolved, 0); err != nil {
		return WrapExitError(ExitFailure, "failed to expand definition", err)
	}
	if opts.Save {
		state := "already stored"
		if result.Saved {
			state = "saved"
		}
		fmt.Fprintf(w, "%s: %s\n", state, result.Fingerprint)
	}
	return nil
}

// saveOperation stores o in the library at dbPath.
func saveOperation(ctx context.Context, dbPath string, o *op.Operation) (string, bool, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", false, err
	}
	defer st.Close()
	return st.SaveOperation(ctx, o)
}
