package cli

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gatekit/internal/gates"
	"github.com/roach88/gatekit/internal/store"
)

// LibraryOptions holds flags for the library commands.
type LibraryOptions struct {
	*RootOptions
	Database string
	Name     string // list: only operations with this name
}

// LibraryEntry is one stored operation in list output.
type LibraryEntry struct {
	Seq         int64  `json:"seq"`
	Fingerprint string `json:"fingerprint"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	NumQubits   int    `json:"num_qubits"`
	NumClbits   int    `json:"num_clbits"`
}

// NewLibraryCommand creates the library command and its subcommands.
func NewLibraryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LibraryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "library",
		Short: "Query the operation library",
		Long: `Query the operations saved with invert --save and reverse --save.

Examples:
  gatekit library list --db ./gatekit.db
  gatekit library list --db ./gatekit.db --name circ_dg
  gatekit library show --db ./gatekit.db <fingerprint>`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "operation library (default from config)")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List stored operations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibraryList(cmd, opts)
		},
	}
	list.Flags().StringVar(&opts.Name, "name", "", "only list operations with this name")

	show := &cobra.Command{
		Use:           "show <fingerprint>",
		Short:         "Show a stored operation",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibraryShow(cmd, opts, args[0])
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}

// openLibrary opens the library named by --db or the config.
func openLibrary(cmd *cobra.Command, opts *LibraryOptions) (*store.Store, error) {
	cfg, _, err := opts.settings(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = cfg.DB
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runLibraryList(cmd *cobra.Command, opts *LibraryOptions) error {
	st, err := openLibrary(cmd, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	var records []store.OperationRecord
	if opts.Name != "" {
		records, err = st.FindOperations(cmd.Context(), opts.Name)
	} else {
		records, err = st.ListOperations(cmd.Context())
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list operations", err)
	}

	entries := make([]LibraryEntry, len(records))
	for i, r := range records {
		entries[i] = LibraryEntry{
			Seq:         r.Seq,
			Fingerprint: r.Fingerprint,
			Name:        r.Name,
			Kind:        r.Kind,
			NumQubits:   r.NumQubits,
			NumClbits:   r.NumClbits,
		}
	}

	if opts.Format == "json" {
		f := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return f.Success(entries)
	}

	w := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No operations stored.")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%4d  %s  %-12s %-11s q=%d c=%d\n", e.Seq, e.Fingerprint, e.Name, e.Kind, e.NumQubits, e.NumClbits)
	}
	return nil
}

func runLibraryShow(cmd *cobra.Command, opts *LibraryOptions, fingerprint string) error {
	st, err := openLibrary(cmd, opts)
	if err != nil {
		return err
	}
	defer st.Close()

	f := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr(), Verbose: opts.Verbose}
	o, err := st.LoadOperation(cmd.Context(), fingerprint, gates.Lookup)
	if errors.Is(err, sql.ErrNoRows) {
		msg := fmt.Sprintf("no operation with fingerprint %s", fingerprint)
		_ = f.Error(CodeStore, msg, nil)
		return NewExitError(ExitFailure, msg)
	}
	if err != nil {
		_ = f.Error(operationCode(err, CodeStore), err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load operation", err)
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

	if err := writeTree(cmd.OutOrStdout(), o, 0); err != nil {
		return WrapExitError(ExitFailure, "failed to expand definition", err)
	}
	return nil
}
