package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/roach88/gatekit/internal/gates"
	"github.com/roach88/gatekit/internal/op"
	"github.com/roach88/gatekit/internal/param"
)

func testComposite(t *testing.T, name string, theta float64) *op.Operation {
	t.Helper()
	def := op.NewDefinition(2, 1)
	def.GlobalPhase = 0.25
	steps := []op.Step{
		{Op: gates.H(), Qubits: []int{0}},
		{Op: gates.CRZ(param.Float(theta)), Qubits: []int{0, 1}},
		{Op: gates.Measure(), Qubits: []int{1}, Clbits: []int{0}},
		{Op: gates.X(), Qubits: []int{0}, Condition: &op.Condition{Clbits: []int{0}, Value: 1}},
	}
	for _, s := range steps {
		if err := def.AppendStep(s); err != nil {
			t.Fatalf("AppendStep(%s) failed: %v", s.Op.Name(), err)
		}
	}
	o, err := op.New(name, 2, 1, nil, op.WithDefinition(def), op.WithLabel("stored"))
	if err != nil {
		t.Fatalf("op.New failed: %v", err)
	}
	return o
}

func TestSaveOperation_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	o := testComposite(t, "circ", 0.1)

	fp, inserted, err := s.SaveOperation(ctx, o)
	if err != nil {
		t.Fatalf("SaveOperation() failed: %v", err)
	}
	if !inserted {
		t.Error("first save should insert")
	}

	got, err := s.LoadOperation(ctx, fp, gates.Lookup)
	if err != nil {
		t.Fatalf("LoadOperation() failed: %v", err)
	}
	if !got.Equal(o) {
		t.Errorf("loaded %s, want %s", got, o)
	}
	if label, ok := got.Label(); !ok || label != "stored" {
		t.Errorf("label = %q, %v; want \"stored\"", label, ok)
	}

	wantDef, _ := o.Definition()
	gotDef, err := got.Definition()
	if err != nil {
		t.Fatalf("Definition() failed: %v", err)
	}
	if !gotDef.Equal(wantDef) {
		t.Error("definition changed across the store")
	}
	if !gotDef.Steps[1].Op.IsBuiltin() {
		t.Error("builtin steps should be rebuilt through the resolver")
	}

	gotFP, err := got.Fingerprint()
	if err != nil {
		t.Fatalf("Fingerprint() failed: %v", err)
	}
	if gotFP != fp {
		t.Errorf("fingerprint = %s, want %s", gotFP, fp)
	}
}

func TestSaveOperation_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	o := testComposite(t, "circ", 0.1)

	fp1, _, err := s.SaveOperation(ctx, o)
	if err != nil {
		t.Fatalf("first SaveOperation() failed: %v", err)
	}

	relabelled := o.Copy()
	if err := relabelled.SetLabel("other"); err != nil {
		t.Fatal(err)
	}
	fp2, inserted, err := s.SaveOperation(ctx, relabelled)
	if err != nil {
		t.Fatalf("second SaveOperation() failed: %v", err)
	}
	if inserted {
		t.Error("relabelled copy should not insert a second row")
	}
	if fp1 != fp2 {
		t.Errorf("fingerprints differ: %s vs %s", fp1, fp2)
	}

	records, err := s.ListOperations(ctx)
	if err != nil {
		t.Fatalf("ListOperations() failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
}

func TestListOperations_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListOperations(ctx)
	if err != nil {
		t.Fatalf("ListOperations() failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("empty library should return an empty slice, got %#v", empty)
	}

	for i, o := range []*op.Operation{
		testComposite(t, "b", 0.1),
		testComposite(t, "a", 0.2),
		testComposite(t, "b", 0.3),
	} {
		if _, _, err := s.SaveOperation(ctx, o); err != nil {
			t.Fatalf("SaveOperation(%d) failed: %v", i, err)
		}
	}

	records, err := s.ListOperations(ctx)
	if err != nil {
		t.Fatalf("ListOperations() failed: %v", err)
	}
	names := []string{}
	for i, r := range records {
		names = append(names, r.Name)
		if r.Seq != int64(i+1) {
			t.Errorf("record %d seq = %d, want %d", i, r.Seq, i+1)
		}
	}
	if len(names) != 3 || names[0] != "b" || names[1] != "a" || names[2] != "b" {
		t.Errorf("names = %v, want [b a b]", names)
	}

	found, err := s.FindOperations(ctx, "b")
	if err != nil {
		t.Fatalf("FindOperations() failed: %v", err)
	}
	if len(found) != 2 || found[0].NumQubits != 2 || found[0].NumClbits != 1 || found[0].Kind != "instruction" {
		t.Errorf("FindOperations(b) = %+v", found)
	}
}

func TestLoadOperation_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadOperation(context.Background(), "missing", nil)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestLoadOperation_WithoutResolverKeepsOpaqueBuiltins(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	fp, _, err := s.SaveOperation(ctx, testComposite(t, "circ", 0.1))
	if err != nil {
		t.Fatalf("SaveOperation() failed: %v", err)
	}
	got, err := s.LoadOperation(ctx, fp, nil)
	if err != nil {
		t.Fatalf("LoadOperation() failed: %v", err)
	}
	def, _ := got.Definition()
	crz := def.Steps[1].Op
	if !crz.IsOpaque() {
		t.Error("builtin without resolver should decode as opaque")
	}
	if !crz.Equal(gates.CRZ(param.Float(0.1))) {
		t.Errorf("decoded %s", crz)
	}
}

func halfRZ(t *testing.T) *op.Operation {
	t.Helper()
	theta := param.NewParameter("theta")
	half, err := param.Div(theta, param.Float(2))
	if err != nil {
		t.Fatal(err)
	}
	def := op.NewDefinition(1, 0)
	if err := def.Append(gates.RZ(half), []int{0}, nil); err != nil {
		t.Fatal(err)
	}
	return op.MustNew("half_rz", 1, 0, []param.Value{theta}, op.WithDefinition(def))
}

func TestSaveOperation_SymbolicParams(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	o := halfRZ(t)

	fp, _, err := s.SaveOperation(ctx, o)
	if err != nil {
		t.Fatalf("SaveOperation() failed: %v", err)
	}
	got, err := s.LoadOperation(ctx, fp, gates.Lookup)
	if err != nil {
		t.Fatalf("LoadOperation() failed: %v", err)
	}
	if !got.Equal(o) {
		t.Errorf("symbolic params changed: %s vs %s", got, o)
	}
}

func TestSaveOperation_RebuiltSymbolicIsStoredOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	fp1, inserted, err := s.SaveOperation(ctx, halfRZ(t))
	if err != nil {
		t.Fatalf("first SaveOperation() failed: %v", err)
	}
	if !inserted {
		t.Error("first save should insert")
	}
	fp2, inserted, err := s.SaveOperation(ctx, halfRZ(t))
	if err != nil {
		t.Fatalf("second SaveOperation() failed: %v", err)
	}
	if inserted {
		t.Error("rebuilding with a fresh symbol should not insert a second row")
	}
	if fp1 != fp2 {
		t.Errorf("fingerprints differ: %s vs %s", fp1, fp2)
	}

	records, err := s.ListOperations(ctx)
	if err != nil {
		t.Fatalf("ListOperations() failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("library holds %d operations, want 1", len(records))
	}
}
