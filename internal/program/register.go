package program

import (
	"fmt"
	"sync/atomic"
)

// BitKind distinguishes quantum from classical registers.
type BitKind int

const (
	QubitKind BitKind = iota
	ClbitKind
)

func (k BitKind) String() string {
	if k == ClbitKind {
		return "clbit"
	}
	return "qubit"
}

func (k BitKind) prefix() string {
	if k == ClbitKind {
		return "c"
	}
	return "q"
}

var registerSeq [2]atomic.Uint64

// autoName returns the next process-wide register name for kind, such as
// "q3" or "c0".
func autoName(kind BitKind) string {
	n := registerSeq[kind].Add(1) - 1
	return fmt.Sprintf("%s%d", kind.prefix(), n)
}

// Register is a named, contiguous block of program bits.
type Register struct {
	name   string
	kind   BitKind
	size   int
	offset int
}

func (r *Register) Name() string  { return r.name }
func (r *Register) Kind() BitKind { return r.kind }
func (r *Register) Size() int     { return r.size }

// Index returns the program-wide index of the register's i-th bit.
func (r *Register) Index(i int) int {
	if i < 0 || i >= r.size {
		panic(fmt.Sprintf("register %s: index %d out of range [0,%d)", r.name, i, r.size))
	}
	return r.offset + i
}

// Indices returns the program-wide indices of every bit in the register.
func (r *Register) Indices() []int {
	out := make([]int, r.size)
	for i := range out {
		out[i] = r.offset + i
	}
	return out
}

// String renders the register as name[size].
func (r *Register) String() string {
	return fmt.Sprintf("%s[%d]", r.name, r.size)
}
