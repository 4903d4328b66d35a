// Package program records ordered applications of operations over declared
// qubit and clbit registers, and converts a recording into an operation.
//
// Bits are addressed by program-wide index. Registers are laid out in the
// order they were added, so the first qubit of the second register follows
// the last qubit of the first.
//
// ToInstruction and ToGate compact the recording: only bits that some step
// references become slots of the resulting operation, numbered in ascending
// program order. Declared but unused register slots are dropped.
package program
