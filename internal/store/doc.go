// Package store keeps the operation library and the harness check log in
// SQLite.
//
// The library is content addressed: an operation is stored under its
// fingerprint (see (*op.Operation).Fingerprint), so saving an equal operation
// twice keeps the first row. Labels are kept in the stored document but are
// not part of the key. Builtin steps are stored by name and parameters and
// rebuilt by an op.Resolver on load.
//
// The check log holds one row per harness run and one row per evaluated
// check. Every row carries a seq assigned at insert time; nothing is ordered
// by wall-clock time, so two runs of the same scenarios produce the same log
// apart from run ids.
//
// File-backed libraries use WAL journaling with synchronous=NORMAL and a
// five second busy timeout. Foreign keys are enforced.
package store
