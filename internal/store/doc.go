// Package store owns the in-memory social graph and keeps it in sync with
// the data file.
//
// A Store is the single owner of every user, every moment and the current
// session of one process. All operations run under one mutex and, when they
// mutate, rewrite the whole data file before returning. Callers only ever
// see copies of the stored entities.
//
// Several processes may share one data directory. Reconcile (or the Watch
// loop around it) asks the change detector whether someone else wrote the
// file, reloads it when they did and publishes a ChangeEvent to every
// subscriber. The model is last writer wins: nothing is merged.
//
// Domain rule violations are reported with the sentinel errors in this
// package and never leave partial state behind. Failures to write the data
// file after a mutation are logged and counted but not returned, so the
// in-memory state stays authoritative for the running session.
package store
