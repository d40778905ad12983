// Package model defines the core data types shared across the prober:
// probe classifications, persisted link results, and failure kinds.
//
// All types in this package are plain values. A ProbeResult is owned by
// the task that produced it until it is handed to the store; nothing in
// this package is mutated after construction.
package model
