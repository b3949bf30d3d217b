// Package batch owns the conversion job lifecycle: validated job creation,
// the per-job executor state machine that supervises the external encoder,
// and the sequential orchestrator that drives a whole run with aggregate
// progress, per-job failure containment, and set-once cancellation.
//
// Jobs move Pending -> Running -> one of Succeeded, Failed, Cancelled and
// never leave a terminal state. Status and progress are the only fields
// shared with other goroutines; readers always go through Snapshot.
package batch
