// Package reconcile implements the status-reconciliation engine.
//
// The engine determines, for the active fiscal year's checklist, whether
// each item has a file in remote storage, and keeps the in-memory status
// cache consistent with both remote verification responses and local
// optimistic mutations.
//
// Three writers feed the cache:
//
//   - Verifier.VerifyYear groups the checklist by responsible party,
//     splits each group into fixed-size batches, and issues one
//     check-files request per batch, writing results progressively so
//     views update batch by batch. A failed batch marks its items absent
//     (fail-closed) and the loop continues; one batch's failure never
//     aborts the rest.
//   - Verifier.RescanItem verifies exactly one item, used right after an
//     upload instead of re-running the whole year.
//   - Mutator applies optimistic writes for uploads and deletes and
//     publishes change events. A successful delete writes an explicit
//     absent record immediately and publishes events flagged so that
//     subscribers skip any backend refetch; re-verifying at that point
//     would race against the store's not-yet-committed delete.
//
// Every verification write carries the fiscal year it was requested for
// and the item version observed at dispatch; the cache discards writes
// that lost a race with a year switch or a mutation. See the status
// package for the write-ordering rules.
//
// Error polarity is deliberate: verification failures degrade to
// "absent" so a compliance gap is never hidden behind a wrongly
// optimistic "uploaded", while delete and download failures surface to
// the caller because silent failure there would hide data loss.
package reconcile
