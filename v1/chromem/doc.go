// Package chromem adapts the canonical schema and expression tree to an
// embedded chromem-go store.
//
// Capability notes:
//   - Cosine similarity only; search is exhaustive, so index tuning
//     declarations carry no effect.
//   - Exactly one float vector field per schema; binary vectors are not
//     representable.
//   - Metadata filters are a flat AND of equality comparisons; OR,
//     negation and ordered comparisons fail translation, as do
//     filter-only queries and offsets.
//   - Primary keys are derived client-side from UUIDs and stored as
//     decimal document IDs.
//   - Runs in-process, optionally persisted to a directory; useful for
//     tests and small single-node deployments.
package chromem
