// Package qdrant adapts the canonical schema and expression tree to a
// Qdrant deployment through the official Go client.
//
// Capability notes:
//   - Filters compile to structured must/should/must_not clauses with
//     range conditions for ordered comparisons; arbitrary nesting is
//     supported through sub-filters.
//   - Exactly one float vector field per schema; binary vectors and the
//     clustered IVF index kinds are not representable.
//   - The distance metric is fixed at collection creation, so a metric
//     override on a query fails translation.
//   - Primary keys are derived client-side from UUIDs because Qdrant
//     requires caller-supplied point IDs.
//   - Upserts wait for commit, so Flush and Load are no-ops; fetches are
//     capped at 1000 rows per request.
//
// CreateCollection is idempotent: an existing collection is left as-is.
package qdrant
