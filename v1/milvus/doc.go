// Package milvus adapts the canonical schema and expression tree to a
// Milvus deployment through the official Go SDK.
//
// Capability notes:
//   - Full boolean filter grammar: every comparison operator and arbitrary
//     AND/OR nesting compile to Milvus expression strings.
//   - Float and packed binary vectors, with the complete index catalogue
//     (FLAT, IVF_*, HNSW, BIN_*).
//   - Primary keys are engine-assigned auto-ID int64 values.
//   - Read freshness follows the configured consistency level; call Flush
//     to seal recent writes and Load before serving searches.
//   - Result sets exclude vector columns; limit+offset is capped at the
//     engine's 16384-row fetch window.
//
// CreateCollection is idempotent: an existing collection is left as-is.
package milvus
