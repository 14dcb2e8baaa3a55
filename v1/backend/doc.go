// Package backend defines the capability interface every vector engine
// adapter implements, the error kinds adapters raise, and the shared
// chunked batch-insert machinery.
//
// The query builder and the session depend only on this interface; each
// engine (milvus, qdrant, chromem) provides one implementation in its own
// package. Engines differ in filter grammar, index types and consistency
// characteristics; constructs an engine cannot express fail with
// ErrTranslation at compile time instead of being dropped.
package backend
