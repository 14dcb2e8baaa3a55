// Package expr defines the backend-agnostic filter expression tree.
//
// Expressions are built either through the combinators in this package
// (Eq, And, Or, ...) or through the comparison methods on schema fields,
// which bind the field name for you:
//
//	sch.MustField("text").Eq("bar")
//	expr.And(expr.Eq("text", "bar"), expr.Gt("visits", int64(10)))
//
// A tree is inert data. It is validated against a schema by the query
// builder and compiled into a native filter by a backend adapter; engines
// that cannot express a construct reject it at compile time instead of
// silently dropping it.
package expr
