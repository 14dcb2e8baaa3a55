// Package query accumulates filter, similarity-ordering and limit clauses
// into a validated, backend-agnostic request.
//
// The builder does no filtering, scoring or sorting itself; all of that
// is pushed to the backend adapter. Its job is to accumulate a valid
// request and reject invalid ones at call time, because vector-database
// round trips are comparatively expensive:
//
//	results, err := sess.Query(Documents).
//	    Filter(Documents.MustField("text").Eq("bar")).
//	    OrderBySimilarity("embedding", ref).
//	    Limit(10).
//	    All(ctx)
package query
