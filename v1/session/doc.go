// Package session is the application-facing facade of the mapping layer.
//
// A Session binds one backend adapter to the schema and query packages
// and decorates every operation with structured logging and OpenTelemetry
// spans. Applications declare schemas once, open a session against the
// engine they deploy, and stay engine-agnostic from there:
//
//	sch := schema.MustNew("documents",
//		schema.F("id", schema.PrimaryKey()),
//		schema.F("title", schema.VarChar(128)),
//		schema.F("embedding", schema.FloatVector(768, schema.HNSW(schema.MetricCosine, 16, 128))),
//	)
//
//	sess := session.New(adapter, session.WithLogger(logger))
//	results, err := sess.Query(sch).
//		Filter(sch.MustField("title").Eq("intro")).
//		OrderBySimilarity("embedding", vector).
//		Limit(10).
//		All(ctx)
package session
