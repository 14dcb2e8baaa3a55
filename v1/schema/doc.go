// Package schema turns typed field declarations into the canonical,
// immutable description of a vector-search collection.
//
// A schema is declared once at startup and shared for the life of the
// process:
//
//	var Documents = schema.MustNew("documents",
//	    schema.F("id", schema.PrimaryKey()),
//	    schema.F("text", schema.VarChar(512)),
//	    schema.F("visits", schema.Int64(schema.WithDefault(int64(0)))),
//	    schema.F("embedding", schema.FloatVector(128, schema.HNSW(schema.MetricL2, 16, 200))),
//	)
//
// Field descriptors validate their own constraints (positive dimensions,
// index parameter ranges, metric/element-type pairing); the schema builder
// enforces the structural rules: exactly one primary key, unique
// non-reserved names, vector indexes compatible with their element type.
//
// Fields expose comparison methods (Eq, Ne, Gt, ...) that author
// expression-tree nodes for the query builder, and instances created with
// Schema.NewInstance validate every value against the declaration before
// anything touches the network.
package schema
