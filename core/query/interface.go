package query

// QueryGenerator renders a QueryDSL into a document of a concrete query
// language. Implementations must be deterministic: the same DSL always yields
// byte-identical output.
type QueryGenerator interface {
	// Generate creates the document text for a QueryDSL.
	Generate(dsl *QueryDSL) (string, error)
}
