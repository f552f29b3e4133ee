package driver

import "context"

// Row is a single solution from a triple query: binding name to value.
type Row map[string]string

// Result is the parsed tabular output of a triple query.
type Result struct {
	Rows []Row
}

// TripleDriver submits a structured query to the external linked-data
// source and returns parsed tabular results.
type TripleDriver interface {
	Query(ctx context.Context, sparql string) (*Result, error)
	Close() error
}
