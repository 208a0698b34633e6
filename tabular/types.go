/*
Package tabular provides the generic row-query layer used by the hedge engine.

PURPOSE:
  This package contains the contract between the aggregation engine and the
  backing table service. The engine never issues writes and never assumes a
  fixed schema: every query is a plain value (table, filters, ordering, limit)
  and every result is a plain list of rows. Whether the rows come from SQLite,
  PostgreSQL, or an in-memory fixture, the same engine logic applies.

KEY CONCEPTS IN THIS FILE (types.go):
  - Row: a single record as returned by the table service
  - Result: the bulk-execute envelope (list of rows)
  - Service: the read-only query contract a backend must implement

DESIGN PRINCIPLES:
  1. Read-only: Service has no write operations. Ever.
  2. Tolerance: numeric extraction from rows never raises; bad values become 0
  3. Structure: filters are (column, op, value) tuples, never interpolated text

SEE ALSO:
  - query.go: Query value type and filter builder
  - row.go: coercion helpers for row fields
  - adapter.go: schema-drift adapter (column probing, graceful degradation)
*/
package tabular

import "context"

// Row is a single record returned by the table service. Column values keep
// whatever dynamic type the backend produced; use the coercion helpers in
// row.go to read them safely.
type Row map[string]any

// Result is the envelope returned by a bulk execute call.
type Result struct {
	Data []Row
}

// Service is the read-only contract a table backend must implement.
// IMPORTANT: there are no write operations here. The hedge engine only reads.
type Service interface {
	// Columns returns the column names of a table, in backend order.
	// Returns an error if the table does not exist or cannot be inspected.
	Columns(ctx context.Context, table string) ([]string, error)

	// Execute runs a query and returns all matching rows.
	Execute(ctx context.Context, q Query) (Result, error)
}
