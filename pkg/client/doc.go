// Package client is the runtime support library for code that runs the same
// SQL text many times against Postgres.
//
// The central type is Stmt, a statement cache entry that holds one query text
// and prepares it lazily on first use. Every later use returns the handle
// prepared the first time, so the server parses and plans the query once per
// entry. A failed preparation leaves the entry empty, and the next call tries
// again.
//
// Stmt performs no locking and is meant to live at a single call site. When
// one entry must be shared between goroutines, use SharedStmt, which funnels
// concurrent first-time callers into a single preparation. Registry keeps one
// SharedStmt per distinct query text for callers that build SQL at runtime.
//
// Prepared handles belong to the connection that created them. An entry
// remembers which Preparer it was prepared on and refuses to hand its handle
// to any other, returning ErrConnMismatch instead.
//
// Query and Exec wrap an entry together with parameter binding and row
// scanning. Parameters come from a Params implementation or, failing that,
// from the exported fields of a struct in declaration order.
package client
