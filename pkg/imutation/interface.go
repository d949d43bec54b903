/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package imutation

import "context"

// Implemented by a certain driver (cas, mem)
// Dispatch failures are returned to the caller unchanged: this layer adds no
// retries and no partial-application recovery
type IExecutor interface {
	// sends one rendered statement as a singleton request
	// @ConcurrentAccess
	Execute(ctx context.Context, stmt Statement) (err error)

	// sends all statements as one request
	// atomicity is exactly as strong as the store's own batch primitive
	// statement order on the wire equals slice order; the LWW outcome depends
	// solely on the TimePoint values attached, not on send order
	ExecuteBatch(ctx context.Context, stmts []Statement) (err error)

	// reads one live row by full primary key
	// returns ErrNotFound if no live row exists: never written, shadowed by a
	// tombstone with a later TimePoint, or expired. ErrNotFound is a normal
	// outcome of a successful read, not a transport failure
	// @ConcurrentAccess
	Get(ctx context.Context, table TableDef, key map[string]interface{}) (row Row, err error)
}

// Row is a live row as returned by IExecutor.Get: column name -> value
type Row map[string]interface{}
