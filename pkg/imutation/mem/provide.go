/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package mem

import (
	"github.com/voedger/cqlbatch/pkg/coreutils"
	"github.com/voedger/cqlbatch/pkg/imutation"
)

// IMemExecutor keeps rows in memory with the store's LWW semantics: per-cell
// write-times, row tombstones, TTL expiry. It also records the rendered text
// of every dispatched request, which tests assert on.
type IMemExecutor interface {
	imutation.IExecutor

	// Requests returns the rendered text of every dispatched request so far,
	// one element per request: a batch counts as one
	Requests() []string

	ClearRequests()
}

func Provide(tm coreutils.ITime) IMemExecutor {
	return &memExecutorType{
		tm:     tm,
		tables: map[string]map[string]*rowType{},
	}
}
