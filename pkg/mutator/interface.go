/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package mutator

import (
	"context"

	"github.com/voedger/cqlbatch/pkg/imutation"
)

// IMutator is the write surface the mapping layer binds to one table.
//
// WithTimestamp and WithTTL return scoped handles and never change the
// mutator itself, so a pending timestamp can not leak into a later plain
// mutation: a plain Create after a scoped call renders without any modifier.
type IMutator interface {
	// WithTimestamp resolves input immediately (scope-set time, now sampled
	// once) and returns a handle whose mutations carry the resolved TimePoint
	WithTimestamp(input imutation.TimestampInput) IScoped

	WithTTL(seconds uint32) IScoped

	// InBatch returns a handle whose mutations accumulate into b instead of
	// being dispatched immediately
	InBatch(b IBatch) IScoped

	Create(ctx context.Context, fields map[string]interface{}) error
	Update(ctx context.Context, key, fields map[string]interface{}) error
	Delete(ctx context.Context, key map[string]interface{}) error

	// Get reads one live row by primary key; imutation.ErrNotFound is a
	// normal outcome of a successful read, not a transport failure
	Get(ctx context.Context, key map[string]interface{}) (imutation.Row, error)

	// QuerySet describes a future bulk write or delete over the rows matched
	// by key at execution time; a timestamp set on it applies uniformly to
	// every matched row
	QuerySet(key map[string]interface{}) IQuerySet

	// BeginBatch opens mutation accumulation. Beginning while another batch
	// is open on the same mutator is a usage error: ErrBatchAlreadyOpen
	BeginBatch() (IBatch, error)
	BeginBatchWithTimestamp(input imutation.TimestampInput) (IBatch, error)

	// RunBatch is the scoped-block form: mutations issued by fn against b
	// accumulate; fn returning nil commits, fn returning an error aborts
	// without any dispatch
	RunBatch(ctx context.Context, fn func(b IBatch) error) error
	RunBatchWithTimestamp(ctx context.Context, input imutation.TimestampInput, fn func(b IBatch) error) error
}

// IScoped carries immutable write options for the mutations issued through it.
// Each verb consumes the options for exactly that call; the handle itself can
// be reused. A malformed timestamp input surfaces on the verb call, before any
// dispatch.
type IScoped interface {
	WithTimestamp(input imutation.TimestampInput) IScoped
	WithTTL(seconds uint32) IScoped
	InBatch(b IBatch) IScoped

	// Opts reads back the pending write options prior to any dispatch
	Opts() (imutation.WriteOpts, error)

	Create(ctx context.Context, fields map[string]interface{}) error
	Update(ctx context.Context, key, fields map[string]interface{}) error
	Delete(ctx context.Context, key map[string]interface{}) error
}

type IQuerySet interface {
	WithTimestamp(input imutation.TimestampInput) IQuerySet
	WithTTL(seconds uint32) IQuerySet
	InBatch(b IBatch) IQuerySet

	Update(ctx context.Context, fields map[string]interface{}) error
	Delete(ctx context.Context) error
}

type BatchState uint8

const (
	BatchState_Open BatchState = iota
	BatchState_Committed
	BatchState_Aborted
)

// IBatch accumulates mutations and commits them as one atomic request.
// A batch is exclusively owned by its creator for its lifetime and is not
// safe for concurrent accumulation from multiple goroutines.
type IBatch interface {
	// Add appends in call order. Order governs wire framing only; the LWW
	// outcome depends solely on the attached TimePoint values
	Add(m imutation.Mutation) error

	// Commit renders every accumulated mutation and dispatches them as one
	// request: either all are applied or, on dispatch failure, none are, as
	// strongly as the store's batch primitive guarantees
	Commit(ctx context.Context) error

	// Abort discards accumulated mutations; no dispatch occurs
	Abort() error

	State() BatchState
}
