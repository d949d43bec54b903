/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package mutator

import (
	"context"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/cqlbatch/pkg/imutation"
)

type batchType struct {
	m     *mutatorType
	muts  []imutation.Mutation
	ts    imutation.TimePoint
	hasTS bool
	state BatchState
}

func (b *batchType) Add(mut imutation.Mutation) error {
	if b.state != BatchState_Open {
		return imutation.ErrBatchNotOpen
	}
	// usage errors surface at accumulation time, before any dispatch
	if err := mut.Validate(); err != nil {
		return err
	}
	b.muts = append(b.muts, mut)
	return nil
}

func (b *batchType) Commit(ctx context.Context) error {
	if b.state != BatchState_Open {
		return imutation.ErrBatchNotOpen
	}
	defer b.m.release(b)

	stmts := make([]imutation.Statement, 0, len(b.muts))
	for _, mut := range b.muts {
		// the batch-wide timestamp backfills here, at commit time, so a
		// mutation added before it was known still receives it; a
		// mutation-level timestamp wins
		if _, ok := mut.Opts.Timestamp(); !ok && b.hasTS {
			mut.Opts = mut.Opts.WithResolvedTimestamp(b.ts)
		}
		stmt, err := imutation.NewStatement(mut)
		if err != nil {
			// no partial send
			b.state = BatchState_Aborted
			return err
		}
		stmts = append(stmts, stmt)
	}

	b.state = BatchState_Committed
	if len(stmts) == 0 {
		return nil
	}
	if logger.IsVerbose() {
		logger.Verbose("committing batch of", len(stmts), "statement(s)")
	}
	return b.m.exec.ExecuteBatch(ctx, stmts)
}

func (b *batchType) Abort() error {
	if b.state != BatchState_Open {
		return imutation.ErrBatchNotOpen
	}
	b.state = BatchState_Aborted
	b.muts = nil
	b.m.release(b)
	return nil
}

func (b *batchType) State() BatchState {
	return b.state
}
