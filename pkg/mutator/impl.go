/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package mutator

import (
	"context"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/voedger/cqlbatch/pkg/coreutils"
	"github.com/voedger/cqlbatch/pkg/imutation"
)

type mutatorType struct {
	table imutation.TableDef
	exec  imutation.IExecutor
	tm    coreutils.ITime

	mu      sync.Mutex // guards current
	current *batchType
}

func (m *mutatorType) scoped() scopedType {
	return scopedType{m: m}
}

func (m *mutatorType) WithTimestamp(input imutation.TimestampInput) IScoped {
	return m.scoped().WithTimestamp(input)
}

func (m *mutatorType) WithTTL(seconds uint32) IScoped {
	return m.scoped().WithTTL(seconds)
}

func (m *mutatorType) InBatch(b IBatch) IScoped {
	return m.scoped().InBatch(b)
}

func (m *mutatorType) Create(ctx context.Context, fields map[string]interface{}) error {
	return m.scoped().Create(ctx, fields)
}

func (m *mutatorType) Update(ctx context.Context, key, fields map[string]interface{}) error {
	return m.scoped().Update(ctx, key, fields)
}

func (m *mutatorType) Delete(ctx context.Context, key map[string]interface{}) error {
	return m.scoped().Delete(ctx, key)
}

func (m *mutatorType) Get(ctx context.Context, key map[string]interface{}) (imutation.Row, error) {
	return m.exec.Get(ctx, m.table, key)
}

func (m *mutatorType) QuerySet(key map[string]interface{}) IQuerySet {
	return querySetType{s: m.scoped(), key: key}
}

func (m *mutatorType) BeginBatch() (IBatch, error) {
	return m.beginBatch(imutation.WriteOpts{})
}

func (m *mutatorType) BeginBatchWithTimestamp(input imutation.TimestampInput) (IBatch, error) {
	// the batch-wide timestamp is resolved at open time
	opts, err := imutation.WriteOpts{}.WithTimestamp(input, m.tm)
	if err != nil {
		return nil, err
	}
	return m.beginBatch(opts)
}

func (m *mutatorType) beginBatch(opts imutation.WriteOpts) (IBatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return nil, imutation.ErrBatchAlreadyOpen
	}
	b := &batchType{m: m}
	b.ts, b.hasTS = opts.Timestamp()
	m.current = b
	return b, nil
}

func (m *mutatorType) RunBatch(ctx context.Context, fn func(b IBatch) error) error {
	b, err := m.BeginBatch()
	if err != nil {
		return err
	}
	return m.runBatch(ctx, b, fn)
}

func (m *mutatorType) RunBatchWithTimestamp(ctx context.Context, input imutation.TimestampInput, fn func(b IBatch) error) error {
	b, err := m.BeginBatchWithTimestamp(input)
	if err != nil {
		return err
	}
	return m.runBatch(ctx, b, fn)
}

func (m *mutatorType) runBatch(ctx context.Context, b IBatch, fn func(b IBatch) error) error {
	if err := fn(b); err != nil {
		if b.State() == BatchState_Open {
			_ = b.Abort()
		}
		return err
	}
	if b.State() != BatchState_Open {
		// fn closed the batch itself
		return nil
	}
	return b.Commit(ctx)
}

func (m *mutatorType) release(b *batchType) {
	m.mu.Lock()
	if m.current == b {
		m.current = nil
	}
	m.mu.Unlock()
}

func (m *mutatorType) dispatch(ctx context.Context, mut imutation.Mutation, b *batchType) error {
	if b != nil {
		return b.Add(mut)
	}
	stmt, err := imutation.NewStatement(mut)
	if err != nil {
		return err
	}
	return m.exec.Execute(ctx, stmt)
}

// splitFields separates key columns from field deltas
func (m *mutatorType) splitFields(fields map[string]interface{}) (key, values map[string]interface{}) {
	key = map[string]interface{}{}
	values = map[string]interface{}{}
	for name, value := range fields {
		if slices.Contains(m.table.KeyColumns, name) {
			key[name] = value
		} else {
			values[name] = value
		}
	}
	return key, values
}

type scopedType struct {
	m     *mutatorType
	opts  imutation.WriteOpts
	batch *batchType
	// a deferred usage error: surfaced by the next verb call, before any dispatch
	err error
}

func (s scopedType) WithTimestamp(input imutation.TimestampInput) IScoped {
	if s.err != nil {
		return s
	}
	opts, err := s.opts.WithTimestamp(input, s.m.tm)
	if err != nil {
		s.err = err
		return s
	}
	s.opts = opts
	return s
}

func (s scopedType) WithTTL(seconds uint32) IScoped {
	s.opts = s.opts.WithTTL(seconds)
	return s
}

func (s scopedType) InBatch(b IBatch) IScoped {
	if s.err != nil {
		return s
	}
	bt, ok := b.(*batchType)
	if !ok {
		s.err = imutation.ErrBatchNotOpen
		return s
	}
	s.batch = bt
	return s
}

func (s scopedType) Opts() (imutation.WriteOpts, error) {
	return s.opts, s.err
}

func (s scopedType) Create(ctx context.Context, fields map[string]interface{}) error {
	if s.err != nil {
		return s.err
	}
	key, values := s.m.splitFields(fields)
	return s.m.dispatch(ctx, imutation.Mutation{
		Kind:   imutation.MutationKind_Insert,
		Table:  s.m.table,
		Key:    key,
		Values: values,
		Opts:   s.opts,
	}, s.batch)
}

func (s scopedType) Update(ctx context.Context, key, fields map[string]interface{}) error {
	if s.err != nil {
		return s.err
	}
	return s.m.dispatch(ctx, imutation.Mutation{
		Kind:   imutation.MutationKind_Update,
		Table:  s.m.table,
		Key:    key,
		Values: fields,
		Opts:   s.opts,
	}, s.batch)
}

func (s scopedType) Delete(ctx context.Context, key map[string]interface{}) error {
	if s.err != nil {
		return s.err
	}
	return s.m.dispatch(ctx, imutation.Mutation{
		Kind:  imutation.MutationKind_Delete,
		Table: s.m.table,
		Key:   key,
		Opts:  s.opts,
	}, s.batch)
}

type querySetType struct {
	s   scopedType
	key map[string]interface{}
}

func (q querySetType) WithTimestamp(input imutation.TimestampInput) IQuerySet {
	q.s = q.s.WithTimestamp(input).(scopedType)
	return q
}

func (q querySetType) WithTTL(seconds uint32) IQuerySet {
	q.s = q.s.WithTTL(seconds).(scopedType)
	return q
}

func (q querySetType) InBatch(b IBatch) IQuerySet {
	q.s = q.s.InBatch(b).(scopedType)
	return q
}

func (q querySetType) Update(ctx context.Context, fields map[string]interface{}) error {
	return q.s.Update(ctx, q.key, fields)
}

// Delete is a blind delete: the one resolved TimePoint applies uniformly to
// every row the key matches at execution time
func (q querySetType) Delete(ctx context.Context) error {
	return q.s.Delete(ctx, q.key)
}
