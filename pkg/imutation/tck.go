/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package imutation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voedger/cqlbatch/pkg/coreutils"
)

// TckTable is the row shape every executor driver must be able to serve.
// Drivers backed by a real store must provision it before running the kit.
var TckTable = TableDef{
	Name:       "tck_records",
	KeyColumns: []string{"id"},
	Columns:    []string{"count"},
}

// TechnologyCompatibilityKit is the behavior suite every IExecutor driver
// must pass. tm must be the same clock the driver resolves TTL expiry with.
func TechnologyCompatibilityKit(t *testing.T, ex IExecutor, tm coreutils.ITime) {
	t.Run("InsertGet", func(t *testing.T) { testInsertGet(t, ex, tm) })
	t.Run("LWWNotSendOrder", func(t *testing.T) { testLWWNotSendOrder(t, ex, tm) })
	t.Run("FutureDelete", func(t *testing.T) { testFutureDelete(t, ex, tm) })
	t.Run("PastDelete", func(t *testing.T) { testPastDelete(t, ex, tm) })
	t.Run("BatchAppliesAll", func(t *testing.T) { testBatchAppliesAll(t, ex, tm) })
	t.Run("TTLExpiry", func(t *testing.T) { testTTLExpiry(t, ex, tm) })
}

func tckInsert(id string, count int, opts WriteOpts) Mutation {
	return Mutation{
		Kind:   MutationKind_Insert,
		Table:  TckTable,
		Key:    map[string]interface{}{"id": id},
		Values: map[string]interface{}{"count": count},
		Opts:   opts,
	}
}

func tckDelete(id string, opts WriteOpts) Mutation {
	return Mutation{
		Kind:  MutationKind_Delete,
		Table: TckTable,
		Key:   map[string]interface{}{"id": id},
		Opts:  opts,
	}
}

func tckDispatch(t *testing.T, ex IExecutor, m Mutation) {
	stmt, err := NewStatement(m)
	require.NoError(t, err)
	require.NoError(t, ex.Execute(context.Background(), stmt))
}

func tckOpts(t *testing.T, tm coreutils.ITime, offset time.Duration) WriteOpts {
	opts, err := WriteOpts{}.WithTimestamp(Offset(offset), tm)
	require.NoError(t, err)
	return opts
}

func testInsertGet(t *testing.T, ex IExecutor, tm coreutils.ITime) {
	require := require.New(t)
	id := uuid.NewString()

	_, err := ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id})
	require.ErrorIs(err, ErrNotFound)

	tckDispatch(t, ex, tckInsert(id, 1, WriteOpts{}))

	row, err := ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id})
	require.NoError(err)
	require.EqualValues(1, row["count"])
}

// the LWW outcome depends on TimePoint values only, not on send order
func testLWWNotSendOrder(t *testing.T, ex IExecutor, tm coreutils.ITime) {
	require := require.New(t)
	id := uuid.NewString()

	tckDispatch(t, ex, tckInsert(id, 1, tckOpts(t, tm, 10*time.Second)))
	tckDispatch(t, ex, tckInsert(id, 2, WriteOpts{})) // earlier TimePoint, sent later

	row, err := ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id})
	require.NoError(err)
	require.EqualValues(1, row["count"])
}

// a tombstone with a future TimePoint shadows the row immediately and keeps
// shadowing re-creates dispatched with a default (now) timestamp
func testFutureDelete(t *testing.T, ex IExecutor, tm coreutils.ITime) {
	require := require.New(t)
	id := uuid.NewString()

	tckDispatch(t, ex, tckInsert(id, 1, WriteOpts{}))
	tckDispatch(t, ex, tckDelete(id, tckOpts(t, tm, 5*time.Second)))

	_, err := ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id})
	require.ErrorIs(err, ErrNotFound)

	tckDispatch(t, ex, tckInsert(id, 1, WriteOpts{}))

	_, err = ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id})
	require.ErrorIs(err, ErrNotFound)
}

// a tombstone ordered before the create has no effect
func testPastDelete(t *testing.T, ex IExecutor, tm coreutils.ITime) {
	require := require.New(t)
	id := uuid.NewString()

	tckDispatch(t, ex, tckInsert(id, 1, WriteOpts{}))
	tckDispatch(t, ex, tckDelete(id, tckOpts(t, tm, -60*time.Second)))

	row, err := ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id})
	require.NoError(err)
	require.EqualValues(1, row["count"])
}

func testBatchAppliesAll(t *testing.T, ex IExecutor, tm coreutils.ITime) {
	require := require.New(t)
	id1 := uuid.NewString()
	id2 := uuid.NewString()

	stmt1, err := NewStatement(tckInsert(id1, 1, WriteOpts{}))
	require.NoError(err)
	stmt2, err := NewStatement(tckInsert(id2, 2, WriteOpts{}))
	require.NoError(err)

	require.NoError(ex.ExecuteBatch(context.Background(), []Statement{stmt1, stmt2}))

	row, err := ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id1})
	require.NoError(err)
	require.EqualValues(1, row["count"])
	row, err = ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id2})
	require.NoError(err)
	require.EqualValues(2, row["count"])
}

func testTTLExpiry(t *testing.T, ex IExecutor, tm coreutils.ITime) {
	require := require.New(t)
	id := uuid.NewString()

	tckDispatch(t, ex, tckInsert(id, 1, WriteOpts{}.WithTTL(1)))

	row, err := ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id})
	require.NoError(err)
	require.EqualValues(1, row["count"])

	if mock, ok := tm.(coreutils.IMockTime); ok {
		mock.Add(2 * time.Second)
	} else {
		time.Sleep(2 * time.Second)
	}

	_, err = ex.Get(context.Background(), TckTable, map[string]interface{}{"id": id})
	require.ErrorIs(err, ErrNotFound)
}
