/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package mutator

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/voedger/cqlbatch/pkg/coreutils"
	"github.com/voedger/cqlbatch/pkg/imutation"
	"github.com/voedger/cqlbatch/pkg/imutation/mem"
)

var testTable = imutation.TableDef{
	Name:       "records",
	KeyColumns: []string{"id"},
	Columns:    []string{"count"},
}

func newTestMutator() (IMutator, mem.IMemExecutor, coreutils.IMockTime) {
	tm := coreutils.NewMockTime()
	ex := mem.Provide(tm)
	return Provide(testTable, ex, tm), ex, tm
}

func lastRequest(t *testing.T, ex mem.IMemExecutor) string {
	requests := ex.Requests()
	require.NotEmpty(t, requests)
	return requests[len(requests)-1]
}

func micros(tm coreutils.ITime, offset time.Duration) string {
	return strconv.FormatInt(tm.Now().Add(offset).UnixMicro(), 10)
}

func TestBasicUsage(t *testing.T) {
	require := require.New(t)
	m, _, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))

	row, err := m.Get(ctx, map[string]interface{}{"id": id})
	require.NoError(err)
	require.EqualValues(1, row["count"])

	require.NoError(m.Update(ctx, map[string]interface{}{"id": id}, map[string]interface{}{"count": 2}))
	row, err = m.Get(ctx, map[string]interface{}{"id": id})
	require.NoError(err)
	require.EqualValues(2, row["count"])

	require.NoError(m.Delete(ctx, map[string]interface{}{"id": id}))
	_, err = m.Get(ctx, map[string]interface{}{"id": id})
	require.ErrorIs(err, imutation.ErrNotFound)
}

func TestTimestampNotIncludedOnNormalCreate(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()

	require.NoError(m.Create(context.Background(), map[string]interface{}{"id": uuid.NewString(), "count": 2}))

	require.NotContains(lastRequest(t, ex), "USING TIMESTAMP")
}

func TestTimestampIncludedOnScopedCreate(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()

	err := m.WithTimestamp(imutation.Offset(30 * time.Second)).
		Create(context.Background(), map[string]interface{}{"id": uuid.NewString(), "count": 1})
	require.NoError(err)

	require.Contains(lastRequest(t, ex), "USING TIMESTAMP")
}

// a scoped call never changes the mutator: the next plain mutation renders
// without any modifier
func TestScopeDoesNotLeak(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(m.WithTimestamp(imutation.Offset(5 * time.Second)).
		Create(ctx, map[string]interface{}{"id": id, "count": 1}))
	require.Contains(lastRequest(t, ex), "USING TIMESTAMP")

	require.NoError(m.Create(ctx, map[string]interface{}{"id": uuid.NewString(), "count": 1}))
	require.NotContains(lastRequest(t, ex), "USING")

	require.NoError(m.Update(ctx, map[string]interface{}{"id": id}, map[string]interface{}{"count": 2}))
	require.NotContains(lastRequest(t, ex), "USING")
}

func TestTimestampReadBack(t *testing.T) {
	require := require.New(t)
	m, _, tm := newTestMutator()

	h := m.WithTimestamp(imutation.Offset(30 * time.Second))

	opts, err := h.Opts()
	require.NoError(err)

	tp, ok := opts.Timestamp()
	require.True(ok)
	require.Equal(imutation.TimePointOf(tm.Now().Add(30*time.Second)), tp)

	in, ok := opts.Input()
	require.True(ok)
	d, ok := in.AsOffset()
	require.True(ok)
	require.Equal(30*time.Second, d)
}

func TestTTLAndTimestampOrdering(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()

	err := m.WithTimestamp(imutation.Offset(30 * time.Second)).WithTTL(30).
		Create(context.Background(), map[string]interface{}{"id": uuid.NewString(), "count": 1})
	require.NoError(err)

	request := lastRequest(t, ex)
	require.Regexp(`USING TTL \d+ AND TIMESTAMP \d+`, request)
	require.NotRegexp(`TIMESTAMP \d+ AND TTL`, request)
}

func TestInstanceUpdateWithTimestamp(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))

	err := m.WithTimestamp(imutation.Offset(30 * time.Second)).
		Update(ctx, map[string]interface{}{"id": id}, map[string]interface{}{"count": 2})
	require.NoError(err)

	// the modifier clause goes between the table name and SET
	require.Regexp(`UPDATE "records" USING TIMESTAMP \d+ SET`, lastRequest(t, ex))
}

func TestBatchTimestampIsIncluded(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()

	err := m.RunBatchWithTimestamp(context.Background(), imutation.Offset(30*time.Second), func(b IBatch) error {
		return m.InBatch(b).Create(context.Background(), map[string]interface{}{"id": uuid.NewString(), "count": 1})
	})
	require.NoError(err)

	requests := ex.Requests()
	require.Len(requests, 1)
	require.Contains(requests[0], "USING TIMESTAMP")
	require.Contains(requests[0], "BEGIN BATCH")
}

func TestCreateInBatchWithScopedTimestamp(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()

	err := m.RunBatch(context.Background(), func(b IBatch) error {
		return m.WithTimestamp(imutation.Offset(10 * time.Second)).InBatch(b).
			Create(context.Background(), map[string]interface{}{"id": uuid.NewString(), "count": 1})
	})
	require.NoError(err)

	request := lastRequest(t, ex)
	require.Regexp(`INSERT.*USING TIMESTAMP`, request)
	require.NotRegexp(`TIMESTAMP.*INSERT`, request)
}

func TestUpdateInBatchWithTimestamp(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))

	err := m.RunBatch(ctx, func(b IBatch) error {
		return m.InBatch(b).WithTimestamp(imutation.Offset(30*time.Second)).
			Update(ctx, map[string]interface{}{"id": id}, map[string]interface{}{"count": 2})
	})
	require.NoError(err)

	require.Contains(lastRequest(t, ex), "USING TIMESTAMP")
}

// a mutation-level timestamp overrides the batch-wide one; mutations without
// their own are backfilled at commit time
func TestBatchWideTimestampBackfill(t *testing.T) {
	require := require.New(t)
	m, ex, tm := newTestMutator()
	ctx := context.Background()

	own := micros(tm, 10*time.Second)
	batchWide := micros(tm, 30*time.Second)

	err := m.RunBatchWithTimestamp(ctx, imutation.Offset(30*time.Second), func(b IBatch) error {
		if err := m.InBatch(b).Create(ctx, map[string]interface{}{"id": uuid.NewString(), "count": 1}); err != nil {
			return err
		}
		return m.InBatch(b).WithTimestamp(imutation.Offset(10 * time.Second)).
			Create(ctx, map[string]interface{}{"id": uuid.NewString(), "count": 2})
	})
	require.NoError(err)

	request := lastRequest(t, ex)
	require.Contains(request, "USING TIMESTAMP "+batchWide)
	require.Contains(request, "USING TIMESTAMP "+own)
}

func TestFutureDelete(t *testing.T) {
	require := require.New(t)
	m, _, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()
	key := map[string]interface{}{"id": id}

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))
	_, err := m.Get(ctx, key)
	require.NoError(err)

	require.NoError(m.WithTimestamp(imutation.Offset(5 * time.Second)).Delete(ctx, key))

	// the future-timestamped tombstone already shadows the row
	_, err = m.Get(ctx, key)
	require.ErrorIs(err, imutation.ErrNotFound)

	// and keeps shadowing a re-create with a default (now) timestamp
	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))
	_, err = m.Get(ctx, key)
	require.ErrorIs(err, imutation.ErrNotFound)
}

func TestBlindDelete(t *testing.T) {
	require := require.New(t)
	m, _, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()
	key := map[string]interface{}{"id": id}

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))

	require.NoError(m.QuerySet(key).WithTimestamp(imutation.Offset(5 * time.Second)).Delete(ctx))

	_, err := m.Get(ctx, key)
	require.ErrorIs(err, imutation.ErrNotFound)

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))
	_, err = m.Get(ctx, key)
	require.ErrorIs(err, imutation.ErrNotFound)
}

func TestBlindDeleteWithAbsoluteTime(t *testing.T) {
	require := require.New(t)
	m, _, tm := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()
	key := map[string]interface{}{"id": id}

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))

	plusFiveSeconds := tm.Now().Add(5 * time.Second)
	require.NoError(m.QuerySet(key).WithTimestamp(imutation.At(plusFiveSeconds)).Delete(ctx))

	_, err := m.Get(ctx, key)
	require.ErrorIs(err, imutation.ErrNotFound)
}

func TestDeleteInThePast(t *testing.T) {
	require := require.New(t)
	m, _, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()
	key := map[string]interface{}{"id": id}

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))

	// ordered before the create: has no effect
	require.NoError(m.QuerySet(key).WithTimestamp(imutation.Offset(-60 * time.Second)).Delete(ctx))

	_, err := m.Get(ctx, key)
	require.NoError(err)
}

func TestTTLOnDeleteIsUsageError(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()
	key := map[string]interface{}{"id": uuid.NewString()}

	err := m.WithTTL(10).Delete(ctx, key)
	require.ErrorIs(err, imutation.ErrTTLOnDelete)
	require.Empty(ex.Requests()) // raised before any dispatch

	b, err := m.BeginBatch()
	require.NoError(err)
	err = m.InBatch(b).WithTTL(10).Delete(ctx, key)
	require.ErrorIs(err, imutation.ErrTTLOnDelete)
	require.NoError(b.Abort())
	require.Empty(ex.Requests())
}

func TestMalformedTimestampInput(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()

	err := m.WithTimestamp(imutation.TimestampInput{}).
		Create(ctx, map[string]interface{}{"id": uuid.NewString(), "count": 1})
	require.ErrorIs(err, imutation.ErrNoTimestampInput)
	require.Empty(ex.Requests())

	_, err = m.BeginBatchWithTimestamp(imutation.TimestampInput{})
	require.ErrorIs(err, imutation.ErrNoTimestampInput)

	err = m.RunBatchWithTimestamp(ctx, imutation.TimestampInput{}, func(b IBatch) error { return nil })
	require.ErrorIs(err, imutation.ErrNoTimestampInput)
}

func TestNestedBatchIsUsageError(t *testing.T) {
	require := require.New(t)
	m, _, _ := newTestMutator()

	b, err := m.BeginBatch()
	require.NoError(err)

	_, err = m.BeginBatch()
	require.ErrorIs(err, imutation.ErrBatchAlreadyOpen)

	require.NoError(b.Abort())

	// the slot frees up once the batch closes
	b, err = m.BeginBatch()
	require.NoError(err)
	require.NoError(b.Commit(context.Background()))
}

func TestBatchLifecycle(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()

	b, err := m.BeginBatch()
	require.NoError(err)
	require.Equal(BatchState_Open, b.State())

	require.NoError(m.InBatch(b).Create(ctx, map[string]interface{}{"id": uuid.NewString(), "count": 1}))
	require.Empty(ex.Requests()) // nothing dispatched while accumulating

	require.NoError(b.Commit(ctx))
	require.Equal(BatchState_Committed, b.State())
	require.Len(ex.Requests(), 1)

	require.ErrorIs(b.Commit(ctx), imutation.ErrBatchNotOpen)
	require.ErrorIs(b.Abort(), imutation.ErrBatchNotOpen)
	err = m.InBatch(b).Create(ctx, map[string]interface{}{"id": uuid.NewString(), "count": 1})
	require.ErrorIs(err, imutation.ErrBatchNotOpen)
}

func TestBatchAbortDiscardsAll(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()

	b, err := m.BeginBatch()
	require.NoError(err)
	require.NoError(m.InBatch(b).Create(ctx, map[string]interface{}{"id": id, "count": 1}))
	require.NoError(b.Abort())
	require.Equal(BatchState_Aborted, b.State())

	require.Empty(ex.Requests())
	_, err = m.Get(ctx, map[string]interface{}{"id": id})
	require.ErrorIs(err, imutation.ErrNotFound)
}

func TestRunBatchAbortsOnError(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.RunBatch(ctx, func(b IBatch) error {
		if err := m.InBatch(b).Create(ctx, map[string]interface{}{"id": uuid.NewString(), "count": 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(err, boom)
	require.Empty(ex.Requests())

	// the mutator is reusable afterwards
	b, err := m.BeginBatch()
	require.NoError(err)
	require.NoError(b.Abort())
}

func TestEmptyBatchCommit(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()

	b, err := m.BeginBatch()
	require.NoError(err)
	require.NoError(b.Commit(context.Background()))
	require.Equal(BatchState_Committed, b.State())
	require.Empty(ex.Requests())
}

func TestQuerySetUpdateWithTTL(t *testing.T) {
	require := require.New(t)
	m, ex, _ := newTestMutator()
	ctx := context.Background()
	id := uuid.NewString()

	require.NoError(m.Create(ctx, map[string]interface{}{"id": id, "count": 1}))

	err := m.QuerySet(map[string]interface{}{"id": id}).WithTTL(60).
		Update(ctx, map[string]interface{}{"count": 2})
	require.NoError(err)

	require.Contains(lastRequest(t, ex), "USING TTL 60")
}
