/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package mem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/untillpro/goutils/logger"

	"github.com/voedger/cqlbatch/pkg/coreutils"
	"github.com/voedger/cqlbatch/pkg/imutation"
)

type cellType struct {
	value     interface{}
	writeTime imutation.TimePoint
	// unix micro, 0 means no expiration
	expireAt int64
}

type rowType struct {
	cells        map[string]cellType
	tombstone    imutation.TimePoint
	hasTombstone bool
}

type memExecutorType struct {
	mu       sync.Mutex
	tm       coreutils.ITime
	tables   map[string]map[string]*rowType
	requests []string
}

func (e *memExecutorType) Execute(ctx context.Context, stmt imutation.Statement) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cql, _ := stmt.CQL()
	e.requests = append(e.requests, cql)
	if logger.IsVerbose() {
		logger.Verbose("mem execute:", cql)
	}
	e.apply(stmt)
	return nil
}

func (e *memExecutorType) ExecuteBatch(ctx context.Context, stmts []imutation.Statement) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	// one request per batch; all statements apply under one lock
	text := imutation.RenderBatch(stmts)
	e.requests = append(e.requests, text)
	if logger.IsVerbose() {
		logger.Verbose("mem execute batch:", text)
	}
	for _, stmt := range stmts {
		e.apply(stmt)
	}
	return nil
}

func (e *memExecutorType) Get(ctx context.Context, table imutation.TableDef, key map[string]interface{}) (imutation.Row, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, ok := e.tables[table.Name]
	if !ok {
		return nil, imutation.ErrNotFound
	}
	r, ok := rows[rowKeyOf(keyValues(table, key))]
	if !ok {
		return nil, imutation.ErrNotFound
	}

	now := e.tm.Now().UnixMicro()
	row := imutation.Row{}
	for col, c := range r.cells {
		if r.hasTombstone && c.writeTime <= r.tombstone {
			continue
		}
		if c.expireAt != 0 && c.expireAt <= now {
			continue
		}
		row[col] = c.value
	}
	if len(row) == 0 {
		return nil, imutation.ErrNotFound
	}
	return row, nil
}

func (e *memExecutorType) Requests() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]string, len(e.requests))
	copy(res, e.requests)
	return res
}

func (e *memExecutorType) ClearRequests() {
	e.mu.Lock()
	e.requests = nil
	e.mu.Unlock()
}

// apply replays one statement onto the table. Caller must hold e.mu.
func (e *memExecutorType) apply(stmt imutation.Statement) {
	writeTime := imutation.TimePointOf(e.tm.Now())
	if stmt.HasTimestamp {
		writeTime = stmt.Timestamp
	}

	rows, ok := e.tables[stmt.Table]
	if !ok {
		rows = map[string]*rowType{}
		e.tables[stmt.Table] = rows
	}
	rk := rowKeyOf(stmt.KeyValues)
	r, ok := rows[rk]
	if !ok {
		r = &rowType{cells: map[string]cellType{}}
		rows[rk] = r
	}

	switch stmt.Kind {
	case imutation.MutationKind_Insert, imutation.MutationKind_Update:
		var expireAt int64
		if stmt.TTL > 0 {
			expireAt = e.tm.Now().Add(time.Duration(stmt.TTL) * time.Second).UnixMicro()
		}
		cols := stmt.Columns
		values := stmt.Values
		if stmt.Kind == imutation.MutationKind_Update {
			// key cells get the new write-time too, as the store does for the
			// row marker, otherwise an updated row could not outlive a tombstone
			cols = append(append([]string{}, stmt.Columns...), stmt.KeyNames...)
			values = append(append([]interface{}{}, stmt.Values...), stmt.KeyValues...)
		}
		for i, col := range cols {
			if old, ok := r.cells[col]; ok && old.writeTime > writeTime {
				continue // LWW: the existing cell carries a later write-time
			}
			r.cells[col] = cellType{value: values[i], writeTime: writeTime, expireAt: expireAt}
		}
	case imutation.MutationKind_Delete:
		if !r.hasTombstone || writeTime > r.tombstone {
			r.tombstone = writeTime
			r.hasTombstone = true
		}
	}
}

func keyValues(table imutation.TableDef, key map[string]interface{}) []interface{} {
	values := make([]interface{}, 0, len(table.KeyColumns))
	for _, kc := range table.KeyColumns {
		values = append(values, key[kc])
	}
	return values
}

func rowKeyOf(keyValues []interface{}) string {
	b := strings.Builder{}
	for _, v := range keyValues {
		fmt.Fprintf(&b, "%v\x00", v)
	}
	return b.String()
}
