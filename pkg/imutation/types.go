/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package imutation

import (
	"time"

	"github.com/voedger/cqlbatch/pkg/coreutils"
)

// TimePoint is an absolute logical write-time, microseconds since epoch.
// Among mutations to the same cell the one with the highest TimePoint wins,
// regardless of arrival order. Ordering is total.
type TimePoint int64

func TimePointOf(t time.Time) TimePoint {
	return TimePoint(t.UnixMicro())
}

// TimestampInput is a user-facing timestamp argument: either an offset from
// "now" (negative is legal and resolves to the past) or an absolute instant.
// The zero value is not a valid input.
type TimestampInput struct {
	offset   time.Duration
	at       time.Time
	absolute bool
	valid    bool
}

func Offset(d time.Duration) TimestampInput {
	return TimestampInput{offset: d, valid: true}
}

func At(t time.Time) TimestampInput {
	return TimestampInput{at: t, absolute: true, valid: true}
}

// Resolve normalizes the input into an absolute TimePoint. For offset inputs
// tm.Now() is sampled once per call, so the same offset resolves to different
// TimePoints at different real times.
func (ti TimestampInput) Resolve(tm coreutils.ITime) (TimePoint, error) {
	if !ti.valid {
		return 0, ErrNoTimestampInput
	}
	if ti.absolute {
		return TimePointOf(ti.at), nil
	}
	return TimePointOf(tm.Now().Add(ti.offset)), nil
}

// AsOffset reports the original offset for an offset input
func (ti TimestampInput) AsOffset() (d time.Duration, ok bool) {
	return ti.offset, ti.valid && !ti.absolute
}

// WriteOpts is an immutable set of write modifiers for one mutation. It is
// built by the caller and passed into the mutation call, never stored on an
// entity, so a pending timestamp can not leak into a later unrelated mutation.
//
// An offset timestamp is resolved to an absolute TimePoint when the option is
// constructed (scope-set time), not when the mutation is dispatched.
type WriteOpts struct {
	timestamp    TimePoint
	input        TimestampInput
	hasTimestamp bool
	ttl          uint32
}

func (o WriteOpts) WithTimestamp(ti TimestampInput, tm coreutils.ITime) (WriteOpts, error) {
	tp, err := ti.Resolve(tm)
	if err != nil {
		return o, err
	}
	o.timestamp = tp
	o.input = ti
	o.hasTimestamp = true
	return o, nil
}

// WithResolvedTimestamp carries an already-resolved TimePoint, e.g. a
// batch-wide timestamp backfilled into a mutation at commit time
func (o WriteOpts) WithResolvedTimestamp(tp TimePoint) WriteOpts {
	o.timestamp = tp
	o.input = TimestampInput{}
	o.hasTimestamp = true
	return o
}

// WithTTL sets expiration in seconds, independent of the timestamp. Zero means
// "no expiration".
func (o WriteOpts) WithTTL(seconds uint32) WriteOpts {
	o.ttl = seconds
	return o
}

func (o WriteOpts) Timestamp() (tp TimePoint, ok bool) {
	return o.timestamp, o.hasTimestamp
}

// Input reports the original TimestampInput the timestamp was resolved from
func (o WriteOpts) Input() (ti TimestampInput, ok bool) {
	return o.input, o.hasTimestamp && o.input.valid
}

func (o WriteOpts) TTL() uint32 {
	return o.ttl
}

// TableDef is the narrow slice of the mapping layer this package consumes:
// where a row lives and which columns form its primary key
type TableDef struct {
	Name       string
	KeyColumns []string
	// non-key columns
	Columns []string
}

type MutationKind uint8

const (
	MutationKind_Null MutationKind = iota
	MutationKind_Insert
	MutationKind_Update
	MutationKind_Delete
)

// Mutation is one pending write or delete against one row, decoupled from its
// dispatch. Key addresses the row; Values are the field deltas (Insert and
// Update only).
type Mutation struct {
	Kind   MutationKind
	Table  TableDef
	Key    map[string]interface{}
	Values map[string]interface{}
	Opts   WriteOpts
}

// Validate rejects modifier combinations the store grammar forbids. It is
// called before any dispatch.
func (m Mutation) Validate() error {
	switch m.Kind {
	case MutationKind_Insert, MutationKind_Update, MutationKind_Delete:
	default:
		return ErrUnknownMutationKind
	}
	if m.Kind == MutationKind_Delete && m.Opts.TTL() > 0 {
		// deletes do not expire
		return ErrTTLOnDelete
	}
	for _, kc := range m.Table.KeyColumns {
		if _, ok := m.Key[kc]; !ok {
			return ErrKeyColumnMissing
		}
	}
	return nil
}
