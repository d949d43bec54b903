/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package imutation

import (
	"strconv"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Statement is the structured wire form of one mutation. Tests assert on this
// form where possible; CQL() is its one fixed text serialization, kept for
// wire compatibility. Row values are bound via `?` placeholders, TTL and
// TIMESTAMP are rendered as literals inside the modifier clause.
type Statement struct {
	Kind  MutationKind
	Table string

	// assignment columns in rendering order; for inserts key columns go first
	Columns []string
	Values  []interface{}

	// row address, rendered as the WHERE predicate for updates and deletes;
	// carried for inserts too so drivers can address the row structurally
	KeyNames  []string
	KeyValues []interface{}

	TTL          uint32
	Timestamp    TimePoint
	HasTimestamp bool
}

// NewStatement renders a validated Mutation into its wire form. Column order
// is deterministic: key columns in TableDef order, then value columns sorted
// by name — map iteration order must not leak into the wire form.
func NewStatement(m Mutation) (stmt Statement, err error) {
	if err = m.Validate(); err != nil {
		return stmt, err
	}

	stmt.Kind = m.Kind
	stmt.Table = m.Table.Name
	stmt.TTL = m.Opts.TTL()
	stmt.Timestamp, stmt.HasTimestamp = m.Opts.Timestamp()

	for _, kc := range m.Table.KeyColumns {
		stmt.KeyNames = append(stmt.KeyNames, kc)
		stmt.KeyValues = append(stmt.KeyValues, m.Key[kc])
	}

	valueCols := maps.Keys(m.Values)
	slices.Sort(valueCols)

	if m.Kind == MutationKind_Insert {
		stmt.Columns = append(stmt.Columns, stmt.KeyNames...)
		stmt.Values = append(stmt.Values, stmt.KeyValues...)
	}
	for _, c := range valueCols {
		stmt.Columns = append(stmt.Columns, c)
		stmt.Values = append(stmt.Values, m.Values[c])
	}
	return stmt, nil
}

// usingClause renders the write modifiers. When both are present TTL precedes
// TIMESTAMP inside one contiguous clause: the store grammar fixes this order.
// When neither is present there is no USING token at all, indistinguishable
// from a statement that never touched the timestamp subsystem.
func (s Statement) usingClause() string {
	switch {
	case s.TTL > 0 && s.HasTimestamp:
		return "USING TTL " + strconv.FormatUint(uint64(s.TTL), 10) +
			" AND TIMESTAMP " + strconv.FormatInt(int64(s.Timestamp), 10)
	case s.TTL > 0:
		return "USING TTL " + strconv.FormatUint(uint64(s.TTL), 10)
	case s.HasTimestamp:
		return "USING TIMESTAMP " + strconv.FormatInt(int64(s.Timestamp), 10)
	}
	return ""
}

// CQL returns the statement text and the values bound to its placeholders
func (s Statement) CQL() (cql string, values []interface{}) {
	b := strings.Builder{}
	switch s.Kind {
	case MutationKind_Insert:
		b.WriteString("INSERT INTO ")
		b.WriteString(quoted(s.Table))
		b.WriteString(" (")
		for i, c := range s.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoted(c))
		}
		b.WriteString(") VALUES (")
		for i := range s.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
		}
		b.WriteString(")")
		if u := s.usingClause(); u != "" {
			b.WriteString(" ")
			b.WriteString(u)
		}
		values = s.Values
	case MutationKind_Update:
		// the modifier clause goes between the table name and SET
		b.WriteString("UPDATE ")
		b.WriteString(quoted(s.Table))
		if u := s.usingClause(); u != "" {
			b.WriteString(" ")
			b.WriteString(u)
		}
		b.WriteString(" SET ")
		for i, c := range s.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoted(c))
			b.WriteString(" = ?")
		}
		s.writeWhere(&b)
		values = append(append(values, s.Values...), s.KeyValues...)
	case MutationKind_Delete:
		// the modifier clause goes between the table name and WHERE
		b.WriteString("DELETE FROM ")
		b.WriteString(quoted(s.Table))
		if u := s.usingClause(); u != "" {
			b.WriteString(" ")
			b.WriteString(u)
		}
		s.writeWhere(&b)
		values = s.KeyValues
	}
	return b.String(), values
}

func (s Statement) writeWhere(b *strings.Builder) {
	b.WriteString(" WHERE ")
	for i, k := range s.KeyNames {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(quoted(k))
		b.WriteString(" = ?")
	}
}

// SelectCQL renders the read-by-primary-key request used by IExecutor.Get
func SelectCQL(table TableDef, key map[string]interface{}) (cql string, values []interface{}) {
	b := strings.Builder{}
	b.WriteString("SELECT * FROM ")
	b.WriteString(quoted(table.Name))
	b.WriteString(" WHERE ")
	for i, kc := range table.KeyColumns {
		if i > 0 {
			b.WriteString(" AND ")
		}
		b.WriteString(quoted(kc))
		b.WriteString(" = ?")
		values = append(values, key[kc])
	}
	b.WriteString(" LIMIT 1")
	return b.String(), values
}

// RenderBatch produces the compound request text: one atomic unit framing all
// accumulated statements in add order
func RenderBatch(stmts []Statement) string {
	b := strings.Builder{}
	b.WriteString("BEGIN BATCH\n")
	for _, s := range stmts {
		cql, _ := s.CQL()
		b.WriteString("  ")
		b.WriteString(cql)
		b.WriteString(";\n")
	}
	b.WriteString("APPLY BATCH")
	return b.String()
}

func quoted(ident string) string {
	return `"` + ident + `"`
}
