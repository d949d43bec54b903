/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/voedger/cqlbatch/pkg/coreutils"
	"github.com/voedger/cqlbatch/pkg/imutation"
	"github.com/voedger/cqlbatch/pkg/imutation/cas"
	"github.com/voedger/cqlbatch/pkg/mutator"
)

var (
	hosts     string
	port      int
	keyspace  string
	tableName string
	keyColumn string

	idStr        string
	fieldFlags   []string
	timestampStr string
	ttl          uint32
)

func newInsertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insert",
		Short: "Insert a row; prints the row key",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ex, err := newMutator()
			if err != nil {
				return err
			}
			defer ex.Close()
			fields, err := parseFields(fieldFlags)
			if err != nil {
				return err
			}
			if idStr == "" {
				idStr = uuid.NewString()
			}
			fields[keyColumn] = idStr
			s, err := scope(m)
			if err != nil {
				return err
			}
			if err := s.Create(cmd.Context(), fields); err != nil {
				return err
			}
			fmt.Println(idStr)
			return nil
		},
	}
	cmd.Flags().StringVar(&idStr, "id", "", "Row key (generated if omitted)")
	cmd.Flags().StringArrayVar(&fieldFlags, "field", nil, "Field value, name=value (repeatable)")
	cmd.Flags().StringVar(&timestampStr, "timestamp", "", "Write-timestamp: duration offset (e.g. 5s, -60s) or RFC3339 instant")
	cmd.Flags().Uint32Var(&ttl, "ttl", 0, "Time-to-live in seconds, 0 means no expiration")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update a row by key",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ex, err := newMutator()
			if err != nil {
				return err
			}
			defer ex.Close()
			fields, err := parseFields(fieldFlags)
			if err != nil {
				return err
			}
			s, err := scope(m)
			if err != nil {
				return err
			}
			return s.Update(cmd.Context(), map[string]interface{}{keyColumn: idStr}, fields)
		},
	}
	cmd.Flags().StringVar(&idStr, "id", "", "Row key")
	cmd.Flags().StringArrayVar(&fieldFlags, "field", nil, "Field value, name=value (repeatable)")
	cmd.Flags().StringVar(&timestampStr, "timestamp", "", "Write-timestamp: duration offset or RFC3339 instant")
	cmd.Flags().Uint32Var(&ttl, "ttl", 0, "Time-to-live in seconds, 0 means no expiration")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a row by key",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ex, err := newMutator()
			if err != nil {
				return err
			}
			defer ex.Close()
			s, err := scope(m)
			if err != nil {
				return err
			}
			return s.Delete(cmd.Context(), map[string]interface{}{keyColumn: idStr})
		},
	}
	cmd.Flags().StringVar(&idStr, "id", "", "Row key")
	cmd.Flags().StringVar(&timestampStr, "timestamp", "", "Write-timestamp: duration offset or RFC3339 instant")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read a live row by key",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ex, err := newMutator()
			if err != nil {
				return err
			}
			defer ex.Close()
			row, err := m.Get(cmd.Context(), map[string]interface{}{keyColumn: idStr})
			if err != nil {
				return err
			}
			for name, value := range row {
				fmt.Printf("%s: %v\n", name, value)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&idStr, "id", "", "Row key")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newDDLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ddl <statement>",
		Short: "Run a schema statement, e.g. CREATE TABLE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, ex, err := newMutator()
			if err != nil {
				return err
			}
			defer ex.Close()
			return ex.ExecDDL(args[0])
		},
	}
}

func newMutator() (mutator.IMutator, cas.ICasExecutor, error) {
	ex, err := cas.Provide(cas.CassandraParamsType{
		Hosts:    hosts,
		Port:     port,
		Keyspace: keyspace,
	})
	if err != nil {
		return nil, nil, err
	}
	table := imutation.TableDef{Name: tableName, KeyColumns: []string{keyColumn}}
	return mutator.Provide(table, ex, coreutils.NewITime()), ex, nil
}

// scope builds the write options handle from the --timestamp and --ttl flags
func scope(m mutator.IMutator) (mutator.IScoped, error) {
	s := m.WithTTL(ttl)
	if timestampStr != "" {
		input, err := parseTimestamp(timestampStr)
		if err != nil {
			return nil, err
		}
		s = s.WithTimestamp(input)
	}
	return s, nil
}
