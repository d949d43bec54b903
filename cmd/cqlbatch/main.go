/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package main

import (
	_ "embed"
	"os"

	"github.com/untillpro/goutils/cobrau"
	"github.com/untillpro/goutils/logger"
)

//go:embed version
var version string

func main() {
	if err := execRootCmd(os.Args, version); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func execRootCmd(args []string, ver string) error {
	rootCmd := cobrau.PrepareRootCmd(
		"cqlbatch",
		"Timestamp- and TTL-aware mutations against a Cassandra cluster",
		args,
		ver,
		newInsertCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newGetCmd(),
		newDDLCmd(),
	)
	rootCmd.PersistentFlags().StringVar(&hosts, "hosts", "127.0.0.1", "Comma separated list of cluster hosts")
	rootCmd.PersistentFlags().IntVar(&port, "port", 9042, "Cluster port")
	rootCmd.PersistentFlags().StringVar(&keyspace, "keyspace", "cqlbatch", "Keyspace")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "records", "Table name")
	rootCmd.PersistentFlags().StringVar(&keyColumn, "key-column", "id", "Primary key column name")
	return rootCmd.Execute()
}
