/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package cas

import (
	"errors"

	"github.com/voedger/cqlbatch/pkg/imutation"
)

// ICasExecutor dispatches rendered statements to a Cassandra cluster
type ICasExecutor interface {
	imutation.IExecutor

	// ExecDDL runs a schema statement. Schema synchronization proper belongs
	// to the mapping layer; this is the narrow hook it uses
	ExecDDL(ddl string) error

	Close()
}

func Provide(params CassandraParamsType) (ex ICasExecutor, err error) {
	if len(params.Keyspace) == 0 {
		return nil, errors.New("params.Keyspace can not be empty")
	}
	return newCasExecutor(params)
}
