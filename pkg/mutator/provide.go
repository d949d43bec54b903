/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package mutator

import (
	"github.com/voedger/cqlbatch/pkg/coreutils"
	"github.com/voedger/cqlbatch/pkg/imutation"
)

func Provide(table imutation.TableDef, ex imutation.IExecutor, tm coreutils.ITime) IMutator {
	return &mutatorType{table: table, exec: ex, tm: tm}
}
