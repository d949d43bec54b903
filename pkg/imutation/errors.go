/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package imutation

import "errors"

var (
	ErrNotFound            = errors.New("row does not exist")
	ErrBatchAlreadyOpen    = errors.New("batch is already open")
	ErrBatchNotOpen        = errors.New("batch is not open")
	ErrTTLOnDelete         = errors.New("ttl can not be applied to a delete")
	ErrNoTimestampInput    = errors.New("timestamp input is not provided")
	ErrUnknownMutationKind = errors.New("unknown mutation kind")
	ErrKeyColumnMissing    = errors.New("key column value is missing")
)
