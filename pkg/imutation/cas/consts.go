/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package cas

import "time"

const (
	ConnectionTimeout = 30 * time.Second
	retryAttempt      = 3

	SimpleWithReplication = "{ 'class' : 'SimpleStrategy', 'replication_factor' : 1 }"
)
