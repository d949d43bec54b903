/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package coreutils

import "time"

// ITime is the only clock source of the module. Write-time resolution and
// TTL expiry must go through an injected ITime, never through time.Now().
type ITime interface {
	Now() time.Time
}

func NewITime() ITime {
	return &realTime{}
}

type realTime struct{}

func (t *realTime) Now() time.Time {
	return time.Now()
}
