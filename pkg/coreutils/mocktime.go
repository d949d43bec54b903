/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package coreutils

import (
	"sync"
	"time"
)

// MockTime must be a global var to avoid case when different times could be used in tests.
var MockTime = NewMockTime()

type IMockTime interface {
	ITime

	Add(d time.Duration)
}

func NewMockTime() IMockTime {
	return &mockedTime{now: time.Now()}
}

type mockedTime struct {
	mu  sync.RWMutex
	now time.Time
}

func (t *mockedTime) Now() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.now
}

func (t *mockedTime) Add(d time.Duration) {
	t.mu.Lock()
	t.now = t.now.Add(d)
	t.mu.Unlock()
}
