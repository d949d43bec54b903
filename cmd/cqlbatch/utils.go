/*
 * Copyright (c) 2024-present unTill Software Development Group B.V.
 */

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/voedger/cqlbatch/pkg/imutation"
)

// parseTimestamp accepts a duration offset ("5s", "-60s") or an RFC3339 instant
func parseTimestamp(value string) (imutation.TimestampInput, error) {
	if d, err := time.ParseDuration(value); err == nil {
		return imutation.Offset(d), nil
	}
	if at, err := time.Parse(time.RFC3339, value); err == nil {
		return imutation.At(at), nil
	}
	return imutation.TimestampInput{}, fmt.Errorf("can't parse timestamp %q: expected duration or RFC3339", value)
}

// parseFields turns repeated name=value flags into field deltas. Integer
// values are passed as ints so they bind to int columns; everything else is
// passed as text
func parseFields(flags []string) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	for _, flag := range flags {
		name, value, ok := strings.Cut(flag, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("can't parse field %q: expected name=value", flag)
		}
		if n, err := strconv.Atoi(value); err == nil {
			fields[name] = n
		} else {
			fields[name] = value
		}
	}
	return fields, nil
}
