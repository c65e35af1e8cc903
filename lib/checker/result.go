// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package checker

import "fmt"

// Result is the outcome of a check. The numeric values are the
// runner's; a Result is submitted over the control channel as its
// integer value.
type Result int

const (
	// ResultInvalid is returned alongside an error. It is never
	// submitted.
	ResultInvalid Result = -1

	ResultOK           Result = 0
	ResultDown         Result = 1
	ResultFaulty       Result = 2
	ResultFlagNotFound Result = 3
	ResultRecovering   Result = 4
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultDown:
		return "DOWN"
	case ResultFaulty:
		return "FAULTY"
	case ResultFlagNotFound:
		return "FLAG_NOT_FOUND"
	case ResultRecovering:
		return "RECOVERING"
	case ResultInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}
