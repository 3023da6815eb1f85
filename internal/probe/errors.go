// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrToolNotFound is returned when the trace binary is not installed.
	ErrToolNotFound = errors.New("trace tool not found")
	// ErrPrivilege is returned when the requested probing needs more privileges
	// than the process has, e.g. sub-second intervals without root.
	ErrPrivilege = errors.New("insufficient privileges")
	// ErrUnreachable is returned when no hop answered in any cycle.
	ErrUnreachable = errors.New("destination unreachable")
)

// errICMPNotAvailable is returned when ICMP is not available due to lack of NET_RAW capabilities.
// This typically occurs when the process does not have the necessary permissions to create an ICMP socket.
var errICMPNotAvailable = fmt.Errorf("%w: no NET_RAW capabilities, ICMP not available", ErrPrivilege)

// FailureError is the failure of probing a single destination.
// The destination is excluded from the topology, the run continues.
type FailureError struct {
	Destination string
	Err         error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("probing %s failed: %v", e.Destination, e.Err)
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

// isTracerouteError checks if the error is related to common
// and expected traceroute errors.
func isTracerouteError(err error) bool {
	return errors.Is(err, errICMPNotAvailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
