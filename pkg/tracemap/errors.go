// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracemap

import "errors"

var (
	// ErrNoUsableData is returned when no destination produced a path with
	// at least one resolved hop. No image is exported then.
	ErrNoUsableData = errors.New("no destination produced a resolved hop")
	// ErrRunAborted is returned when the run context ended before all
	// destinations were traced.
	ErrRunAborted = errors.New("run aborted")
)

// ErrShutdown holds any errors that may
// have occurred during shutdown of a run
type ErrShutdown struct {
	errTelemetry error
}

// HasError returns true if any of the errors are set
func (e ErrShutdown) HasError() bool {
	return e.errTelemetry != nil
}
