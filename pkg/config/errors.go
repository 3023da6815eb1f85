// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrNoDestinations is returned when neither destinations nor a destinations file are configured
	ErrNoDestinations = errors.New("no destinations configured")
	// ErrInvalidDestination is returned when a destination is neither an ip address nor a dns name
	ErrInvalidDestination = errors.New("invalid destination")
	// ErrInvalidOrigin is returned when the origin is not an ip address
	ErrInvalidOrigin = errors.New("invalid origin address")
	// ErrInvalidMaxConcurrent is returned when the concurrency limit is below 1
	ErrInvalidMaxConcurrent = errors.New("invalid max concurrent destinations")
	// ErrInvalidLimit is returned when the destination limit is negative
	ErrInvalidLimit = errors.New("invalid destination limit")
	// ErrInvalidLossThreshold is returned when the loss threshold is not a percentage
	ErrInvalidLossThreshold = errors.New("invalid loss threshold")
	// ErrInvalidProbeMethod is returned when the probe method is unknown
	ErrInvalidProbeMethod = errors.New("invalid probe method")
	// ErrInvalidLoaderFilePath is returned when the destinations file is empty
	ErrInvalidLoaderFilePath = errors.New("invalid loader file path")
)
