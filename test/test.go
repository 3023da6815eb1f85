// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package test provides helpers shared by the tests of all packages.
package test

import "testing"

// MarkAsLong marks the test as long running.
// It is skipped when the -short flag is set.
func MarkAsLong(t testing.TB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping long running test in short mode")
	}
}
