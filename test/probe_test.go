// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/telekom/tracemap/internal/probe"
)

func TestCycle(t *testing.T) {
	got := Cycle("10.0.0.1", NoReply, "1.1.1.1")
	want := probe.Cycle{Samples: []probe.HopSample{
		{Index: 1, Address: "10.0.0.1", RTT: time.Millisecond},
		{Index: 2, Loss: true},
		{Index: 3, Address: "1.1.1.1", RTT: 3 * time.Millisecond},
	}}
	assert.Equal(t, want, got)
	assert.Len(t, Cycles(3, "1.1.1.1"), 3)
}
