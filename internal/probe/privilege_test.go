// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckPrivilege(t *testing.T) {
	tests := []struct {
		name     string
		interval time.Duration
		euid     int
		wantErr  bool
	}{
		{"one second as user", time.Second, 1000, false},
		{"two seconds as user", 2 * time.Second, 1000, false},
		{"sub-second as user", 500 * time.Millisecond, 1000, true},
		{"zero interval as user", 0, 1000, true},
		{"sub-second as root", 200 * time.Millisecond, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := geteuid
			geteuid = func() int { return tt.euid }
			t.Cleanup(func() { geteuid = orig })

			err := checkPrivilege(tt.interval)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPrivilege)
				return
			}
			assert.NoError(t, err)
		})
	}
}
