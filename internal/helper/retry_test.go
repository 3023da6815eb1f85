// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package helper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry(t *testing.T) {
	errTransient := errors.New("transient")
	errFatal := errors.New("fatal")

	tests := []struct {
		name      string
		failures  int
		err       error
		rc        RetryConfig
		wantCalls int
		wantErr   error
	}{
		{
			name:      "success on first attempt",
			failures:  0,
			rc:        RetryConfig{Count: 3, Delay: time.Millisecond},
			wantCalls: 1,
		},
		{
			name:      "success after two failures",
			failures:  2,
			err:       errTransient,
			rc:        RetryConfig{Count: 3, Delay: time.Millisecond},
			wantCalls: 3,
		},
		{
			name:      "retries exhausted",
			failures:  10,
			err:       errTransient,
			rc:        RetryConfig{Count: 2, Delay: time.Millisecond},
			wantCalls: 3,
			wantErr:   errTransient,
		},
		{
			name:      "permanent error is not retried",
			failures:  10,
			err:       Permanent(errFatal),
			rc:        RetryConfig{Count: 5, Delay: time.Millisecond},
			wantCalls: 1,
			wantErr:   errFatal,
		},
		{
			name:      "no retries configured",
			failures:  1,
			err:       errTransient,
			rc:        RetryConfig{},
			wantCalls: 1,
			wantErr:   errTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			effector := func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			}

			err := Retry(effector, tt.rc)(t.Context())
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRetry_contextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	calls := 0
	effector := func(context.Context) error {
		calls++
		cancel()
		return errors.New("failed")
	}

	err := Retry(effector, RetryConfig{Count: 3, Delay: time.Hour})(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRetryValue(t *testing.T) {
	calls := 0
	effector := func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", fmt.Errorf("attempt %d failed", calls)
		}
		return "Berlin", nil
	}

	got, err := RetryValue(effector, RetryConfig{Count: 2, Delay: time.Millisecond})(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "Berlin", got)
	assert.Equal(t, 2, calls)
}

func TestIsPermanent(t *testing.T) {
	base := errors.New("no such binary")
	assert.True(t, IsPermanent(Permanent(base)))
	assert.True(t, IsPermanent(fmt.Errorf("wrapped: %w", Permanent(base))))
	assert.False(t, IsPermanent(base))
	assert.Nil(t, Permanent(nil))
}

func TestGetExpBackoff(t *testing.T) {
	tests := []struct {
		iteration int
		want      time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("iteration %d", tt.iteration), func(t *testing.T) {
			assert.Equal(t, tt.want, getExpBackoff(time.Second, tt.iteration))
		})
	}
}
