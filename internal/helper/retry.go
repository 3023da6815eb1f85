// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package helper

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/telekom/tracemap/internal/logger"
)

type RetryConfig struct {
	Count int           `json:"count" yaml:"count" mapstructure:"count"`
	Delay time.Duration `json:"delay" yaml:"delay" mapstructure:"delay"`
}

// Effector will be the function called by the Retry function
type Effector func(context.Context) error

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Retry returns it immediately.
// The wrapped error stays reachable through errors.Is and errors.As.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with [Permanent].
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Retry will retry the run the effector function in an exponential backoff
func Retry(effector Effector, rc RetryConfig) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		log := logger.FromContext(ctx)
		for r := 1; ; r++ {
			err := effector(ctx)
			if err == nil || r > rc.Count || IsPermanent(err) {
				return err
			}

			delay := getExpBackoff(rc.Delay, r)
			log.WarnContext(ctx, "Effector call failed, retrying", "attempt", r, "delay", delay, "error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
}

// RetryValue is like [Retry] for effectors that produce a value.
func RetryValue[T any](effector func(context.Context) (T, error), rc RetryConfig) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var res T
		err := Retry(func(ctx context.Context) error {
			v, err := effector(ctx)
			if err == nil {
				res = v
			}
			return err
		}, rc)(ctx)
		return res, err
	}
}

// calculate the exponential delay for a given iteration
// first iteration is 1
func getExpBackoff(initialDelay time.Duration, iteration int) time.Duration {
	if iteration <= 1 {
		return initialDelay
	}
	return time.Duration(math.Pow(2, float64(iteration-1))) * initialDelay
}
