// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"regexp"
	"strings"

	"github.com/telekom/tracemap/internal/logger"
)

var dnsName = regexp.MustCompile(`^([a-zA-Z0-9_]([a-zA-Z0-9\-_]{0,61}[a-zA-Z0-9])?\.)*[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.?$`)

// Validate validates the startup config
func (c *Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	if len(c.Destinations) == 0 && !c.HasLoader() {
		log.ErrorContext(ctx, "At least one destination or a destinations file is required")
		err = errors.Join(err, ErrNoDestinations)
	}
	for _, d := range c.Destinations {
		if !isDestination(d) {
			log.ErrorContext(ctx, "The destination must be an ip address or a dns name", "destination", d)
			err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidDestination, d))
		}
	}

	if c.Origin != "" {
		if _, pErr := netip.ParseAddr(c.Origin); pErr != nil {
			log.ErrorContext(ctx, "The origin must be an ip address", "origin", c.Origin)
			err = errors.Join(err, fmt.Errorf("%w: %q", ErrInvalidOrigin, c.Origin))
		}
	}
	if c.MaxConcurrent < 1 {
		log.ErrorContext(ctx, "At least one destination must be probed at a time", "maxConcurrent", c.MaxConcurrent)
		err = errors.Join(err, ErrInvalidMaxConcurrent)
	}
	if c.Limit < 0 {
		log.ErrorContext(ctx, "The destination limit must not be negative", "limit", c.Limit)
		err = errors.Join(err, ErrInvalidLimit)
	}
	if c.LossThreshold < 0 || c.LossThreshold > 100 {
		log.ErrorContext(ctx, "The loss threshold must be a percentage", "lossThreshold", c.LossThreshold)
		err = errors.Join(err, ErrInvalidLossThreshold)
	}

	if vErr := c.Probe.Validate(); vErr != nil {
		log.ErrorContext(ctx, "The probe configuration is invalid", "error", vErr)
		err = errors.Join(err, vErr)
	}
	if vErr := c.Geo.Validate(); vErr != nil {
		log.ErrorContext(ctx, "The geolocation configuration is invalid", "error", vErr)
		err = errors.Join(err, vErr)
	}
	if vErr := c.Output.Validate(); vErr != nil {
		log.ErrorContext(ctx, "The output configuration is invalid", "error", vErr)
		err = errors.Join(err, vErr)
	}
	if c.DNS.Timeout < 0 {
		log.ErrorContext(ctx, "The dns timeout must not be negative", "timeout", c.DNS.Timeout)
		err = errors.Join(err, fmt.Errorf("invalid dns timeout %s", c.DNS.Timeout))
	}

	if c.HasTelemetry() {
		if vErr := c.Telemetry.Validate(ctx); vErr != nil {
			log.ErrorContext(ctx, "The telemetry configuration is invalid")
			err = errors.Join(err, vErr)
		}
	}

	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}

// Validate validates the probe configuration
func (c *ProbeConfig) Validate() error {
	var err error
	if !c.Method.IsValid() {
		err = fmt.Errorf("%w: %q", ErrInvalidProbeMethod, string(c.Method))
	}
	return errors.Join(err, c.Options.Validate())
}

// isDestination checks if the given string is an ip address or a valid dns name
func isDestination(s string) bool {
	if _, err := netip.ParseAddr(s); err == nil {
		return true
	}
	return s == "localhost" || (len(s) <= 253 && strings.Contains(s, ".") && dnsName.MatchString(s))
}
