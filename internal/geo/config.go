// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/netip"
	"slices"
	"time"

	"github.com/telekom/tracemap/internal/helper"
)

// Providers supported by [NewLookuper].
const (
	ProviderIPAPI  = "ipapi"
	ProviderIPInfo = "ipinfo"
	ProviderNone   = "none"
)

// DefaultRateLimit is the number of lookups per minute the free ip-api
// tier accepts.
const DefaultRateLimit = 45

// Config configures the geolocation provider and the [Resolver].
type Config struct {
	// Provider is one of ipapi, ipinfo or none.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`
	// Token authenticates against ipinfo.
	Token string `json:"-" yaml:"-" mapstructure:"token"`
	// RateLimit is the maximum number of lookups per minute. Zero disables the limit.
	RateLimit int                `json:"rateLimit" yaml:"rateLimit" mapstructure:"rateLimit"`
	Timeout   time.Duration      `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Retry     helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
}

// Validate checks the geolocation configuration.
func (c Config) Validate() error {
	var errs []error
	if !slices.Contains([]string{ProviderIPAPI, ProviderIPInfo, ProviderNone}, c.Provider) {
		errs = append(errs, fmt.Errorf("unknown geolocation provider %q", c.Provider))
	}
	if c.RateLimit < 0 {
		errs = append(errs, errors.New("geolocation rate limit must not be negative"))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("geolocation timeout must not be negative"))
	}
	if c.Retry.Count < 0 || c.Retry.Delay < 0 {
		errs = append(errs, errors.New("geolocation retry count and delay must not be negative"))
	}
	return errors.Join(errs...)
}

// NewLookuper creates the [Lookuper] of the configured provider.
func NewLookuper(cfg Config) (Lookuper, error) {
	client := &http.Client{Timeout: cfg.Timeout}
	switch cfg.Provider {
	case ProviderIPAPI:
		return NewIPAPI(client), nil
	case ProviderIPInfo:
		return NewIPInfo(client, cfg.Token), nil
	case ProviderNone:
		return disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown geolocation provider %q", cfg.Provider)
	}
}

// disabled never locates anything.
type disabled struct{}

func (disabled) Lookup(context.Context, netip.Addr) (Location, error) {
	return Location{}, helper.Permanent(ErrNotFound)
}
