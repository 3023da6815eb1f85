// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
)

// ErrNotFound is returned by a [Lookuper] that explicitly has no location
// for an address.
var ErrNotFound = errors.New("location not found")

//go:generate go tool moq -out lookuper_moq.go . Lookuper

// Lookuper asks an external service for the location of an address.
type Lookuper interface {
	// Lookup returns the location of addr or an error. An explicit
	// "no location" answer is reported as [ErrNotFound].
	Lookup(ctx context.Context, addr netip.Addr) (Location, error)
}

// Location is the answer of a [Lookuper].
type Location struct {
	Country   string
	Region    string
	City      string
	Latitude  float64
	Longitude float64
	// ASN is the autonomous system as reported by the provider,
	// e.g. "AS3320 Deutsche Telekom AG".
	ASN string
}

// Record is the cached geolocation of one address.
// Resolved is false when no location is known, in which case all
// location fields are empty.
type Record struct {
	Address   string  `json:"address" yaml:"address"`
	Country   string  `json:"country,omitempty" yaml:"country,omitempty"`
	Region    string  `json:"region,omitempty" yaml:"region,omitempty"`
	City      string  `json:"city,omitempty" yaml:"city,omitempty"`
	Latitude  float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	ASN       string  `json:"asn,omitempty" yaml:"asn,omitempty"`
	Resolved  bool    `json:"resolved" yaml:"resolved"`
}

func newRecord(address string, loc Location) Record {
	return Record{
		Address:   address,
		Country:   loc.Country,
		Region:    loc.Region,
		City:      loc.City,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		ASN:       loc.ASN,
		Resolved:  true,
	}
}

// Place returns a short human readable description like "Berlin, DE".
func (r Record) Place() string {
	if !r.Resolved {
		return ""
	}
	switch {
	case r.City != "" && r.Country != "":
		return fmt.Sprintf("%s, %s", r.City, r.Country)
	case r.City != "":
		return r.City
	default:
		return r.Country
	}
}

// Coordinates formats latitude and longitude with four decimals.
func (r Record) Coordinates() string {
	if !r.Resolved {
		return ""
	}
	return fmt.Sprintf("%.4f, %.4f", r.Latitude, r.Longitude)
}
