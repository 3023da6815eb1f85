// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"github.com/telekom/tracemap/internal/helper"
)

const ipInfoURL = "https://ipinfo.io"

// IPInfo looks up locations at ipinfo.io.
type IPInfo struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewIPInfo creates an ipinfo.io [Lookuper]. The token may be empty for
// the anonymous tier.
func NewIPInfo(client *http.Client, token string) *IPInfo {
	return &IPInfo{client: client, baseURL: ipInfoURL, token: token}
}

type ipInfoResponse struct {
	IP      string `json:"ip"`
	Bogon   bool   `json:"bogon"`
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
	// Loc is "latitude,longitude".
	Loc string `json:"loc"`
	Org string `json:"org"`
}

// Lookup implements [Lookuper].
func (p *IPInfo) Lookup(ctx context.Context, addr netip.Addr) (Location, error) {
	u := fmt.Sprintf("%s/%s", p.baseURL, addr)
	if p.token != "" {
		u += "?" + url.Values{"token": {p.token}}.Encode()
	}

	var res ipInfoResponse
	if err := getJSON(ctx, p.client, u, &res); err != nil {
		return Location{}, err
	}
	if res.Bogon || res.Loc == "" {
		return Location{}, helper.Permanent(fmt.Errorf("%w: %s", ErrNotFound, addr))
	}

	lat, lon, err := parseLoc(res.Loc)
	if err != nil {
		return Location{}, helper.Permanent(err)
	}
	return Location{
		Country:   res.Country,
		Region:    res.Region,
		City:      res.City,
		Latitude:  lat,
		Longitude: lon,
		ASN:       res.Org,
	}, nil
}

func parseLoc(loc string) (lat, lon float64, err error) {
	latStr, lonStr, ok := strings.Cut(loc, ",")
	if !ok {
		return 0, 0, fmt.Errorf("malformed location %q", loc)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(latStr), 64); err != nil {
		return 0, 0, fmt.Errorf("malformed latitude %q: %w", latStr, err)
	}
	if lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64); err != nil {
		return 0, 0, fmt.Errorf("malformed longitude %q: %w", lonStr, err)
	}
	return lat, lon, nil
}
