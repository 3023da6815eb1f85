// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"

	"github.com/telekom/tracemap/internal/helper"
)

const (
	ipAPIURL    = "http://ip-api.com"
	ipAPIFields = "status,message,country,regionName,city,lat,lon,as"
)

// IPAPI looks up locations at ip-api.com.
type IPAPI struct {
	client  *http.Client
	baseURL string
}

// NewIPAPI creates an ip-api.com [Lookuper].
func NewIPAPI(client *http.Client) *IPAPI {
	return &IPAPI{client: client, baseURL: ipAPIURL}
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	AS         string  `json:"as"`
}

// Lookup implements [Lookuper].
func (p *IPAPI) Lookup(ctx context.Context, addr netip.Addr) (Location, error) {
	var res ipAPIResponse
	url := fmt.Sprintf("%s/json/%s?fields=%s", p.baseURL, addr, ipAPIFields)
	if err := getJSON(ctx, p.client, url, &res); err != nil {
		return Location{}, err
	}
	if res.Status != "success" {
		return Location{}, helper.Permanent(fmt.Errorf("%w: %s", ErrNotFound, res.Message))
	}
	return Location{
		Country:   res.Country,
		Region:    res.RegionName,
		City:      res.City,
		Latitude:  res.Lat,
		Longitude: res.Lon,
		ASN:       res.AS,
	}, nil
}
