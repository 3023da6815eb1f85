// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/telekom/tracemap/internal/helper"
)

// getJSON fetches url and decodes the JSON body into v.
// Rate limited and server side failures stay retryable, every other
// failure is permanent.
func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return helper.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req) //nolint:bodyclose // closed in defer
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("request failed with status %s", resp.Status)
	case resp.StatusCode == http.StatusNotFound:
		return helper.Permanent(fmt.Errorf("%w: status %s", ErrNotFound, resp.Status))
	default:
		return helper.Permanent(fmt.Errorf("request failed with status %s", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return helper.Permanent(fmt.Errorf("malformed response: %w", err))
	}
	return nil
}
