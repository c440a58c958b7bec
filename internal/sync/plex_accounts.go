// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package sync

import (
	"context"
	"strconv"
)

// PlexAccountsResponse represents the response from GET /accounts
type PlexAccountsResponse struct {
	MediaContainer struct {
		Size    int           `json:"size"`
		Account []PlexAccount `json:"Account,omitempty"`
	} `json:"MediaContainer"`
}

// PlexAccount is a local server account. History rows only carry the id.
type PlexAccount struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GetAccountNames returns account id to name for every server account.
//
// Endpoint: GET /accounts
func (c *PlexClient) GetAccountNames(ctx context.Context) (map[string]string, error) {
	var resp PlexAccountsResponse
	if err := c.doJSONRequest(ctx, "/accounts", &resp); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(resp.MediaContainer.Account))
	for _, a := range resp.MediaContainer.Account {
		names[strconv.Itoa(a.ID)] = a.Name
	}
	return names, nil
}
