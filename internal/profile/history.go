// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package profile

import (
	"context"
	"strconv"
	"strings"

	"github.com/tomtom215/smartdiscovery/internal/models"
	intsync "github.com/tomtom215/smartdiscovery/internal/sync"
)

// watchHistory returns the request's plays of req.MediaType, newest first,
// without ignored users and sections. The raw fetch goes through the
// History Cache so concurrent builds for one user share a single fetch.
func (b *Builder) watchHistory(ctx context.Context, req Request) ([]models.WatchHistoryEntry, error) {
	key := req.UserID + ":" + strconv.Itoa(b.opts.HistoryLimit)
	all, err := b.plays.GetOrLoad(ctx, key, func(ctx context.Context) ([]models.WatchHistoryEntry, error) {
		q := intsync.HistoryQuery{Limit: b.opts.HistoryLimit, PageSize: b.opts.HistoryPageSize}
		if b.opts.PerUserHistory {
			q.AccountID = req.UserID
		}
		rows, err := b.history.GetHistory(ctx, q)
		if err != nil {
			return nil, err
		}
		return intsync.HistoryEntries(rows), nil
	})
	if err != nil {
		return nil, err
	}

	ignored := b.ignoredUsers(ctx, req.IgnoredUsers)
	out := make([]models.WatchHistoryEntry, 0, len(all))
	for i := range all {
		e := &all[i]
		if e.MediaType != req.MediaType {
			continue
		}
		if _, skip := b.sections[e.SectionID]; skip {
			continue
		}
		if _, skip := ignored[e.UserID]; skip {
			continue
		}
		out = append(out, *e)
	}
	if len(out) == 0 {
		return nil, models.ErrEmptyHistory
	}
	return out, nil
}

// ignoredUsers resolves the configured and per-request ignore lists to
// account ids. Entries match an account id or, case-insensitively, an
// account name. If names cannot be read, only id matches apply.
func (b *Builder) ignoredUsers(ctx context.Context, extra []string) map[string]struct{} {
	list := make([]string, 0, len(b.opts.IgnoredUsers)+len(extra))
	list = append(list, b.opts.IgnoredUsers...)
	list = append(list, extra...)
	if len(list) == 0 {
		return nil
	}

	ids := make(map[string]struct{}, len(list))
	names := make(map[string]struct{})
	for _, u := range list {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		ids[u] = struct{}{}
		names[strings.ToLower(u)] = struct{}{}
	}

	accounts, err := b.accounts.GetOrLoad(ctx, "accounts", b.history.GetAccountNames)
	if err != nil {
		b.logger.Debug().Err(err).Msg("Account names unavailable, ignoring users by id only")
		return ids
	}
	for id, name := range accounts {
		if _, ok := names[strings.ToLower(name)]; ok {
			ids[id] = struct{}{}
		}
	}
	return ids
}
