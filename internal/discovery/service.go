// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package discovery

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/smartdiscovery/internal/alias"
	"github.com/tomtom215/smartdiscovery/internal/cache"
	"github.com/tomtom215/smartdiscovery/internal/logging"
	"github.com/tomtom215/smartdiscovery/internal/metrics"
	"github.com/tomtom215/smartdiscovery/internal/models"
	"github.com/tomtom215/smartdiscovery/internal/ownership"
	"github.com/tomtom215/smartdiscovery/internal/profile"
	"github.com/tomtom215/smartdiscovery/internal/recommend"
	"github.com/tomtom215/smartdiscovery/internal/session"
	"github.com/tomtom215/smartdiscovery/internal/validation"
)

// ProfileBuilder builds taste profiles. Implemented by *profile.Builder.
type ProfileBuilder interface {
	Build(ctx context.Context, req profile.Request) (*profile.Profile, error)
}

// Recommender runs generation cycles. Implemented by *recommend.Generator.
type Recommender interface {
	Generate(ctx context.Context, in recommend.Input) (*recommend.Result, error)
	Next(ctx context.Context, remainder []models.CandidateItem, filters *models.Filters, ex *recommend.Exclusions, pageSize int) (page, rest []models.CandidateItem, err error)
}

// Ownership answers which titles are already owned. Implemented by
// *ownership.Resolver.
type Ownership interface {
	OwnedSet(ctx context.Context, mt models.MediaType) (*models.OwnedSet, error)
	Invalidate()
}

// BlocklistStore persists the blocklist. Implemented by *database.DB.
type BlocklistStore interface {
	AddBlocklist(ctx context.Context, entry *models.BlocklistEntry) error
	RemoveBlocklist(ctx context.Context, key models.TitleKey) (bool, error)
	ListBlocklist(ctx context.Context, mt models.MediaType) ([]models.BlocklistEntry, error)
	BlocklistKeys(ctx context.Context, mt models.MediaType) (map[models.TitleKey]struct{}, error)
}

// AliasSyncer refreshes the alias index. Implemented by *alias.Index.
type AliasSyncer interface {
	ForceRefresh()
	Sync(ctx context.Context) (*alias.SyncResult, error)
}

// Deps are the collaborators of a Service. Aliases and Scanners may be
// empty, in which case the matching refresh operation reports
// models.ErrNotConfigured.
type Deps struct {
	Profiles    ProfileBuilder
	Recommender Recommender
	Ownership   Ownership
	Blocklist   BlocklistStore
	Aliases     AliasSyncer
	Scanners    []*ownership.Scanner
	Sessions    session.Store
}

// Options tune a Service.
type Options struct {
	GeneratePageSize int           // Items returned by Generate, default 40
	LoadMorePageSize int           // Items returned by LoadMore, default 30
	MaxEmptyCycles   int           // Consecutive empty cycles before exhaustion, default 2
	RememberFor      time.Duration // How long a user's last session and filters are kept, default 24h
	Now              func() time.Time
	NewShuffleSeed   func() int64
}

// GenerateRequest starts a browsing session.
type GenerateRequest struct {
	UserID       string         `json:"user_id" validate:"required,max=128"`
	Filters      models.Filters `json:"filters"`
	SeedOverride []models.Seed  `json:"seed_override,omitempty" validate:"max=50"`
}

// GenerateResult is the first page of a session.
type GenerateResult struct {
	Items      []models.CandidateItem `json:"items"`
	SessionKey string                 `json:"session_key"`
	SeedSource string                 `json:"seed_source"`
	Exhausted  bool                   `json:"exhausted"`
}

// LoadMoreRequest asks for the next page. UserID and Filters are optional.
// With a UserID an expired session is regenerated instead of failing,
// from Filters or else from the user's last Generate.
type LoadMoreRequest struct {
	SessionKey string          `json:"session_key" validate:"max=64"`
	UserID     string          `json:"user_id,omitempty" validate:"max=128"`
	Filters    *models.Filters `json:"filters,omitempty"`
}

// LoadMoreResult is one further page. SessionKey differs from the request
// when the session was regenerated.
type LoadMoreResult struct {
	Items       []models.CandidateItem `json:"items"`
	Exhausted   bool                   `json:"exhausted"`
	SessionKey  string                 `json:"session_key"`
	Regenerated bool                   `json:"regenerated,omitempty"`
}

// userSession is the live session of a user and the request that started
// it. It outlives the session so an expired session can be regenerated.
type userSession struct {
	Key          string
	Filters      models.Filters
	SeedOverride []models.Seed
}

// BlocklistRequest adds one title to the blocklist.
type BlocklistRequest struct {
	UserID    string           `json:"user_id"`
	CatalogID int              `json:"catalog_id"`
	MediaType models.MediaType `json:"media_type"`
	Title     string           `json:"title,omitempty"`
}

// titleRef is the validated form of a bare title key.
type titleRef struct {
	CatalogID int              `json:"catalog_id" validate:"required,gt=0"`
	MediaType models.MediaType `json:"media_type" validate:"required,mediatype"`
}

// Service implements the discovery operations.
//
// Thread Safety: Safe for concurrent use.
type Service struct {
	profiles    ProfileBuilder
	recommender Recommender
	owned       Ownership
	blocklist   BlocklistStore
	aliases     AliasSyncer
	scanners    []*ownership.Scanner
	sessions    session.Store

	locks   *session.Locker
	current *cache.TTLCache[userSession] // user id → live session

	opts   Options
	logger zerolog.Logger
}

// NewService creates a Service.
//
//nolint:gocritic // hugeParam: deps passed by value once at startup
func NewService(deps Deps, opts Options) *Service {
	if opts.GeneratePageSize <= 0 {
		opts.GeneratePageSize = 40
	}
	if opts.LoadMorePageSize <= 0 {
		opts.LoadMorePageSize = 30
	}
	if opts.MaxEmptyCycles <= 0 {
		opts.MaxEmptyCycles = 2
	}
	if opts.RememberFor <= 0 {
		opts.RememberFor = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewShuffleSeed == nil {
		opts.NewShuffleSeed = rand.Int63 //nolint:gosec // tie shuffling, not security
	}
	return &Service{
		profiles:    deps.Profiles,
		recommender: deps.Recommender,
		owned:       deps.Ownership,
		blocklist:   deps.Blocklist,
		aliases:     deps.Aliases,
		scanners:    deps.Scanners,
		sessions:    deps.Sessions,
		locks:       session.NewLocker(),
		current:     cache.NewTTLCache[userSession](opts.RememberFor, cache.WithName("user_sessions"), cache.WithClock(opts.Now)),
		opts:        opts,
		logger:      logging.WithComponent("discovery"),
	}
}

// Generate starts a new session for the user and returns its first page.
// The user's previous session is discarded, and a Generate still running
// for it fails with models.ErrStaleCycle.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}
	req.Filters.Normalize()

	now := s.opts.Now()
	st := &models.SessionState{
		Key:          session.NewKey(),
		UserID:       req.UserID,
		Filters:      req.Filters,
		Seeds:        req.SeedOverride,
		SeedOverride: len(req.SeedOverride) > 0,
		ShuffleSeed:  s.opts.NewShuffleSeed(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.sessions.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.replaceCurrent(ctx, st.UserID, userSession{Key: st.Key, Filters: st.Filters, SeedOverride: req.SeedOverride})

	page, source, err := s.cycle(ctx, st, s.opts.GeneratePageSize)
	if err != nil {
		if delErr := s.sessions.Delete(context.WithoutCancel(ctx), st.Key); delErr != nil {
			s.logger.Warn().Err(delErr).Str("session", st.Key).Msg("Failed to drop session after failed generation")
		}
		return nil, err
	}
	if err := s.commit(ctx, st, 0); err != nil {
		return nil, err
	}

	metrics.ItemsServed.WithLabelValues("generate").Add(float64(len(page)))
	s.logger.Info().
		Str("user_id", st.UserID).
		Str("session", st.Key).
		Str("seed_source", source).
		Int("items", len(page)).
		Int("remainder", len(st.Remainder)).
		Msg("Session generated")

	return &GenerateResult{
		Items:      nonNil(page),
		SessionKey: st.Key,
		SeedSource: source,
		Exhausted:  st.Exhausted,
	}, nil
}

// LoadMore returns the next page of a session.
func (s *Service) LoadMore(ctx context.Context, req LoadMoreRequest) (*LoadMoreResult, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr
	}

	unlock := s.locks.Lock(req.SessionKey)
	defer unlock()

	st, err := s.sessions.Get(ctx, req.SessionKey)
	switch {
	case errors.Is(err, models.ErrSessionExpired):
		metrics.SessionsExpired.Inc()
		return s.regenerate(ctx, &req)
	case err != nil:
		return nil, fmt.Errorf("load session: %w", err)
	}

	if req.UserID != "" && req.UserID != st.UserID {
		return s.regenerate(ctx, &req)
	}
	if req.Filters != nil && req.Filters.Fingerprint() != st.Filters.Fingerprint() {
		if err := s.sessions.Delete(ctx, st.Key); err != nil {
			return nil, fmt.Errorf("discard session: %w", err)
		}
		return s.regenerate(ctx, &req)
	}

	if st.Exhausted {
		return &LoadMoreResult{Items: []models.CandidateItem{}, Exhausted: true, SessionKey: st.Key}, nil
	}

	started := st.Cycle
	n := s.opts.LoadMorePageSize

	ex, err := s.exclusions(ctx, st)
	if err != nil {
		return nil, err
	}
	page, err := s.fill(ctx, st, ex, nil, n)
	if err != nil {
		return nil, err
	}

	// The remainder ran dry: run new cycles until the page fills, the
	// session is exhausted, or the per-call cycle budget is spent.
	for cycles := 0; len(page) < n && len(st.Remainder) == 0 && !st.Exhausted && cycles <= s.opts.MaxEmptyCycles; cycles++ {
		st.Cycle++
		more, _, err := s.cycle(ctx, st, n-len(page))
		if err != nil {
			if len(page) == 0 || ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn().Err(err).Str("session", st.Key).Int64("cycle", st.Cycle).Msg("New cycle failed, serving partial page")
			break
		}
		page = append(page, more...)
	}

	st.UpdatedAt = s.opts.Now()
	if err := s.commit(ctx, st, started); err != nil {
		return nil, err
	}

	metrics.ItemsServed.WithLabelValues("load_more").Add(float64(len(page)))
	s.logger.Debug().
		Str("session", st.Key).
		Int64("cycle", st.Cycle).
		Int("items", len(page)).
		Int("remainder", len(st.Remainder)).
		Bool("exhausted", st.Exhausted).
		Msg("Page served")

	return &LoadMoreResult{Items: nonNil(page), Exhausted: st.Exhausted, SessionKey: st.Key}, nil
}

// regenerate replaces a session that can no longer be continued. Filters
// left out of req come from the user's last Generate, with its seed
// override.
func (s *Service) regenerate(ctx context.Context, req *LoadMoreRequest) (*LoadMoreResult, error) {
	if req.UserID == "" {
		return nil, models.ErrSessionExpired
	}
	gr := GenerateRequest{UserID: req.UserID}
	switch last, ok := s.current.Get(req.UserID); {
	case req.Filters != nil:
		gr.Filters = *req.Filters
	case ok:
		gr.Filters = last.Filters
		gr.SeedOverride = last.SeedOverride
	default:
		return nil, models.ErrSessionExpired
	}
	gen, err := s.Generate(ctx, gr)
	if err != nil {
		return nil, err
	}
	return &LoadMoreResult{
		Items:       gen.Items,
		Exhausted:   gen.Exhausted,
		SessionKey:  gen.SessionKey,
		Regenerated: true,
	}, nil
}

// cycle runs one generation cycle for st and returns the newly served
// items. It updates st in place; the caller commits.
func (s *Service) cycle(ctx context.Context, st *models.SessionState, n int) ([]models.CandidateItem, string, error) {
	var override []models.Seed
	if st.SeedOverride {
		override = st.Seeds
	}
	prof, err := s.profiles.Build(ctx, profile.Request{
		UserID:       st.UserID,
		MediaType:    st.Filters.MediaType,
		SeedOverride: override,
		RandSeed:     st.ShuffleSeed + st.Cycle,
	})
	if err != nil {
		return nil, "", fmt.Errorf("build profile: %w", err)
	}
	st.Seeds = prof.Seeds

	ex, err := s.exclusions(ctx, st)
	if err != nil {
		return nil, "", err
	}
	res, err := s.recommender.Generate(ctx, recommend.Input{
		Seeds:       prof.Seeds,
		Filters:     st.Filters,
		Exclude:     *ex,
		ShuffleSeed: st.ShuffleSeed,
		Cycle:       st.Cycle,
		PageSize:    n,
	})
	if err != nil {
		return nil, "", err
	}

	page := st.MarkServed(res.Items)
	st.Remainder = res.Remainder
	if page, err = s.fill(ctx, st, ex, page, n); err != nil {
		return nil, "", err
	}
	if len(page) == 0 && len(st.Remainder) == 0 {
		st.EmptyCycles++
		if st.EmptyCycles >= s.opts.MaxEmptyCycles {
			st.Exhausted = true
		}
	} else {
		st.EmptyCycles = 0
	}
	return page, prof.Source, nil
}

// fill takes items from st's remainder until page holds n or the
// remainder is empty. Each Next call scans only a window of the
// remainder, so one call can come back short while items remain.
func (s *Service) fill(ctx context.Context, st *models.SessionState, ex *recommend.Exclusions, page []models.CandidateItem, n int) ([]models.CandidateItem, error) {
	for len(page) < n && len(st.Remainder) > 0 {
		more, rest, err := s.recommender.Next(ctx, st.Remainder, &st.Filters, ex, n-len(page))
		if err != nil {
			if len(page) == 0 || ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn().Err(err).Str("session", st.Key).Msg("Remainder scan failed, serving partial page")
			return page, nil
		}
		if len(rest) >= len(st.Remainder) {
			break
		}
		st.Remainder = rest
		page = append(page, st.MarkServed(more)...)
	}
	return page, nil
}

// exclusions gathers the titles st must never be served.
func (s *Service) exclusions(ctx context.Context, st *models.SessionState) (*recommend.Exclusions, error) {
	mt := st.Filters.MediaType
	owned, err := s.owned.OwnedSet(ctx, mt)
	if err != nil {
		return nil, fmt.Errorf("load owned titles: %w", err)
	}
	blocked, err := s.blocklist.BlocklistKeys(ctx, mt)
	if err != nil {
		return nil, fmt.Errorf("load blocklist: %w", err)
	}
	return &recommend.Exclusions{Owned: owned, Blocked: blocked, Served: st.ServedSet()}, nil
}

// commit stores st if it is still at cycle.
func (s *Service) commit(ctx context.Context, st *models.SessionState, cycle int64) error {
	err := s.sessions.Commit(ctx, st, cycle)
	if errors.Is(err, models.ErrStaleCycle) {
		metrics.StaleCyclesDropped.Inc()
		s.logger.Info().Str("session", st.Key).Int64("cycle", cycle).Msg("Dropped result of superseded cycle")
		return err
	}
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// replaceCurrent records us as the user's live session and discards the
// previous one.
func (s *Service) replaceCurrent(ctx context.Context, userID string, us userSession) {
	unlock := s.locks.Lock("user:" + userID)
	defer unlock()

	if prev, ok := s.current.Get(userID); ok && prev.Key != us.Key {
		if err := s.sessions.Delete(ctx, prev.Key); err != nil {
			s.logger.Warn().Err(err).Str("session", prev.Key).Msg("Failed to discard previous session")
		}
	}
	s.current.Set(userID, us)
}

// Cleanup drops users whose last session is past the remembered window
// and returns how many were dropped.
func (s *Service) Cleanup() int {
	return s.current.Cleanup()
}

// Blocklist permanently excludes a title.
func (s *Service) Blocklist(ctx context.Context, req BlocklistRequest) (*models.BlocklistEntry, error) {
	entry := &models.BlocklistEntry{
		CatalogID: req.CatalogID,
		MediaType: req.MediaType,
		Title:     req.Title,
		AddedBy:   req.UserID,
		AddedAt:   s.opts.Now().UTC(),
	}
	if verr := validation.ValidateStruct(entry); verr != nil {
		return nil, verr
	}
	if err := s.blocklist.AddBlocklist(ctx, entry); err != nil {
		return nil, fmt.Errorf("add to blocklist: %w", err)
	}
	s.logger.Info().Str("title", entry.Key().String()).Str("user_id", req.UserID).Msg("Title blocklisted")
	return entry, nil
}

// Unblocklist removes a title from the blocklist. It reports whether the
// title was listed.
func (s *Service) Unblocklist(ctx context.Context, catalogID int, mt models.MediaType) (bool, error) {
	ref := titleRef{CatalogID: catalogID, MediaType: mt}
	if verr := validation.ValidateStruct(&ref); verr != nil {
		return false, verr
	}
	removed, err := s.blocklist.RemoveBlocklist(ctx, models.TitleKey{CatalogID: catalogID, MediaType: mt})
	if err != nil {
		return false, fmt.Errorf("remove from blocklist: %w", err)
	}
	return removed, nil
}

// ListBlocklist returns the blocklist, limited to mt unless mt is empty.
func (s *Service) ListBlocklist(ctx context.Context, mt models.MediaType) ([]models.BlocklistEntry, error) {
	entries, err := s.blocklist.ListBlocklist(ctx, mt)
	if err != nil {
		return nil, fmt.Errorf("list blocklist: %w", err)
	}
	if entries == nil {
		entries = []models.BlocklistEntry{}
	}
	return entries, nil
}

// ForceRefreshOwnership rescans every adjacent catalog now. Errors of
// individual scans are joined; a held lease is reported as
// models.ErrScanInProgress.
func (s *Service) ForceRefreshOwnership(ctx context.Context) ([]*ownership.ScanResult, error) {
	if len(s.scanners) == 0 {
		return nil, models.ErrNotConfigured
	}
	results, err := ownership.ScanAll(ctx, s.scanners)
	s.owned.Invalidate()
	if results == nil {
		results = []*ownership.ScanResult{}
	}
	return results, err
}

// RefreshAliases re-resolves every library item regardless of age.
func (s *Service) RefreshAliases(ctx context.Context) (*alias.SyncResult, error) {
	if s.aliases == nil {
		return nil, models.ErrNotConfigured
	}
	s.aliases.ForceRefresh()
	res, err := s.aliases.Sync(ctx)
	if err != nil {
		return nil, err
	}
	s.owned.Invalidate()
	return res, nil
}

func nonNil(items []models.CandidateItem) []models.CandidateItem {
	if items == nil {
		return []models.CandidateItem{}
	}
	return items
}
