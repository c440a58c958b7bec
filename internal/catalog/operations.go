// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

// ExternalSource names an id namespace accepted by FindByExternalID.
type ExternalSource string

const (
	SourceIMDb ExternalSource = "imdb_id"
	SourceTVDB ExternalSource = "tvdb_id"
)

// DiscoverQuery is a /discover request. Zero fields are omitted.
type DiscoverQuery struct {
	Page             int
	SortBy           string // Default popularity.desc
	Genres           []int  // Any of
	Keywords         []int  // Any of
	OriginalLanguage string
	ReleasedAfter    time.Time // Inclusive, date only
	Region           string    // Release region for movies, origin country for series
	MinPopularity    float64
	MinVoteCount     int
}

func (q *DiscoverQuery) values(mt models.MediaType) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(max(q.Page, 1)))
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	v.Set("sort_by", sortBy)
	if len(q.Genres) > 0 {
		v.Set("with_genres", joinInts(q.Genres, "|"))
	}
	if len(q.Keywords) > 0 {
		v.Set("with_keywords", joinInts(q.Keywords, "|"))
	}
	if q.OriginalLanguage != "" {
		v.Set("with_original_language", q.OriginalLanguage)
	}
	if q.MinPopularity > 0 {
		v.Set("popularity.gte", strconv.FormatFloat(q.MinPopularity, 'f', -1, 64))
	}
	if q.MinVoteCount > 0 {
		v.Set("vote_count.gte", strconv.Itoa(q.MinVoteCount))
	}

	if mt == models.MediaTypeShow {
		if !q.ReleasedAfter.IsZero() {
			v.Set("first_air_date.gte", q.ReleasedAfter.Format("2006-01-02"))
			v.Set("include_null_first_air_dates", "false")
		}
		if q.Region != "" {
			v.Set("with_origin_country", q.Region)
		}
		return v
	}

	if !q.ReleasedAfter.IsZero() {
		v.Set("primary_release_date.gte", q.ReleasedAfter.Format("2006-01-02"))
		// Theatrical and limited theatrical releases only
		v.Set("with_release_type", "3|2")
	}
	if q.Region != "" {
		v.Set("region", q.Region)
	}
	return v
}

func joinInts(ids []int, sep string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, sep)
}

// Recommendations returns one page of catalog recommendations for a title.
//
// Endpoint: GET /{movie|tv}/{id}/recommendations
func (c *Client) Recommendations(ctx context.Context, mt models.MediaType, id, page int) (*Page, error) {
	return c.list(ctx, mt, "/{type}/{id}/recommendations", fmt.Sprintf("/%s/%d/recommendations", mt.CatalogPath(), id), page)
}

// Similar returns one page of titles similar to a title.
//
// Endpoint: GET /{movie|tv}/{id}/similar
func (c *Client) Similar(ctx context.Context, mt models.MediaType, id, page int) (*Page, error) {
	return c.list(ctx, mt, "/{type}/{id}/similar", fmt.Sprintf("/%s/%d/similar", mt.CatalogPath(), id), page)
}

func (c *Client) list(ctx context.Context, mt models.MediaType, endpoint, path string, page int) (*Page, error) {
	query := url.Values{"page": {strconv.Itoa(max(page, 1))}}
	var resp pagedResponse
	if err := c.get(ctx, endpoint, path, query, &resp); err != nil {
		return nil, err
	}
	return resp.toPage(mt), nil
}

// Discover runs a discover query.
//
// Endpoint: GET /discover/{movie|tv}
func (c *Client) Discover(ctx context.Context, mt models.MediaType, q DiscoverQuery) (*Page, error) {
	var resp pagedResponse
	if err := c.get(ctx, "/discover/{type}", "/discover/"+mt.CatalogPath(), q.values(mt), &resp); err != nil {
		return nil, err
	}
	return resp.toPage(mt), nil
}

// Search looks a title up by name, optionally narrowed to a year.
//
// Endpoint: GET /search/{movie|tv}
func (c *Client) Search(ctx context.Context, mt models.MediaType, title string, year int) ([]models.CandidateItem, error) {
	query := url.Values{"query": {title}, "include_adult": {"false"}}
	if year > 0 {
		if mt == models.MediaTypeShow {
			query.Set("first_air_date_year", strconv.Itoa(year))
		} else {
			query.Set("year", strconv.Itoa(year))
		}
	}
	var resp pagedResponse
	if err := c.get(ctx, "/search/{type}", "/search/"+mt.CatalogPath(), query, &resp); err != nil {
		return nil, err
	}
	return resp.toPage(mt).Items, nil
}

// FindByExternalID returns catalog titles carrying an IMDb or TVDB id.
//
// Endpoint: GET /find/{id}?external_source=imdb_id|tvdb_id
func (c *Client) FindByExternalID(ctx context.Context, source ExternalSource, id string) (*FindResult, error) {
	query := url.Values{"external_source": {string(source)}}
	var resp findResponse
	if err := c.get(ctx, "/find/{id}", "/find/"+url.PathEscape(id), query, &resp); err != nil {
		return nil, err
	}

	out := &FindResult{}
	for i := range resp.MovieResults {
		out.Movies = append(out.Movies, resp.MovieResults[i].toCandidate(models.MediaTypeMovie))
	}
	for i := range resp.TVResults {
		out.Shows = append(out.Shows, resp.TVResults[i].toCandidate(models.MediaTypeShow))
	}
	return out, nil
}

// SearchKeyword returns the id of the keyword best matching query. An exact
// name match wins over the first result. ok is false when nothing matches.
//
// Endpoint: GET /search/keyword
func (c *Client) SearchKeyword(ctx context.Context, query string) (id int, ok bool, err error) {
	var resp keywordSearchResponse
	if err := c.get(ctx, "/search/keyword", "/search/keyword", url.Values{"query": {query}}, &resp); err != nil {
		return 0, false, err
	}
	for _, kw := range resp.Results {
		if strings.EqualFold(kw.Name, query) {
			return kw.ID, true, nil
		}
	}
	if len(resp.Results) == 0 {
		return 0, false, nil
	}
	return resp.Results[0].ID, true, nil
}

// Details returns runtime, content rating, genres and keywords of a title.
// region selects the certification; empty means US.
//
// Endpoint: GET /{movie|tv}/{id}?append_to_response=release_dates|content_ratings,keywords
func (c *Client) Details(ctx context.Context, mt models.MediaType, id int, region string) (*Details, error) {
	if region == "" {
		region = "US"
	}
	ratings := "release_dates"
	if mt == models.MediaTypeShow {
		ratings = "content_ratings"
	}
	query := url.Values{"append_to_response": {ratings + ",keywords"}}

	var resp detailsResponse
	if err := c.get(ctx, "/{type}/{id}", fmt.Sprintf("/%s/%d", mt.CatalogPath(), id), query, &resp); err != nil {
		return nil, err
	}
	return resp.toDetails(mt, region), nil
}

// FindTVDB returns the catalog id of the series with a TVDB id.
func (c *Client) FindTVDB(ctx context.Context, tvdbID string) (int, bool, error) {
	res, err := c.FindByExternalID(ctx, SourceTVDB, tvdbID)
	if err != nil {
		return 0, false, err
	}
	id, ok := res.First(models.MediaTypeShow)
	return id, ok, nil
}
