// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package catalog

import (
	"slices"
	"strings"
	"time"

	"github.com/tomtom215/smartdiscovery/internal/models"
)

// pagedResponse is the envelope of every list endpoint.
type pagedResponse struct {
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
	Results      []resultItem `json:"results"`
}

// resultItem is a movie or series in a list response. Movies use Title and
// ReleaseDate, series use Name and FirstAirDate.
type resultItem struct {
	ID               int      `json:"id"`
	Title            string   `json:"title,omitempty"`
	Name             string   `json:"name,omitempty"`
	OriginalLanguage string   `json:"original_language"`
	Overview         string   `json:"overview"`
	GenreIDs         []int    `json:"genre_ids"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Popularity       float64  `json:"popularity"`
	ReleaseDate      string   `json:"release_date,omitempty"`
	FirstAirDate     string   `json:"first_air_date,omitempty"`
	PosterPath       string   `json:"poster_path,omitempty"`
	OriginCountry    []string `json:"origin_country,omitempty"`
}

func (r *resultItem) toCandidate(mt models.MediaType) models.CandidateItem {
	title, date := r.Title, r.ReleaseDate
	if mt == models.MediaTypeShow {
		title, date = r.Name, r.FirstAirDate
	}
	if title == "" {
		title = r.Name + r.Title
	}
	item := models.CandidateItem{
		CatalogID:        r.ID,
		MediaType:        mt,
		Title:            title,
		Overview:         r.Overview,
		GenreIDs:         r.GenreIDs,
		VoteAverage:      r.VoteAverage,
		VoteCount:        r.VoteCount,
		Popularity:       r.Popularity,
		OriginalLanguage: r.OriginalLanguage,
		PosterPath:       r.PosterPath,
	}
	if len(r.OriginCountry) > 0 {
		item.Region = r.OriginCountry[0]
	}
	if t, ok := parseDate(date); ok {
		item.ReleaseDate = t
		item.Year = t.Year()
	}
	return item
}

// parseDate parses a TMDB date (YYYY-MM-DD). Empty or malformed dates are not ok.
func parseDate(s string) (time.Time, bool) {
	if len(s) < len("2006-01-02") {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Page is one page of candidates from a list endpoint.
type Page struct {
	Items      []models.CandidateItem
	Page       int
	TotalPages int
}

func (p *pagedResponse) toPage(mt models.MediaType) *Page {
	out := &Page{
		Items:      make([]models.CandidateItem, 0, len(p.Results)),
		Page:       p.Page,
		TotalPages: p.TotalPages,
	}
	for i := range p.Results {
		if p.Results[i].ID <= 0 {
			continue
		}
		out.Items = append(out.Items, p.Results[i].toCandidate(mt))
	}
	return out
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// keywordsResponse covers both shapes: movies list under "keywords",
// series under "results".
type keywordsResponse struct {
	Keywords []keyword `json:"keywords,omitempty"`
	Results  []keyword `json:"results,omitempty"`
}

func (k *keywordsResponse) names() []string {
	all := k.Keywords
	if len(all) == 0 {
		all = k.Results
	}
	out := make([]string, 0, len(all))
	for _, kw := range all {
		if kw.Name != "" {
			out = append(out, strings.ToLower(kw.Name))
		}
	}
	return out
}

type releaseDatesResponse struct {
	Results []struct {
		Country      string `json:"iso_3166_1"`
		ReleaseDates []struct {
			Certification string `json:"certification"`
		} `json:"release_dates"`
	} `json:"results"`
}

type contentRatingsResponse struct {
	Results []struct {
		Country string `json:"iso_3166_1"`
		Rating  string `json:"rating"`
	} `json:"results"`
}

// detailsResponse is /movie/{id} or /tv/{id} with release_dates or
// content_ratings and keywords appended.
type detailsResponse struct {
	ID               int     `json:"id"`
	Title            string  `json:"title,omitempty"`
	Name             string  `json:"name,omitempty"`
	Overview         string  `json:"overview"`
	OriginalLanguage string  `json:"original_language"`
	Genres           []Genre `json:"genres"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	FirstAirDate     string  `json:"first_air_date,omitempty"`
	Runtime          int     `json:"runtime,omitempty"`
	EpisodeRunTime   []int   `json:"episode_run_time,omitempty"`
	IMDbID           string  `json:"imdb_id,omitempty"`
	PosterPath       string  `json:"poster_path,omitempty"`

	ReleaseDates   *releaseDatesResponse   `json:"release_dates,omitempty"`
	ContentRatings *contentRatingsResponse `json:"content_ratings,omitempty"`
	Keywords       *keywordsResponse       `json:"keywords,omitempty"`
}

// Details holds per-title facts list endpoints do not return.
type Details struct {
	CatalogID     int
	MediaType     models.MediaType
	Title         string
	Year          int
	Genres        []Genre
	Runtime       int      // Minutes; episode runtime for series, 0 if unknown
	ContentRating string   // Certification in the requested region, "NR" if none
	Regions       []string // Countries with a release date or rating entry
	Keywords      []string
}

// GenreIDs returns the ids of the title's genres in catalog order.
func (d *Details) GenreIDs() []int {
	ids := make([]int, 0, len(d.Genres))
	for _, g := range d.Genres {
		ids = append(ids, g.ID)
	}
	return ids
}

// Apply copies the enrichment fields onto item.
func (d *Details) Apply(item *models.CandidateItem) {
	item.Runtime = d.Runtime
	item.ContentRating = d.ContentRating
	item.ReleaseRegions = d.Regions
	item.Keywords = d.Keywords
}

// notRated is the content rating of titles without a certification.
const notRated = "NR"

func (r *detailsResponse) toDetails(mt models.MediaType, region string) *Details {
	d := &Details{
		CatalogID:     r.ID,
		MediaType:     mt,
		Title:         r.Title,
		Genres:        r.Genres,
		Runtime:       r.Runtime,
		ContentRating: notRated,
	}
	date := r.ReleaseDate
	if mt == models.MediaTypeShow {
		d.Title, date = r.Name, r.FirstAirDate
		if len(r.EpisodeRunTime) > 0 {
			d.Runtime = r.EpisodeRunTime[0]
		}
	}
	if t, ok := parseDate(date); ok {
		d.Year = t.Year()
	}
	if r.Keywords != nil {
		d.Keywords = r.Keywords.names()
	}
	if rating := r.certification(region); rating != "" {
		d.ContentRating = rating
	}
	d.Regions = r.regions()
	return d
}

// regions lists the countries of the release date or rating entries,
// uppercased and without repeats.
func (r *detailsResponse) regions() []string {
	var out []string
	add := func(country string) {
		country = strings.ToUpper(country)
		if country != "" && !slices.Contains(out, country) {
			out = append(out, country)
		}
	}
	if r.ReleaseDates != nil {
		for _, c := range r.ReleaseDates.Results {
			add(c.Country)
		}
	}
	if r.ContentRatings != nil {
		for _, c := range r.ContentRatings.Results {
			add(c.Country)
		}
	}
	return out
}

// certification returns the first non-empty certification for region.
func (r *detailsResponse) certification(region string) string {
	if r.ReleaseDates != nil {
		for _, c := range r.ReleaseDates.Results {
			if !strings.EqualFold(c.Country, region) {
				continue
			}
			for _, rd := range c.ReleaseDates {
				if rd.Certification != "" {
					return rd.Certification
				}
			}
		}
	}
	if r.ContentRatings != nil {
		for _, c := range r.ContentRatings.Results {
			if strings.EqualFold(c.Country, region) && c.Rating != "" {
				return c.Rating
			}
		}
	}
	return ""
}

// findResponse is /find/{external_id}.
type findResponse struct {
	MovieResults []resultItem `json:"movie_results"`
	TVResults    []resultItem `json:"tv_results"`
}

// FindResult lists catalog titles carrying an external id.
type FindResult struct {
	Movies []models.CandidateItem
	Shows  []models.CandidateItem
}

// First returns the first match of mt.
func (f *FindResult) First(mt models.MediaType) (int, bool) {
	list := f.Movies
	if mt == models.MediaTypeShow {
		list = f.Shows
	}
	if len(list) == 0 {
		return 0, false
	}
	return list[0].CatalogID, true
}

type keywordSearchResponse struct {
	Results []keyword `json:"results"`
}
