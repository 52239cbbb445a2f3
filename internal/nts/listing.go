package nts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/handiism/nts-downloader/internal/nts/dto"
)

// Fetcher retrieves the body of a URL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Lister pages through the episode listing API of a show.
//
// Example usage:
//
//	lister := NewLister(httpClient)
//	urls, err := lister.ListEpisodes(ctx, "floating-points")
//	for _, u := range urls {
//	    fmt.Println(u) // https://www.nts.live/shows/floating-points/episodes/...
//	}
type Lister struct {
	fetcher  Fetcher
	apiBase  string
	siteBase string
}

// NewLister creates a Lister against the public NTS endpoints.
func NewLister(fetcher Fetcher) *Lister {
	return &Lister{
		fetcher:  fetcher,
		apiBase:  DefaultAPIBase,
		siteBase: DefaultSiteBase,
	}
}

// WithAPIBase returns a copy of the Lister that queries a different API root.
func (l *Lister) WithAPIBase(apiBase string) *Lister {
	cp := *l
	cp.apiBase = strings.TrimRight(apiBase, "/")
	return &cp
}

// WithSiteBase returns a copy of the Lister that builds episode URLs on a
// different site root.
func (l *Lister) WithSiteBase(siteBase string) *Lister {
	cp := *l
	cp.siteBase = strings.TrimRight(siteBase, "/")
	return &cp
}

// ListEpisodes returns the URLs of every published episode of a show, in
// the order the API lists them.
//
// The total count is read from the first page and the offset advances by
// each page's limit. Listing stops when the published episodes collected
// reach a positive total, or when a page comes back empty, since
// unpublished episodes count towards the total but are never collected.
//
// A response that is not valid JSON aborts the whole listing with a
// *DecodeError.
func (l *Lister) ListEpisodes(ctx context.Context, show string) ([]string, error) {
	var (
		offset int
		total  = -1
		out    = []string{}
	)

	for {
		pageURL := fmt.Sprintf("%s/shows/%s/episodes?offset=%d", l.apiBase, url.PathEscape(show), offset)
		body, err := l.fetcher.Get(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("list episodes of %s: %w", show, err)
		}

		var page dto.JSONEpisodePage
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, &DecodeError{URL: pageURL, Err: err}
		}

		if total < 0 {
			total = page.Metadata.ResultSet.Count
		}

		for _, ep := range page.Results {
			if ep.IsPublished() {
				out = append(out, EpisodeURL(l.siteBase, show, ep.EpisodeAlias))
			}
		}

		// A zero total is not trusted while pages still carry results.
		reachedTotal := total > 0 && len(out) >= total
		if reachedTotal || len(page.Results) == 0 || page.Metadata.ResultSet.Limit <= 0 {
			return out, nil
		}
		offset += page.Metadata.ResultSet.Limit
	}
}
