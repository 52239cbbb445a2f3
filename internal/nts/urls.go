package nts

import (
	"fmt"
	"net/url"
	"strings"
)

// Default endpoints of the NTS website.
const (
	DefaultSiteBase = "https://www.nts.live"
	DefaultAPIBase  = "https://www.nts.live/api/v2"
)

// URLKind tells what an NTS URL points at.
type URLKind int

const (
	// KindShow is a show page listing many episodes.
	KindShow URLKind = iota

	// KindEpisode is a single episode page.
	KindEpisode
)

// Target is a classified NTS URL.
type Target struct {
	Kind  URLKind
	Show  string // show slug
	Alias string // episode alias, empty for shows
	URL   string // the URL as given
}

// ClassifyURL determines whether raw is a show or an episode URL.
//
// Accepted forms:
//   - https://www.nts.live/shows/{show}
//   - https://www.nts.live/shows/{show}/episodes/{alias}
//
// Any host ending in nts.live is accepted. Other URLs return ErrUnknownURL.
func ClassifyURL(raw string) (Target, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrUnknownURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Target{}, fmt.Errorf("%w: %s", ErrUnknownURL, raw)
	}
	if host := strings.ToLower(u.Hostname()); host != "nts.live" && !strings.HasSuffix(host, ".nts.live") {
		return Target{}, fmt.Errorf("%w: %s", ErrUnknownURL, raw)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "shows" && parts[1] != "":
		return Target{Kind: KindShow, Show: parts[1], URL: raw}, nil
	case len(parts) == 4 && parts[0] == "shows" && parts[2] == "episodes" && parts[1] != "" && parts[3] != "":
		return Target{Kind: KindEpisode, Show: parts[1], Alias: parts[3], URL: raw}, nil
	}
	return Target{}, fmt.Errorf("%w: %s", ErrUnknownURL, raw)
}

// EpisodeURL builds the canonical episode page URL.
func EpisodeURL(siteBase, show, alias string) string {
	return fmt.Sprintf("%s/shows/%s/episodes/%s", strings.TrimRight(siteBase, "/"), show, alias)
}
