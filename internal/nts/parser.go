package nts

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/handiism/nts-downloader/internal/model"
)

// Selectors for the nts.live episode page.
const (
	selTitleBox   = "div.bio__title"
	selBackground = "section#bg[style]"
	selGenres     = ".episode-genres"
	selTracklist  = ".tracklist"
	selTrack      = "li.track"
	selTrackName  = ".track__title"
	selTrackBy    = ".track__artist"
	selBioArtists = ".bio-artists"
	selMixcloud   = ".episode__btn.mixcloud-btn"
)

// dateLayout is the page's DD.MM.YY date, day and month optionally unpadded.
const dateLayout = "2.1.06"

var backgroundImageRegex = regexp.MustCompile(`^background-image:url\((.*)\)`)

// ParseHTML parses an HTML page into a queryable document.
func ParseHTML(r io.Reader) (*goquery.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return goquery.NewDocumentFromNode(root), nil
}

// ParseEpisodePage parses raw episode page HTML into metadata.
func ParseEpisodePage(page []byte) (*model.EpisodeMetadata, error) {
	doc, err := ParseHTML(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	return ParseEpisode(doc)
}

// ParseEpisode extracts episode metadata from a parsed episode page.
//
// The page must carry a title box with a heading and a date span; without
// them the episode cannot be identified and a *ParseError is returned.
// Genres, tracklist, background image, station and artist list are
// optional and fall back to empty or default values.
//
// URL, AllArtists and Image are left for the caller to fill.
func ParseEpisode(doc *goquery.Document) (*model.EpisodeMetadata, error) {
	titleBox := doc.Find(selTitleBox).First()
	if titleBox.Length() == 0 {
		return nil, missing("title", selTitleBox)
	}

	titleHeading := titleBox.Find("div").First().Find("h1").First()
	if titleHeading.Length() == 0 {
		return nil, missing("title", selTitleBox+" div h1")
	}
	title := strings.TrimSpace(titleHeading.Text())

	subHeading := titleBox.Find("div").First().Find("div").First().Find("h2").First()

	dateSpan := subHeading.Find("span").First()
	if dateSpan.Length() == 0 {
		return nil, missing("date", selTitleBox+" div div h2 span")
	}
	date, err := parseDate(dateSpan.Text())
	if err != nil {
		return nil, &ParseError{Field: "date", Err: err}
	}

	meta := model.NewEpisodeMetadata(title, date)
	if station := ownText(subHeading); station != "" {
		meta.Station = station
	}
	meta.ImageURL = backgroundImageURL(doc)
	meta.Genres = parseGenres(doc)
	meta.Tracks = parseTracklist(doc)
	meta.Artists, meta.ParsedArtists = ParseArtists(title, structuredArtists(doc))

	return meta, nil
}

// SecondaryLink returns the secondary platform page of the episode, which is
// also the stream the media downloader is pointed at.
func SecondaryLink(doc *goquery.Document) (string, bool) {
	link, ok := doc.Find(selMixcloud).First().Attr("data-src")
	link = strings.TrimSpace(link)
	return link, ok && link != ""
}

// parseDate parses the page date. A leading weekday name followed by a
// comma is dropped.
//
// Example:
//
//	parseDate("Monday, 01.02.21") // 2021-02-01
//	parseDate("01.02.21")         // 2021-02-01
func parseDate(raw string) (time.Time, error) {
	s := raw
	if _, after, found := strings.Cut(s, ","); found {
		s = after
	}
	s = strings.TrimSpace(s)

	date, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	return date, nil
}

// ownText returns the first non-blank text node directly under the
// element. Text nested in child elements and later text nodes are ignored.
func ownText(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	for c := sel.Get(0).FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			continue
		}
		if text := strings.TrimSpace(c.Data); text != "" {
			return text
		}
	}
	return ""
}

func backgroundImageURL(doc *goquery.Document) string {
	style, ok := doc.Find(selBackground).First().Attr("style")
	if !ok {
		return ""
	}
	match := backgroundImageRegex.FindStringSubmatch(style)
	if match == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(match[1]), `'"`)
}

func parseGenres(doc *goquery.Document) []string {
	genres := []string{}
	doc.Find(selGenres).First().Find("a").Each(func(_ int, a *goquery.Selection) {
		genres = append(genres, strings.TrimSpace(a.Text()))
	})
	return genres
}

func parseTracklist(doc *goquery.Document) []model.Track {
	tracks := []model.Track{}
	list := doc.Find(selTracklist).First().Find("ul").First()
	list.Find(selTrack).Each(func(_ int, li *goquery.Selection) {
		tracks = append(tracks, model.Track{
			Artist: strings.TrimSpace(li.Find(selTrackBy).First().Text()),
			Name:   strings.TrimSpace(li.Find(selTrackName).First().Text()),
		})
	})
	return tracks
}

func structuredArtists(doc *goquery.Document) []string {
	var artists []string
	doc.Find(selBioArtists).First().Find("a").Each(func(_ int, a *goquery.Selection) {
		artists = append(artists, a.Text())
	})
	return artists
}
