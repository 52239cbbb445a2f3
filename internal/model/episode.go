package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Album is the fixed album name every episode is filed under.
const Album = "NTS"

// DefaultStation is used when an episode page does not name its station.
const DefaultStation = "London"

var unsafeTitleChars = regexp.MustCompile(`/|:`)

// EpisodeMetadata represents one NTS episode with everything needed to name
// and tag its audio file.
//
// EpisodeMetadata is built by the page parser from a snapshot of the episode
// page. Image is the only field filled in afterwards, once the cover art has
// been resolved from either the secondary platform page or the episode page.
//
// Example:
//
//	date := time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)
//	ep := NewEpisodeMetadata("Test", date)
//	// ep.Name() = "Test - 04.03.2021"
//	// ep.FileBaseName() = "Test - 2021-3-4"
type EpisodeMetadata struct {
	// Title is the trimmed episode title as shown on the page.
	Title string `json:"title"`

	// SafeTitle is Title with '/' and ':' replaced by '-'.
	SafeTitle string `json:"safe_title"`

	// Date is the broadcast date.
	Date time.Time `json:"date"`

	// Station is the broadcasting station, DefaultStation if absent.
	Station string `json:"station"`

	// Genres in document order. Never nil.
	Genres []string `json:"genres"`

	// Tracks is the episode tracklist. Never nil.
	Tracks []Track `json:"tracks"`

	// Artists are the credited artists from the structured artist list.
	Artists []string `json:"artists"`

	// ParsedArtists are artists mentioned in the free-text title.
	ParsedArtists []string `json:"parsed_artists"`

	// AllArtists is the case-insensitive union of Artists then ParsedArtists.
	AllArtists []string `json:"all_artists"`

	// ImageURL is the background image of the episode page, empty if none.
	ImageURL string `json:"image_url,omitempty"`

	// URL is the episode page the metadata was scraped from.
	URL string `json:"url"`

	// Compilation marks the episode as part of a compilation. Always true.
	Compilation bool `json:"compilation"`

	// Image is the resolved cover art, nil when none could be fetched.
	Image *Image `json:"-"`
}

// Image is fetched cover art together with the content type the server declared.
type Image struct {
	Data        []byte
	ContentType string
}

// NewEpisodeMetadata creates metadata with the derived fields populated and
// all sequences initialized to empty.
func NewEpisodeMetadata(title string, date time.Time) *EpisodeMetadata {
	return &EpisodeMetadata{
		Title:         title,
		SafeTitle:     SafeTitle(title),
		Date:          date,
		Station:       DefaultStation,
		Genres:        []string{},
		Tracks:        []Track{},
		Artists:       []string{},
		ParsedArtists: []string{},
		AllArtists:    []string{},
		Compilation:   true,
	}
}

// AlbumName returns the album tag value.
func (e *EpisodeMetadata) AlbumName() string {
	return Album
}

// Name returns the display name used as the title tag.
func (e *EpisodeMetadata) Name() string {
	return fmt.Sprintf("%s - %02d.%02d.%d", e.Title, e.Date.Day(), int(e.Date.Month()), e.Date.Year())
}

// FileBaseName returns the file stem the downloaded audio is saved under.
// Month and day are not zero-padded.
func (e *EpisodeMetadata) FileBaseName() string {
	return fmt.Sprintf("%s - %d-%d-%d", e.SafeTitle, e.Date.Year(), int(e.Date.Month()), e.Date.Day())
}

// HasImage returns true if cover art has been resolved.
func (e *EpisodeMetadata) HasImage() bool {
	return e.Image != nil && len(e.Image.Data) > 0
}

// MergeArtists sets AllArtists to the deduplicated union of Artists and
// ParsedArtists.
func (e *EpisodeMetadata) MergeArtists() {
	e.AllArtists = DedupeArtists(e.Artists, e.ParsedArtists)
}

// SafeTitle replaces path-unsafe characters in a title with '-'.
//
// Example:
//
//	SafeTitle("NTS: Show/Two") // Returns "NTS- Show-Two"
func SafeTitle(title string) string {
	return unsafeTitleChars.ReplaceAllString(title, "-")
}

// DedupeArtists concatenates the given lists and removes entries that are
// equal ignoring case. The first occurrence wins and keeps its casing.
func DedupeArtists(lists ...[]string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, list := range lists {
		for _, name := range list {
			key := strings.ToLower(name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}
