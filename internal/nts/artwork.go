package nts

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const selAlbumArt = "div.album-art"

// AlbumArtURL returns the cover art offered by a secondary platform page.
//
// The album art image lists its sizes in a srcset attribute. The candidate
// before the last width descriptor is the largest one that is reliably
// served:
//
//	srcset="https://a/300.jpg 1x,https://a/600.jpg 2x"
//	// fields: ["https://a/300.jpg", "1x,https://a/600.jpg", "2x"]
//	// returns "https://a/600.jpg"
//
// Returns false when the page has no album art element or the srcset does
// not hold at least two fields.
func AlbumArtURL(doc *goquery.Document) (string, bool) {
	art := doc.Find(selAlbumArt).First()
	if art.Length() == 0 {
		return "", false
	}
	srcset, ok := art.Find("img").First().Attr("srcset")
	if !ok {
		return "", false
	}
	return pickSrcsetCandidate(srcset)
}

// pickSrcsetCandidate takes the second-to-last whitespace separated field of
// a srcset and returns the URL it holds.
func pickSrcsetCandidate(srcset string) (string, bool) {
	fields := strings.Fields(srcset)
	if len(fields) < 2 {
		return "", false
	}
	candidate := fields[len(fields)-2]
	if i := strings.LastIndex(candidate, ","); i >= 0 {
		candidate = candidate[i+1:]
	}
	candidate = strings.TrimSpace(candidate)
	return candidate, candidate != ""
}
