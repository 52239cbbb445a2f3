// Package nts provides functionality to parse nts.live pages and the
// episode listing API.
//
// The package handles three main use cases:
//
//  1. Parsing episode pages into model.EpisodeMetadata
//  2. Extracting artists that are credited or mentioned in a title
//  3. Listing the published episodes of a show
//
// # Episode Page Parsing
//
//	doc, err := nts.ParseHTML(bytes.NewReader(page))
//	meta, err := nts.ParseEpisode(doc)
//	link, ok := nts.SecondaryLink(doc) // embedded player page
//
// Missing title or date markup, or an unparsable date, is a *ParseError.
// Missing genres, tracklist, station or background image are not.
//
// # Artist Parsing
//
//	artists, parsed := nts.ParseArtists("Show w/Jane and John", []string{"Host"})
//	// artists = ["Host"], parsed = ["Jane", "John"]
//
// # Episode Listing
//
//	urls, err := nts.NewLister(client).ListEpisodes(ctx, "show-slug")
//
// # Secondary Platform Artwork
//
// The embedded player page sometimes offers larger cover art than the
// episode page background. AlbumArtURL picks it from the srcset.
package nts
