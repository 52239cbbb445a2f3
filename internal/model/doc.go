// Package model defines the core data structures used throughout
// the nts-downloader application.
//
// # EpisodeMetadata
//
// EpisodeMetadata is the canonical record of one episode, scraped from its
// page and later enriched with cover art:
//
//	ep := model.NewEpisodeMetadata("Floating Points w/Four Tet", date)
//	fmt.Println(ep.Name())         // Title tag: "... - 04.03.2021"
//	fmt.Println(ep.FileBaseName()) // File stem: "... - 2021-3-4"
//
// # Artists
//
// Credited artists and artists parsed from the title are merged with
// DedupeArtists, which compares names case-insensitively and keeps the
// first casing seen:
//
//	model.DedupeArtists([]string{"Four Tet"}, []string{"four tet", "New Name"})
//	// []string{"Four Tet", "New Name"}
package model
