// Package audio writes episode metadata into downloaded audio files and
// generates playlists for them.
//
// # Tagging
//
// Open sniffs a file's content and returns a Container for its native tag
// scheme: ID3v2.4 frames for MPEG audio, iTunes atoms for MPEG-4. Any
// other file is rejected with an *UnsupportedFormatError before a byte is
// written.
//
//	tagger := audio.NewTagger(audio.DefaultTagOptions())
//	err := tagger.TagFile(path, meta)
//
// Both schemes receive:
//   - Title (the episode name with its date)
//   - Album ("NTS") and the compilation flag
//   - Artist (all artists joined by "; ")
//   - Year
//   - Genre (first genre, left untouched when there is none)
//
// The comment (episode URL) and the cover art are switched per scheme in
// TagOptions.
//
// # Playlist Generation
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist(entries)
//	os.WriteFile("show.m3u", []byte(content), 0644)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
package audio
