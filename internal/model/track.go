package model

import "fmt"

// Track is a single entry of an episode tracklist.
type Track struct {
	// Artist is the credited artist of the track.
	Artist string `json:"artist"`

	// Name is the track title.
	Name string `json:"name"`
}

// String returns the track as "Artist - Name".
func (t Track) String() string {
	return fmt.Sprintf("%s - %s", t.Artist, t.Name)
}
