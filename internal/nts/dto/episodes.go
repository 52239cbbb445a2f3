package dto

// StatusPublished marks an episode that is live on the website.
const StatusPublished = "published"

// JSONEpisodePage is one page of the show episode listing API.
//
//	GET /api/v2/shows/{show}/episodes?offset={offset}
type JSONEpisodePage struct {
	Metadata JSONPageMetadata `json:"metadata"`
	Results  []JSONEpisode    `json:"results"`
}

// JSONPageMetadata wraps the result set counters.
type JSONPageMetadata struct {
	ResultSet JSONResultSet `json:"resultset"`
}

// JSONResultSet holds pagination counters.
type JSONResultSet struct {
	// Count is the total number of episodes of the show.
	Count int `json:"count"`

	// Limit is the page size.
	Limit int `json:"limit"`

	// Offset is the offset the page starts at.
	Offset int `json:"offset"`
}

// JSONEpisode is a listed episode.
type JSONEpisode struct {
	Status       string `json:"status"`
	EpisodeAlias string `json:"episode_alias"`
	Name         string `json:"name"`
	Broadcast    string `json:"broadcast"`
}

// IsPublished reports whether the episode can be downloaded.
func (e JSONEpisode) IsPublished() bool {
	return e.Status == StatusPublished
}
