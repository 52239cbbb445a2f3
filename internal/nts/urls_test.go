package nts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		raw   string
		kind  URLKind
		show  string
		alias string
	}{
		{"https://www.nts.live/shows/floating-points", KindShow, "floating-points", ""},
		{"https://www.nts.live/shows/floating-points/", KindShow, "floating-points", ""},
		{"https://nts.live/shows/floating-points/episodes/floating-points-1st-february-2021", KindEpisode, "floating-points", "floating-points-1st-february-2021"},
		{"http://www.nts.live/shows/a/episodes/b?utm=x", KindEpisode, "a", "b"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			target, err := ClassifyURL(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, target.Kind)
			assert.Equal(t, tt.show, target.Show)
			assert.Equal(t, tt.alias, target.Alias)
			assert.Equal(t, tt.raw, target.URL)
		})
	}
}

func TestClassifyURL_Rejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"floating-points",
		"ftp://www.nts.live/shows/a",
		"https://example.com/shows/a",
		"https://notnts.live/shows/a",
		"https://www.nts.live/",
		"https://www.nts.live/shows/a/episodes",
		"https://www.nts.live/explore",
	} {
		_, err := ClassifyURL(raw)
		assert.ErrorIs(t, err, ErrUnknownURL, raw)
	}
}

func TestEpisodeURL(t *testing.T) {
	assert.Equal(t,
		"https://www.nts.live/shows/s/episodes/e",
		EpisodeURL("https://www.nts.live/", "s", "e"),
	)
}
