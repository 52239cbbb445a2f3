package nts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTitleArtists(t *testing.T) {
	tests := []struct {
		title string
		want  []string
	}{
		{"Soup Kitchen w/Name1 and Name2", []string{"Name1", "Name2"}},
		{"w/Name1 and Name2", []string{"Name1", "Name2"}},
		{"Late Junction W/ Name1 AND Name2", []string{"Name1", "Name2"}},
		{"Breakfast with Jane, John & Joan", []string{"Jane", "John", "Joan"}},
		{"Show w/ Guest - Part Two", []string{"Guest"}},
		{"Show with Someone Special", []string{"Someone Special"}},
		{"No marker here", []string{}},
		{"", []string{}},
		{"Show w/Sandy and Andrew", []string{"Sandy", "Andrew"}},
		{"Show w/A, with B, C", []string{"A", "B", "with B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTitleArtists(tt.title))
		})
	}
}

func TestParseTitleArtists_NoMarkerIsEmpty(t *testing.T) {
	titles := []string{
		"Floating Points",
		"The Early Show - Guest Mix",
		"Anderson, Andrews & Andy",
	}

	for _, title := range titles {
		got := ParseTitleArtists(title)
		assert.NotNil(t, got, title)
		assert.Empty(t, got, title)
	}
}

func TestParseArtists(t *testing.T) {
	artists, parsed := ParseArtists("Show w/Guest and Friend", []string{"  Host ", "Co-Host"})

	assert.Equal(t, []string{"Host", "Co-Host"}, artists)
	assert.Equal(t, []string{"Guest", "Friend"}, parsed)
}

func TestParseArtists_NoStructuredList(t *testing.T) {
	artists, parsed := ParseArtists("Solo Show", nil)

	assert.NotNil(t, artists)
	assert.Empty(t, artists)
	assert.Empty(t, parsed)
}

func TestTerminatorAfter(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		from   int
		want   int
		wantOK bool
	}{
		{"comma", "x,y", 0, 1, true},
		{"ampersand", "ab&c", 0, 2, true},
		{"dash separator", "ab - c", 0, 2, true},
		{"word and", "ab and c", 0, 3, true},
		{"and inside word", "sandy", 0, 0, false},
		{"needs one char", ",x", 0, 0, false},
		{"stops at newline", "ab\n,c", 0, 0, false},
		{"at end", "ab", 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := terminatorAfter(tt.s, tt.from)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
