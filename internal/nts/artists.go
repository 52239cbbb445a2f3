package nts

import (
	"regexp"
	"strings"
)

var (
	// markerRegex finds the start of an informal artist mention.
	markerRegex = regexp.MustCompile(`(?i)w/|with`)

	// unboundedRegex captures everything after the first marker.
	unboundedRegex = regexp.MustCompile(`(?i)(?:w/|with)(.+)`)

	// remainderSplitRegex separates further names after the first mention.
	remainderSplitRegex = regexp.MustCompile(`(?i),|\band\b|&`)

	// dashLeadRegex detects a remainder that is a subtitle, not more names.
	dashLeadRegex = regexp.MustCompile(`^\s*-\s`)
)

// mention is one marker-bounded segment of a title.
type mention struct {
	start int // index of the marker
	end   int // index of the terminator
	text  string
}

// ParseArtists returns the credited artists and the artists mentioned in
// the title.
//
// Credited artists come from the structured artist list and are trimmed.
// Title artists are found after a "w/" or "with" marker:
//
//	ParseArtists("Soup Kitchen w/Jane and John", nil)
//	// artists = [], parsed = ["Jane", "John"]
//
// The first mention is captured up to "and", ",", "&" or " - ". When no
// mention has such a terminator, everything after the first marker is taken.
// Text following the first bounded mention is split into further names,
// unless it starts with a " - " subtitle separator.
func ParseArtists(title string, structured []string) (artists, parsed []string) {
	artists = []string{}
	for _, name := range structured {
		if name = strings.TrimSpace(name); name != "" {
			artists = append(artists, name)
		}
	}
	return artists, ParseTitleArtists(title)
}

// ParseTitleArtists extracts artist names mentioned informally in a title.
// The result is never nil.
func ParseTitleArtists(title string) []string {
	mentions := boundedMentions(title)

	var captures []string
	for _, m := range mentions {
		captures = append(captures, m.text)
	}
	if len(captures) == 0 {
		for _, match := range unboundedRegex.FindAllStringSubmatch(title, -1) {
			captures = append(captures, match[1])
		}
	}

	parsed := []string{}
	for _, c := range captures {
		parsed = append(parsed, strings.TrimSpace(c))
	}

	// Only a bounded first mention leaves a remainder worth splitting.
	if len(mentions) > 0 {
		remainder := title[mentions[0].end:]
		if !dashLeadRegex.MatchString(remainder) {
			for _, piece := range remainderSplitRegex.Split(remainder, -1) {
				parsed = append(parsed, strings.TrimSpace(piece))
			}
		}
	}

	out := parsed[:0]
	for _, name := range parsed {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// boundedMentions returns the non-overlapping bounded mentions of title in
// order.
func boundedMentions(title string) []mention {
	var out []mention
	pos := 0
	for {
		m, ok := nextBoundedMention(title, pos)
		if !ok {
			return out
		}
		out = append(out, m)
		pos = m.end
	}
}

// nextBoundedMention finds the first marker at or after from that is
// followed by a terminated mention.
func nextBoundedMention(title string, from int) (mention, bool) {
	pos := from
	for pos < len(title) {
		loc := markerRegex.FindStringIndex(title[pos:])
		if loc == nil {
			return mention{}, false
		}
		start, afterMarker := pos+loc[0], pos+loc[1]
		if end, ok := terminatorAfter(title, afterMarker); ok {
			return mention{start: start, end: end, text: title[afterMarker:end]}, true
		}
		pos = start + 1
	}
	return mention{}, false
}

// terminatorAfter finds the first separator that ends a mention starting at
// from. At least one character must precede it, and the mention may not
// span a line break.
func terminatorAfter(s string, from int) (int, bool) {
	if from >= len(s) || s[from] == '\n' {
		return 0, false
	}
	for q := from + 1; q < len(s); q++ {
		switch {
		case s[q] == ',' || s[q] == '&':
			return q, true
		case isSpace(s[q]) && q+2 < len(s) && s[q+1] == '-' && isSpace(s[q+2]):
			return q, true
		case isWordAnd(s, q):
			return q, true
		case s[q] == '\n':
			return 0, false
		}
	}
	return 0, false
}

// isWordAnd reports whether s holds the standalone word "and" at i.
func isWordAnd(s string, i int) bool {
	if i+3 > len(s) || !strings.EqualFold(s[i:i+3], "and") {
		return false
	}
	if i > 0 && isWordChar(s[i-1]) {
		return false
	}
	return i+3 == len(s) || !isWordChar(s[i+3])
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

func isWordChar(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}
