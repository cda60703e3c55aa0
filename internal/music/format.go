package music

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ShortString renders "Title - Artist (Album)", omitting empty parts
func (s *Song) ShortString() string {
	var b strings.Builder
	if s.Title != "" {
		b.WriteString(s.Title)
	} else {
		b.WriteString("(Untitled)")
	}
	if s.artist != "" {
		b.WriteString(" - " + s.artist)
	}
	if s.Album != "" {
		b.WriteString(" (" + s.Album + ")")
	}
	return b.String()
}

// ScrobbleString renders "Artist - Title [m:ss] (played: N times)"
func (s *Song) ScrobbleString() string {
	var b strings.Builder
	if s.artist != "" {
		b.WriteString(s.artist)
		b.WriteString(" - ")
	}
	b.WriteString(s.Title)
	if s.duration > 0 {
		b.WriteString(" [" + FormatDuration(s.duration) + "]")
	}
	if s.TimesPlayed > 0 {
		fmt.Fprintf(&b, " (played: %d times)", s.TimesPlayed)
	}
	return b.String()
}

// MatchString renders a similarity-search result line. The match score is
// cut to one decimal place.
func (s *Song) MatchString(showURL bool) string {
	var b strings.Builder
	switch {
	case s.artist != "":
		b.WriteString(s.artist)
		if s.Album != "" {
			b.WriteString(" - " + s.Album)
		} else {
			if s.Title != "" {
				b.WriteString(" - " + s.Title)
			}
			if s.Genre != "" {
				b.WriteString(" (tagged: " + s.Genre + ")")
			}
		}
	case s.Album != "":
		b.WriteString(s.Album)
	}

	if s.LastFMMatch != "" {
		match := s.LastFMMatch
		if dot := strings.Index(match, "."); dot >= 0 && len(match) > dot+2 {
			match = match[:dot+2]
		}
		b.WriteString(" (match: " + match + "%)")
	}
	if showURL && s.URL != "" {
		b.WriteString(" (link: " + s.URL + ")")
	}
	return b.String()
}

// URLArtist returns the artist escaped for use in a query string
func (s *Song) URLArtist() string {
	return url.QueryEscape(s.artist)
}

// String renders the tab-separated artist, title, album, duration and last
// play time.
func (s *Song) String() string {
	return strings.Join([]string{
		s.artist,
		s.Title,
		s.Album,
		strconv.Itoa(s.duration),
		s.DateTimePlayed.Format("2006-01-02T15:04:05"),
	}, "\t")
}

// QueueTime formats the last play time for the submit queue, either as Unix
// seconds or as "yyyy-mm-dd hh:mm:ss".
func (s *Song) QueueTime(asUnix bool) string {
	if asUnix {
		return strconv.FormatInt(s.DateTimePlayed.UTC().Unix(), 10)
	}
	t := s.DateTimePlayed
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

// RateActionParam returns the single-letter rating code, empty for none
func (s *Song) RateActionParam() string {
	switch s.ScrobbleAction {
	case ActionLove:
		return "L"
	case ActionBan:
		return "B"
	case ActionSkip:
		return "S"
	default:
		return ""
	}
}

// SourceParam returns the single-letter source code. Last.fm sources carry
// the auth token.
func (s *Song) SourceParam() string {
	switch s.Source {
	case SourceBroadcast:
		return "R"
	case SourceRecommendation:
		return "E"
	case SourceLastFM:
		return "L" + s.AuthToken
	case SourceUnknown:
		return "U"
	default:
		return "P"
	}
}

// FormatDuration renders seconds as m:ss, or h:mm:ss from one hour up
func FormatDuration(seconds int) string {
	if seconds < 0 {
		return "0:00"
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	sec := seconds % 60
	if h >= 1 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}
