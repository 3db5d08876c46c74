package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrNotYouTube       = errors.New("not a YouTube URL or ID")
	ErrNoVideoID        = errors.New("could not extract video ID")
	ErrNoPlaylistID     = errors.New("could not extract playlist ID")
	ErrNoChannelID      = errors.New("could not extract channel ID")
	ErrUnsupportedInput = errors.New("unsupported channel reference")
)

var (
	videoIDRegex    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	playlistIDRegex = regexp.MustCompile(`^(PL|UU|LL|FL|OL|RD|UL)[A-Za-z0-9_-]{10,}$`)
	channelIDRegex  = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
}

// parseInput returns the parsed URL for s, or nil if s is not a URL at all (i.e. probably a bare ID).
func parseInput(s string) (*url.URL, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "/") && !strings.Contains(s, "?") {
		return nil, nil
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	host := strings.ToLower(parsed.Hostname())
	if !youtubeHosts[host] && host != "youtu.be" {
		return nil, fmt.Errorf("%w: unrecognised hostname %q", ErrNotYouTube, host)
	}
	return parsed, nil
}

// Extract video ID from a YouTube URL or bare ID.
//
// Allowed URL formats:
//
//	http(s?)://(www|m|music).youtube.com/(watch|details)?v={VIDEO_ID}
//	http(s?)://(www|m).youtube.com/(v|embed|shorts|live)/{VIDEO_ID}
//	http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(s string) (string, error) {
	parsed, err := parseInput(s)
	if err != nil {
		return "", err
	}
	var id string
	if parsed == nil {
		id = strings.TrimSpace(s)
	} else if parsed.Hostname() == "youtu.be" {
		id = strings.Trim(parsed.Path, "/")
	} else if parsed.Path == "/watch" || parsed.Path == "/details" {
		id = parsed.Query().Get("v")
	} else {
		for _, prefix := range []string{"/v/", "/embed/", "/shorts/", "/live/"} {
			if strings.HasPrefix(parsed.Path, prefix) {
				id = strings.SplitN(strings.TrimPrefix(parsed.Path, prefix), "/", 2)[0]
				break
			}
		}
	}
	if !videoIDRegex.MatchString(id) {
		return "", ErrNoVideoID
	}
	return id, nil
}

// Extract playlist ID from a YouTube URL carrying a list= parameter, or a bare ID.
func extractPlaylistID(s string) (string, error) {
	parsed, err := parseInput(s)
	if err != nil {
		return "", err
	}
	var id string
	if parsed == nil {
		id = strings.TrimSpace(s)
	} else {
		id = parsed.Query().Get("list")
	}
	if !playlistIDRegex.MatchString(id) {
		return "", ErrNoPlaylistID
	}
	return id, nil
}

// Extract channel ID from a /channel/ URL or a bare ID. Handles and custom URLs can only be resolved by scraping the
// channel page, so they are rejected.
func extractChannelID(s string) (string, error) {
	parsed, err := parseInput(s)
	if err != nil {
		return "", err
	}
	var id string
	if parsed == nil {
		id = strings.TrimSpace(s)
		if strings.HasPrefix(id, "@") {
			return "", fmt.Errorf("%w: handle %s", ErrUnsupportedInput, id)
		}
	} else if strings.HasPrefix(parsed.Path, "/channel/") {
		id = strings.SplitN(strings.TrimPrefix(parsed.Path, "/channel/"), "/", 2)[0]
	} else if strings.HasPrefix(parsed.Path, "/@") || strings.HasPrefix(parsed.Path, "/c/") || strings.HasPrefix(parsed.Path, "/user/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedInput, parsed.Path)
	}
	if !channelIDRegex.MatchString(id) {
		return "", ErrNoChannelID
	}
	return id, nil
}

// uploadsPlaylistID gives the ID of the playlist holding every upload of a channel.
func uploadsPlaylistID(channelID string) string {
	return "UU" + strings.TrimPrefix(channelID, "UC")
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

func playlistURL(playlistID string) string {
	return "https://www.youtube.com/playlist?list=" + playlistID
}

func channelURL(channelID string) string {
	return "https://www.youtube.com/channel/" + channelID
}
