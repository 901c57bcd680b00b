package resolver

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var youtubeRegex = regexp.MustCompile(`(?:https?://)?(?:www\.|music\.|m\.)?(youtube\.com|youtu\.be)/\S+`)

// IsURL reports whether s looks like an http(s) link rather than a search.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsYouTubeURL reports a youtube.com or youtu.be link.
func IsYouTubeURL(s string) bool {
	return youtubeRegex.MatchString(s)
}

// IsPlaylistURL reports a link that carries a playlist.
func IsPlaylistURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Query().Get("list") != "" || strings.Contains(u.Path, "/playlist") || strings.Contains(u.Path, "/sets/")
}

// CleanVideoURL strips tracking and playlist parameters from a YouTube link.
func CleanVideoURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := u.Hostname()
	switch host {
	case "youtu.be":
		vid := strings.Trim(u.Path, "/")
		if vid == "" {
			return raw
		}
		return fmt.Sprintf("https://youtu.be/%s", vid)
	case "www.youtube.com", "youtube.com", "music.youtube.com", "m.youtube.com":
		if u.Path == "/watch" {
			if vid := u.Query().Get("v"); vid != "" {
				return fmt.Sprintf("https://www.youtube.com/watch?v=%s", vid)
			}
		}
	}
	return raw
}

// searchQuery turns free text into a yt-dlp search expression.
func searchQuery(query string, n int) string {
	if IsURL(query) {
		return query
	}
	return fmt.Sprintf("ytsearch%d:%s", n, query)
}
