package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/keshon/cord-titan/internal/music/track"
)

const (
	audioFormat = "bestaudio/best"
	// one JSON object per line, only the fields we read
	metaTemplate = "%(.{webpage_url,title,url,duration,thumbnail,uploader,view_count,like_count,upload_date,description})j"
	flatTemplate = "%(.{url,webpage_url,title,uploader,duration})j"
)

type ytdlpMeta struct {
	WebpageURL  string  `json:"webpage_url"`
	URL         string  `json:"url"`
	Title       string  `json:"title"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnail"`
	Uploader    string  `json:"uploader"`
	ViewCount   int64   `json:"view_count"`
	LikeCount   int64   `json:"like_count"`
	UploadDate  string  `json:"upload_date"`
	Description string  `json:"description"`
}

// YTDLP resolves anything yt-dlp understands, including search queries.
type YTDLP struct {
	executable string
	proxy      string
}

// NewYTDLP returns a yt-dlp backend. Empty executable uses yt-dlp from PATH.
func NewYTDLP(executable, proxy string) *YTDLP {
	return &YTDLP{executable: executable, proxy: proxy}
}

func (y *YTDLP) Name() string { return "yt-dlp" }

func (y *YTDLP) Match(string) bool { return true }

func (y *YTDLP) command() *ytdlp.Command {
	cmd := ytdlp.New().
		Quiet().
		NoWarnings().
		IgnoreConfig()
	if y.executable != "" {
		cmd.SetExecutable(y.executable)
	}
	if y.proxy != "" {
		cmd.Proxy(y.proxy)
	}
	return cmd
}

func (y *YTDLP) Resolve(ctx context.Context, query string) (*track.Track, error) {
	res, err := y.command().
		Format(audioFormat).
		NoPlaylist().
		Print(metaTemplate).
		Run(ctx, searchQuery(query, 1))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp resolve %q: %w", query, err)
	}

	var meta ytdlpMeta
	if !firstJSONLine(res.Stdout, &meta) || meta.WebpageURL == "" {
		return nil, fmt.Errorf("yt-dlp resolve %q: %w", query, ErrNotFound)
	}

	t := track.New(meta.Title, meta.WebpageURL, meta.URL, seconds(meta.Duration), track.Requester{}, "")
	t.Thumbnail = meta.Thumbnail
	t.Uploader = meta.Uploader
	t.Views = meta.ViewCount
	t.Likes = meta.LikeCount
	t.UploadDate = meta.UploadDate
	t.SetDescription(meta.Description)
	return t, nil
}

func (y *YTDLP) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	res, err := y.command().
		FlatPlaylist().
		Print(flatTemplate).
		Run(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query))
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search %q: %w", query, err)
	}
	results := parseFlat(res.Stdout)
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

func (y *YTDLP) Playlist(ctx context.Context, url string, limit int) ([]Result, error) {
	res, err := y.command().
		FlatPlaylist().
		PlaylistItems(fmt.Sprintf("1-%d", limit)).
		Print(flatTemplate).
		Run(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("yt-dlp playlist %q: %w", url, err)
	}
	results := parseFlat(res.Stdout)
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

func (y *YTDLP) Reresolve(ctx context.Context, webpageURL string) (string, error) {
	res, err := y.command().
		Format(audioFormat).
		NoPlaylist().
		Print("%(url)s").
		Run(ctx, webpageURL)
	if err != nil {
		return "", fmt.Errorf("yt-dlp reresolve %q: %w", webpageURL, err)
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" && line != "NA" {
			return line, nil
		}
	}
	return "", fmt.Errorf("yt-dlp reresolve %q: %w", webpageURL, ErrNotFound)
}

func parseFlat(out string) []Result {
	var results []Result
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var meta ytdlpMeta
		if err := json.Unmarshal([]byte(line), &meta); err != nil {
			continue
		}
		u := meta.WebpageURL
		if u == "" {
			u = meta.URL
		}
		if u == "" {
			continue
		}
		results = append(results, Result{
			Title:    meta.Title,
			URL:      u,
			Uploader: meta.Uploader,
			Duration: meta.Duration,
		})
	}
	return results
}

func firstJSONLine(out string, v any) bool {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := json.Unmarshal([]byte(line), v); err == nil {
			return true
		}
	}
	return false
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}
