package resolver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	youtube "github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/proxy"

	"github.com/keshon/cord-titan/internal/music/track"
)

// YouTube talks to YouTube directly without an external binary. It only
// handles YouTube links and cannot search.
type YouTube struct {
	client *youtube.Client
}

// NewYouTube builds a client, optionally routed through an http(s) or socks5 proxy.
func NewYouTube(proxyURL string) *YouTube {
	return &YouTube{client: newYouTubeClient(proxyURL)}
}

func newYouTubeClient(proxyStr string) *youtube.Client {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	if proxyStr == "" {
		return &youtube.Client{HTTPClient: httpClient}
	}

	u, err := url.Parse(proxyStr)
	if err != nil {
		log.Warn().Str("component", "resolver").Err(err).Msg("invalid proxy, going direct")
		return &youtube.Client{HTTPClient: httpClient}
	}

	switch u.Scheme {
	case "http", "https":
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			auth = &proxy.Auth{User: u.User.Username()}
			auth.Password, _ = u.User.Password()
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, &net.Dialer{Timeout: 10 * time.Second})
		if err != nil {
			log.Warn().Str("component", "resolver").Err(err).Msg("socks5 dialer failed, going direct")
			break
		}
		httpClient.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	default:
		log.Warn().Str("component", "resolver").Str("scheme", u.Scheme).Msg("unsupported proxy scheme, going direct")
	}
	return &youtube.Client{HTTPClient: httpClient}
}

func (y *YouTube) Name() string { return "youtube" }

func (y *YouTube) Match(input string) bool {
	return IsURL(input) && IsYouTubeURL(input)
}

func (y *YouTube) Resolve(ctx context.Context, query string) (*track.Track, error) {
	if !y.Match(query) {
		return nil, ErrUnsupported
	}
	video, err := y.client.GetVideoContext(ctx, CleanVideoURL(query))
	if err != nil {
		return nil, fmt.Errorf("youtube video %q: %w", query, err)
	}
	streamURL, err := y.streamURL(ctx, video)
	if err != nil {
		return nil, err
	}

	t := track.New(video.Title, watchURL(video.ID), streamURL, video.Duration, track.Requester{}, "")
	t.Uploader = video.Author
	t.Views = int64(video.Views)
	if !video.PublishDate.IsZero() {
		t.UploadDate = video.PublishDate.Format("20060102")
	}
	if n := len(video.Thumbnails); n > 0 {
		t.Thumbnail = video.Thumbnails[n-1].URL
	}
	t.SetDescription(video.Description)
	return t, nil
}

func (y *YouTube) Search(context.Context, string, int) ([]Result, error) {
	return nil, ErrUnsupported
}

func (y *YouTube) Playlist(ctx context.Context, u string, limit int) ([]Result, error) {
	if !y.Match(u) {
		return nil, ErrUnsupported
	}
	pl, err := y.client.GetPlaylistContext(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("youtube playlist %q: %w", u, err)
	}
	var results []Result
	for _, v := range pl.Videos {
		if len(results) >= limit {
			break
		}
		results = append(results, Result{
			Title:    v.Title,
			URL:      watchURL(v.ID),
			Uploader: v.Author,
			Duration: v.Duration.Seconds(),
		})
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}
	return results, nil
}

func (y *YouTube) Reresolve(ctx context.Context, webpageURL string) (string, error) {
	if !y.Match(webpageURL) {
		return "", ErrUnsupported
	}
	video, err := y.client.GetVideoContext(ctx, CleanVideoURL(webpageURL))
	if err != nil {
		return "", fmt.Errorf("youtube video %q: %w", webpageURL, err)
	}
	return y.streamURL(ctx, video)
}

// streamURL picks the audio-only format with the highest bitrate.
func (y *YouTube) streamURL(ctx context.Context, video *youtube.Video) (string, error) {
	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", fmt.Errorf("youtube %s: no audio formats: %w", video.ID, ErrNotFound)
	}
	best := 0
	for i, f := range formats {
		audioOnly := strings.HasPrefix(f.MimeType, "audio/")
		bestAudioOnly := strings.HasPrefix(formats[best].MimeType, "audio/")
		if audioOnly && (!bestAudioOnly || f.Bitrate > formats[best].Bitrate) {
			best = i
		}
	}
	link, err := y.client.GetStreamURLContext(ctx, video, &formats[best])
	if err != nil {
		return "", fmt.Errorf("youtube stream url %s: %w", video.ID, err)
	}
	return link, nil
}

func watchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
