// Package transcript fetches spoken-word transcripts for YouTube videos.
//
// YouTube does not expose captions through a public API, so the client
// scrapes the watch page for the embedded player response, picks a caption
// track, and downloads it in the timedtext XML format.
package transcript

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	stdhtml "html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ErrInvalidURL is returned when the given URL is not a recognizable
// YouTube video URL.
var ErrInvalidURL = errors.New("invalid YouTube URL")

// ErrUnavailable is returned when no transcript can be fetched for a video
// (no captions, private or removed video, network failure).
var ErrUnavailable = errors.New("transcript unavailable")

const (
	defaultWatchBaseURL = "https://www.youtube.com"
	fetchTimeout        = 10 * time.Second
	maxPageSize         = 10 << 20 // 10MB
	playerResponseVar   = "ytInitialPlayerResponse"
)

// Client fetches transcripts from YouTube.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a transcript Client against the public YouTube site.
func NewClient() *Client {
	return &Client{
		baseURL: defaultWatchBaseURL,
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// NewClientWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// ExtractVideoID pulls the video ID out of a YouTube URL. Both the
// youtube.com/watch?v= and youtu.be/ short forms are accepted.
func ExtractVideoID(videoURL string) (string, error) {
	u, err := url.Parse(videoURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
		// Short-form paths like /embed/<id> and /shorts/<id>.
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "embed" || parts[0] == "shorts") && parts[1] != "" {
			return parts[1], nil
		}
		return "", fmt.Errorf("%w: missing video id in %q", ErrInvalidURL, videoURL)
	case "youtu.be":
		id := strings.Trim(u.Path, "/")
		if id == "" || strings.Contains(id, "/") {
			return "", fmt.Errorf("%w: missing video id in %q", ErrInvalidURL, videoURL)
		}
		return id, nil
	default:
		return "", fmt.Errorf("%w: unsupported host %q", ErrInvalidURL, u.Hostname())
	}
}

// Fetch returns the full transcript text for the video at videoURL.
// Failures after URL validation wrap ErrUnavailable.
func (c *Client) Fetch(ctx context.Context, videoURL string) (string, error) {
	videoID, err := ExtractVideoID(videoURL)
	if err != nil {
		return "", err
	}

	page, err := c.get(ctx, c.baseURL+"/watch?v="+url.QueryEscape(videoID))
	if err != nil {
		return "", fmt.Errorf("%w: fetching watch page: %v", ErrUnavailable, err)
	}

	tracks, err := captionTracks(page)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	track := pickTrack(tracks)
	body, err := c.get(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: fetching caption track: %v", ErrUnavailable, err)
	}

	text, err := decodeTimedText(body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return text, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US,en")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
}

// captionTrack is one entry of the player response captionTracks array.
type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated tracks
}

type playerResponse struct {
	Captions struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

// captionTracks walks the watch page HTML, finds the script element that
// assigns ytInitialPlayerResponse, and decodes its caption track list.
func captionTracks(page []byte) ([]captionTrack, error) {
	script, ok := findPlayerResponseScript(page)
	if !ok {
		return nil, fmt.Errorf("player response not found in watch page")
	}

	idx := strings.Index(script, playerResponseVar)
	rest := script[idx+len(playerResponseVar):]
	eq := strings.Index(rest, "=")
	if eq < 0 {
		return nil, fmt.Errorf("malformed player response assignment")
	}

	// The assignment is followed by more statements; a json.Decoder stops
	// after the first complete value, so the trailing code is ignored.
	var pr playerResponse
	dec := json.NewDecoder(strings.NewReader(rest[eq+1:]))
	if err := dec.Decode(&pr); err != nil {
		return nil, fmt.Errorf("decoding player response: %w", err)
	}

	tracks := pr.Captions.Renderer.CaptionTracks
	if len(tracks) == 0 {
		return nil, fmt.Errorf("video has no caption tracks")
	}
	return tracks, nil
}

// findPlayerResponseScript tokenizes the page and returns the text of the
// first <script> containing the player response assignment.
func findPlayerResponseScript(page []byte) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(string(page)))
	inScript := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken:
			name, _ := z.TagName()
			inScript = string(name) == "script"
		case html.EndTagToken:
			inScript = false
		case html.TextToken:
			if !inScript {
				continue
			}
			text := string(z.Text())
			if strings.Contains(text, playerResponseVar) {
				return text, true
			}
		}
	}
}

// pickTrack prefers a manually authored English track, then auto-generated
// English, then whatever comes first.
func pickTrack(tracks []captionTrack) captionTrack {
	var asrEnglish *captionTrack
	for i, t := range tracks {
		if !strings.HasPrefix(t.LanguageCode, "en") {
			continue
		}
		if t.Kind != "asr" {
			return t
		}
		if asrEnglish == nil {
			asrEnglish = &tracks[i]
		}
	}
	if asrEnglish != nil {
		return *asrEnglish
	}
	return tracks[0]
}

// timedText mirrors the XML served by the timedtext endpoint.
type timedText struct {
	Texts []struct {
		Value string `xml:",chardata"`
	} `xml:"text"`
}

// decodeTimedText joins all caption events into a single space-separated
// string. Caption text is HTML-escaped a second time inside the XML, so
// entities are unescaped after decoding.
func decodeTimedText(body []byte) (string, error) {
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("decoding timedtext: %w", err)
	}
	if len(tt.Texts) == 0 {
		return "", fmt.Errorf("caption track is empty")
	}

	parts := make([]string, 0, len(tt.Texts))
	for _, t := range tt.Texts {
		s := strings.TrimSpace(stdhtml.UnescapeString(t.Value))
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("caption track is empty")
	}
	return strings.Join(parts, " "), nil
}
