// Package transcript fetches YouTube video transcripts via the timedtext
// endpoint. An unavailable transcript is a normal outcome surfaced as
// ErrUnavailable, not a processing failure.
package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://www.youtube.com"

// ErrUnavailable is returned when a video has no fetchable transcript.
var ErrUnavailable = errors.New("transcript unavailable")

// Client fetches transcripts for YouTube videos.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new transcript client. An empty baseURL uses the
// public YouTube endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
}

// VideoID extracts the video identifier from the common YouTube URL
// forms (watch?v=, youtu.be/, shorts/, embed/).
func VideoID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid YouTube URL: %w", err)
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch host {
	case "youtu.be":
		if id := strings.Trim(u.Path, "/"); id != "" {
			return id, nil
		}
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if id := u.Query().Get("v"); id != "" {
			return id, nil
		}
		for _, prefix := range []string{"/shorts/", "/embed/"} {
			if strings.HasPrefix(u.Path, prefix) {
				if id := strings.Trim(strings.TrimPrefix(u.Path, prefix), "/"); id != "" {
					return id, nil
				}
			}
		}
	}
	return "", fmt.Errorf("could not extract video ID from %q", raw)
}

// timedtextResponse is the json3 payload of the timedtext endpoint.
type timedtextResponse struct {
	Events []struct {
		Segs []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// Fetch returns the transcript text of a video, lines joined by newlines.
// Returns ErrUnavailable when the video has no transcript.
func (c *Client) Fetch(ctx context.Context, videoURL string) (string, error) {
	id, err := VideoID(videoURL)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	endpoint := fmt.Sprintf("%s/api/timedtext?v=%s&lang=en&fmt=json3", c.baseURL, url.QueryEscape(id))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcript request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcript request bad status %d: %s", resp.StatusCode, string(raw))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript response: %w", err)
	}
	// The endpoint returns an empty body for videos without captions.
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", ErrUnavailable
	}

	var parsed timedtextResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse transcript response: %w", err)
	}

	var lines []string
	for _, event := range parsed.Events {
		var line strings.Builder
		for _, seg := range event.Segs {
			line.WriteString(seg.UTF8)
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", ErrUnavailable
	}
	return strings.Join(lines, "\n"), nil
}
