package transcript

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestVideoID(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", false},
		{"https://youtube.com/shorts/abc123", "abc123", false},
		{"https://www.youtube.com/embed/abc123", "abc123", false},
		{"https://m.youtube.com/watch?v=xyz", "xyz", false},
		{"https://example.com/watch?v=abc", "", true},
		{"https://www.youtube.com/watch", "", true},
		{"not a url at all ://", "", true},
	}

	for _, tt := range tests {
		got, err := VideoID(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("VideoID(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("VideoID(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantText   string
		wantErr    error
		anyErr     bool
	}{
		{
			name: "transcript present",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"events":[{"segs":[{"utf8":"Verse"}]},{"segs":[{"utf8":"C G "},{"utf8":"Am F"}]}]}`))
			},
			wantText: "Verse\nC G Am F",
		},
		{
			name: "empty body means unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(""))
			},
			wantErr: ErrUnavailable,
		},
		{
			name: "not found means unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantErr: ErrUnavailable,
		},
		{
			name: "server error is a plain failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			anyErr: true,
		},
		{
			name: "events without text mean unavailable",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"events":[{"segs":[{"utf8":"  "}]}]}`))
			},
			wantErr: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL)
			got, err := c.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc")

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if tt.anyErr {
				if err == nil {
					t.Fatal("Fetch() expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if got != tt.wantText {
				t.Errorf("Fetch() = %q, want %q", got, tt.wantText)
			}
		})
	}
}

func TestFetchInvalidURL(t *testing.T) {
	c := NewClient("")
	_, err := c.Fetch(context.Background(), "https://example.com/nope")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Fetch(non-youtube) error = %v, want ErrUnavailable", err)
	}
}
