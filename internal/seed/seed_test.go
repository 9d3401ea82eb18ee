package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestResolve tests seed repair without search.
func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		seed    string
		subject string
		want    string
		wantErr error
	}{
		{"absolute seed kept", "https://en.wikipedia.org/wiki/Romania", "president", "https://en.wikipedia.org/wiki/Romania", nil},
		{"article name", "Klaus Iohannis", "president", "https://en.wikipedia.org/wiki/Klaus_Iohannis", nil},
		{"subject fallback", "", "Eiffel Tower", "https://en.wikipedia.org/wiki/Eiffel_Tower", nil},
		{"trims input", "  ", " Paris ", "https://en.wikipedia.org/wiki/Paris", nil},
		{"escapes reserved characters", "What? #1", "", "https://en.wikipedia.org/wiki/What%3F_%231", nil},
		{"keeps subpage slashes", "AC/DC", "", "https://en.wikipedia.org/wiki/AC/DC", nil},
		{"escapes non-ASCII", "București", "", "https://en.wikipedia.org/wiki/Bucure%C8%99ti", nil},
		{"nothing usable", "", "", "", ErrUnrepairable},
	}

	r := NewResolver(WithLogger(quietLogger()))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Resolve(context.Background(), tt.seed, tt.subject)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.seed, tt.subject, got, tt.want)
			}
		})
	}
}

// TestResolveSearch tests the opensearch lookup.
func TestResolveSearch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/w/api.php" || r.URL.Query().Get("action") != "opensearch" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("search") {
		case "romania president":
			_, _ = io.WriteString(w, `["romania president",["President of Romania"],[""],["https://en.wikipedia.org/wiki/President_of_Romania"]]`)
		case "broken":
			_, _ = io.WriteString(w, `{"error":true}`)
		case "down":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			_, _ = io.WriteString(w, `["x",[],[],[]]`)
		}
	}))
	t.Cleanup(server.Close)

	r := NewResolver(
		WithOrigin(server.URL+"/"),
		WithSearch(true),
		WithHTTPClient(server.Client()),
		WithLogger(quietLogger()),
	)

	t.Run("first hit wins", func(t *testing.T) {
		t.Parallel()

		got, err := r.Resolve(context.Background(), "", "romania president")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://en.wikipedia.org/wiki/President_of_Romania" {
			t.Errorf("unexpected seed %q", got)
		}
	})

	t.Run("no hit falls back to the name", func(t *testing.T) {
		t.Parallel()

		got, err := r.Resolve(context.Background(), "", "zzz nothing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != server.URL+"/wiki/zzz_nothing" {
			t.Errorf("unexpected seed %q", got)
		}
	})

	for _, term := range []string{"broken", "down"} {
		t.Run("search error falls back: "+term, func(t *testing.T) {
			t.Parallel()

			if _, err := r.Search(context.Background(), term); err == nil {
				t.Error("expected a search error")
			}
			got, err := r.Resolve(context.Background(), "", term)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != server.URL+"/wiki/"+term {
				t.Errorf("unexpected seed %q", got)
			}
		})
	}

	t.Run("absolute seed skips search", func(t *testing.T) {
		t.Parallel()

		got, err := r.Resolve(context.Background(), "https://ro.wikipedia.org/wiki/Rom%C3%A2nia", "romania president")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "https://ro.wikipedia.org/wiki/Rom%C3%A2nia" {
			t.Errorf("unexpected seed %q", got)
		}
	})
}

// TestIsAbsolute tests URL classification.
func TestIsAbsolute(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"https://en.wikipedia.org/wiki/X": true,
		"http://localhost:8080/wiki/X":    true,
		"ftp://example.org/x":             false,
		"/wiki/X":                         false,
		"Romania":                         false,
		"https://":                        false,
	}
	for in, want := range tests {
		if got := IsAbsolute(in); got != want {
			t.Errorf("IsAbsolute(%q) = %v, want %v", in, got, want)
		}
	}
}
