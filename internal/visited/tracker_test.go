package visited

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// TestCanonical tests URL canonicalization.
func TestCanonical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"drops fragment", "https://en.wikipedia.org/wiki/Romania#History", "https://en.wikipedia.org/wiki/Romania"},
		{"lowercases scheme and host", "HTTPS://EN.Wikipedia.ORG/wiki/Romania", "https://en.wikipedia.org/wiki/Romania"},
		{"keeps path case", "https://en.wikipedia.org/wiki/ROMANIA", "https://en.wikipedia.org/wiki/ROMANIA"},
		{"empty path becomes root", "https://en.wikipedia.org", "https://en.wikipedia.org/"},
		{"keeps query", "https://example.org/wiki/X?action=view", "https://example.org/wiki/X?action=view"},
		{"unparseable returned as is", "://bad", "://bad"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Canonical(tt.in); got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// newMiniredisClient starts an in-memory Redis server for the test.
func newMiniredisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return mr, client
}

// trackerFactories returns every Tracker implementation under test.
func trackerFactories() map[string]func(t *testing.T) Tracker {
	return map[string]func(t *testing.T) Tracker{
		"memory": func(_ *testing.T) Tracker { return NewMemory() },
		"redis": func(t *testing.T) Tracker {
			t.Helper()
			_, client := newMiniredisClient(t)
			return NewRedis(client, "session-under-test")
		},
	}
}

// TestTrackerContract tests behavior shared by all trackers.
func TestTrackerContract(t *testing.T) {
	t.Parallel()

	for name, factory := range trackerFactories() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			t.Run("first claim wins, second loses", func(t *testing.T) {
				tr := factory(t)

				ok, err := tr.TryClaim(ctx, "https://en.wikipedia.org/wiki/Romania")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !ok {
					t.Fatal("expected first claim to succeed")
				}

				ok, err = tr.TryClaim(ctx, "https://en.wikipedia.org/wiki/Romania")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if ok {
					t.Error("expected second claim to fail")
				}
			})

			t.Run("claims are canonical", func(t *testing.T) {
				tr := factory(t)

				if ok, _ := tr.TryClaim(ctx, "https://en.wikipedia.org/wiki/Romania#Geography"); !ok {
					t.Fatal("expected first claim to succeed")
				}
				if ok, _ := tr.TryClaim(ctx, "https://EN.wikipedia.org/wiki/Romania"); ok {
					t.Error("expected fragment and host case variants to share a claim")
				}
			})

			t.Run("seen reflects claims", func(t *testing.T) {
				tr := factory(t)

				seen, err := tr.Seen(ctx, "https://example.org/wiki/A")
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if seen {
					t.Error("expected unclaimed URL to be unseen")
				}

				_, _ = tr.TryClaim(ctx, "https://example.org/wiki/A")
				seen, _ = tr.Seen(ctx, "https://example.org/wiki/A")
				if !seen {
					t.Error("expected claimed URL to be seen")
				}
			})

			t.Run("reset forgets claims", func(t *testing.T) {
				tr := factory(t)

				_, _ = tr.TryClaim(ctx, "https://example.org/wiki/A")
				_, _ = tr.TryClaim(ctx, "https://example.org/wiki/B")

				n, err := tr.Len(ctx)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if n != 2 {
					t.Errorf("expected 2 claims, got %d", n)
				}

				if err := tr.Reset(ctx); err != nil {
					t.Fatalf("reset failed: %v", err)
				}
				n, _ = tr.Len(ctx)
				if n != 0 {
					t.Errorf("expected 0 claims after reset, got %d", n)
				}
				if ok, _ := tr.TryClaim(ctx, "https://example.org/wiki/A"); !ok {
					t.Error("expected claim to succeed after reset")
				}
			})

			t.Run("concurrent claims of one URL have one winner", func(t *testing.T) {
				tr := factory(t)

				const callers = 64
				var winners atomic.Int32
				var wg sync.WaitGroup
				for range callers {
					wg.Add(1)
					go func() {
						defer wg.Done()
						ok, err := tr.TryClaim(ctx, "https://example.org/wiki/Hub")
						if err != nil {
							t.Errorf("unexpected error: %v", err)
							return
						}
						if ok {
							winners.Add(1)
						}
					}()
				}
				wg.Wait()

				if got := winners.Load(); got != 1 {
					t.Errorf("expected exactly 1 winner, got %d", got)
				}
			})
		})
	}
}

// TestRedisTracker tests Redis specific behavior.
func TestRedisTracker(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("key is scoped by session", func(t *testing.T) {
		t.Parallel()

		mr, client := newMiniredisClient(t)
		a := NewRedis(client, "a")
		b := NewRedis(client, "b")

		if ok, _ := a.TryClaim(ctx, "https://example.org/wiki/X"); !ok {
			t.Fatal("expected claim in session a")
		}
		if ok, _ := b.TryClaim(ctx, "https://example.org/wiki/X"); !ok {
			t.Error("expected session b to be independent of session a")
		}
		if !mr.Exists(DefaultRedisKeyPrefix + "a") {
			t.Errorf("expected key %s to exist", DefaultRedisKeyPrefix+"a")
		}
	})

	t.Run("custom prefix", func(t *testing.T) {
		t.Parallel()

		_, client := newMiniredisClient(t)
		tr := NewRedis(client, "s1", WithKeyPrefix("test:"))
		if tr.Key() != "test:s1" {
			t.Errorf("expected key test:s1, got %q", tr.Key())
		}
	})

	t.Run("claim set expires", func(t *testing.T) {
		t.Parallel()

		mr, client := newMiniredisClient(t)
		tr := NewRedis(client, "ttl", WithTTL(time.Minute))

		_, _ = tr.TryClaim(ctx, "https://example.org/wiki/X")
		if ttl := mr.TTL(tr.Key()); ttl != time.Minute {
			t.Errorf("expected TTL 1m, got %v", ttl)
		}

		mr.FastForward(2 * time.Minute)
		if ok, _ := tr.TryClaim(ctx, "https://example.org/wiki/X"); !ok {
			t.Error("expected claim to succeed after expiry")
		}
	})

	t.Run("zero TTL disables expiry", func(t *testing.T) {
		t.Parallel()

		mr, client := newMiniredisClient(t)
		tr := NewRedis(client, "forever", WithTTL(0))

		_, _ = tr.TryClaim(ctx, "https://example.org/wiki/X")
		if ttl := mr.TTL(tr.Key()); ttl != 0 {
			t.Errorf("expected no TTL, got %v", ttl)
		}
	})

	t.Run("server failure surfaces as error", func(t *testing.T) {
		t.Parallel()

		mr, client := newMiniredisClient(t)
		tr := NewRedis(client, "down")
		mr.Close()

		if _, err := tr.TryClaim(ctx, "https://example.org/wiki/X"); err == nil {
			t.Error("expected error when Redis is unreachable")
		}
	})
}

// TestDial tests connecting to Redis.
func TestDial(t *testing.T) {
	t.Parallel()

	t.Run("empty address", func(t *testing.T) {
		t.Parallel()

		_, err := Dial(context.Background(), RedisConfig{})
		if !errors.Is(err, ErrEmptyRedisAddress) {
			t.Errorf("expected ErrEmptyRedisAddress, got %v", err)
		}
	})

	t.Run("connects to running server", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		client, err := Dial(context.Background(), RedisConfig{Address: mr.Addr()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer client.Close()
	})

	t.Run("wrong password fails ping", func(t *testing.T) {
		t.Parallel()

		mr := miniredis.RunT(t)
		mr.RequireAuth("correct")
		_, err := Dial(context.Background(), RedisConfig{Address: mr.Addr(), Password: "wrong"})
		if err == nil {
			t.Error("expected ping to fail with wrong password")
		}
	})
}
