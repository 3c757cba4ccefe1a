package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	if err := c.Set(ctx, "k", payload, time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("Get(k) = hit %v, err %v; want hit", hit, err)
	}
	if string(got) != string(payload) {
		t.Errorf("Get(k) = %v, want %v", got, payload)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry still present after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete error: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl missing")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("bad")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte{1, 2}, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, hit, err := c.Get(ctx, "bad"); hit || err != nil {
		t.Errorf("Get(bad) = hit %v, err %v; want clean miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d leftovers in cache dir", len(entries))
	}

	missing := &FileCache{dir: filepath.Join(dir, "gone")}
	if n, err := missing.Clear(); n != 0 || err != nil {
		t.Errorf("Clear() on missing dir = %d, %v", n, err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	base := ArtifactKeyOpts{Text: "A", CanvasSize: 400, Warp: true, ShrinkFactor: 0.1, ScaleDivisor: 26, Background: "white", Format: "png"}

	if k.ArtifactKey(base) != k.ArtifactKey(base) {
		t.Error("ArtifactKey should be deterministic")
	}
	if !strings.HasPrefix(k.ArtifactKey(base), "artifact:") {
		t.Errorf("ArtifactKey unexpected: %s", k.ArtifactKey(base))
	}

	variants := []func(o *ArtifactKeyOpts){
		func(o *ArtifactKeyOpts) { o.Text = "B" },
		func(o *ArtifactKeyOpts) { o.CanvasSize = 401 },
		func(o *ArtifactKeyOpts) { o.Warp = false },
		func(o *ArtifactKeyOpts) { o.ShrinkFactor = 0.2 },
		func(o *ArtifactKeyOpts) { o.ScaleDivisor = 20 },
		func(o *ArtifactKeyOpts) { o.Background = "transparent" },
		func(o *ArtifactKeyOpts) { o.Format = "jpeg" },
		func(o *ArtifactKeyOpts) { o.Font = "other" },
	}
	for i, mutate := range variants {
		o := base
		mutate(&o)
		if k.ArtifactKey(o) == k.ArtifactKey(base) {
			t.Errorf("variant %d produced the same key", i)
		}
	}
}

func TestScopedKeyer(t *testing.T) {
	opts := ArtifactKeyOpts{Text: "A"}
	scoped := NewScopedKeyer(NewDefaultKeyer(), "staging:")

	want := "staging:" + NewDefaultKeyer().ArtifactKey(opts)
	if got := scoped.ArtifactKey(opts); got != want {
		t.Errorf("ArtifactKey = %s, want %s", got, want)
	}

	// nil inner falls back to DefaultKeyer
	if got := NewScopedKeyer(nil, "staging:").ArtifactKey(opts); got != want {
		t.Errorf("ArtifactKey with nil inner = %s, want %s", got, want)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"None", Options{Backend: BackendNone}, false},
		{"File", Options{Backend: BackendFile, Dir: t.TempDir()}, false},
		{"DefaultIsFile", Options{Dir: t.TempDir()}, false},
		{"FileWithoutDir", Options{Backend: BackendFile}, true},
		{"MongoWithoutURI", Options{Backend: BackendMongo}, true},
		{"Unknown", Options{Backend: "memcached"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				if c == nil {
					t.Fatal("Open() returned nil cache")
				}
				c.Close()
			}
		})
	}
}

func TestRedisOptions(t *testing.T) {
	tests := []struct {
		in, wantAddr string
	}{
		{"", "localhost:6379"},
		{"cache:6380", "cache:6380"},
		{"redis://cache:6381/2", "cache:6381"},
	}
	for _, tt := range tests {
		opts, err := redisOptions(tt.in)
		if err != nil {
			t.Fatalf("redisOptions(%q) error: %v", tt.in, err)
		}
		if opts.Addr != tt.wantAddr {
			t.Errorf("redisOptions(%q).Addr = %q, want %q", tt.in, opts.Addr, tt.wantAddr)
		}
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrUnavailable)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrUnavailable.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if IsRetryable(ErrUnavailable) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	// Non-retryable error stops immediately
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrUnavailable
	})
	if err != ErrUnavailable || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	// Retryable error triggers retries
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrUnavailable)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry: err %v, calls %d", err, calls)
	}

	// Gives up after three attempts
	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return Retryable(ErrUnavailable)
	})
	if !IsRetryable(err) || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrUnavailable)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
