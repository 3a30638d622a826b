package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %v, %v, %v; want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if ok, _ := Clear(ctx, c); ok {
		t.Error("NullCache should not report Clear support")
	}
}

// exercise runs the behaviour every local backend must share.
func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Errorf("Get(missing) = hit %v, err %v; want clean miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Errorf("Get(k) = %q, %v, %v; want v1 hit", data, hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("Get(k) after overwrite = %q, want v2", data)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get(k) after Delete should miss")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete(missing) error: %v", err)
	}

	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	ok, err := Clear(ctx, c)
	if !ok || err != nil {
		t.Fatalf("Clear() = %v, %v", ok, err)
	}
	for _, k := range []string{"a", "b"} {
		if _, hit, _ := c.Get(ctx, k); hit {
			t.Errorf("Get(%s) after Clear should miss", k)
		}
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, c)
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestFileCacheConcurrentSet(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	payloads := make(map[string]bool)
	var wg sync.WaitGroup
	for i := range 16 {
		data := strings.Repeat(string(rune('a'+i)), 64<<10)
		payloads[data] = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.Set(ctx, "view", []byte(data), time.Hour); err != nil {
				t.Errorf("Set: %v", err)
			}
		}()
	}
	wg.Wait()

	data, hit, err := c.Get(ctx, "view")
	if err != nil || !hit {
		t.Fatalf("Get() hit %v, err %v; want a complete entry", hit, err)
	}
	if !payloads[string(data)] {
		t.Errorf("Get() returned a mixed or truncated entry of %d bytes", len(data))
	}

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(c.path("view")), "*.tmp"))
	if err != nil {
		t.Fatal(err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry = hit %v, err %v; want clean miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(8)
	if err != nil {
		t.Fatal(err)
	}
	exercise(t, c)
}

func TestMemoryCacheEvictsAndExpires(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_ = c.Set(ctx, "c", []byte("3"), 0)
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("least recently used entry should be evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	now := time.Now()
	c.now = func() time.Time { return now }
	_ = c.Set(ctx, "ttl", []byte("x"), time.Minute)
	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	if _, hit, _ := c.Get(ctx, "ttl"); hit {
		t.Error("expired entry should miss")
	}
}

func TestMemoryCacheCopiesInput(t *testing.T) {
	ctx := context.Background()
	c, _ := NewMemoryCache(0)
	buf := []byte("abc")
	_ = c.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	if data, _, _ := c.Get(ctx, "k"); string(data) != "abc" {
		t.Errorf("Get() = %q, want abc", data)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		cfg     Config
		want    string
		wantErr bool
	}{
		{"none", Config{Backend: "none"}, "*cache.NullCache", false},
		{"file", Config{Backend: "file", Dir: t.TempDir()}, "*cache.FileCache", false},
		{"memory", Config{Backend: "MEMORY", MemorySize: 4}, "*cache.MemoryCache", false},
		{"redis without url", Config{Backend: "redis"}, "", true},
		{"redis bad url", Config{Backend: "redis", RedisURL: "http://nope"}, "", true},
		{"mongo without uri", Config{Backend: "mongo"}, "", true},
		{"mongo bad uri", Config{Backend: "mongo", MongoURI: "bogus://host"}, "", true},
		{"unknown", Config{Backend: "etcd"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer c.Close()
			if got := typeName(c); got != tt.want {
				t.Errorf("Open() = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(c Cache) string {
	switch c.(type) {
	case *NullCache:
		return "*cache.NullCache"
	case *FileCache:
		return "*cache.FileCache"
	case *MemoryCache:
		return "*cache.MemoryCache"
	default:
		return "other"
	}
}

func TestHash(t *testing.T) {
	if Hash([]byte("hello")) != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if Hash([]byte("hello")) == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if n := len(Hash([]byte("hello"))); n != 64 {
		t.Errorf("Hash length = %d, want 64", n)
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := ViewKeyOpts{FocalID: "dataset:ns:a", ShowJobs: true, ShowDatasets: true}
	v1 := k.ViewKey("g1", base)
	if !strings.HasPrefix(v1, "view:") {
		t.Errorf("ViewKey = %s, want view: prefix", v1)
	}
	if v1 != k.ViewKey("g1", base) {
		t.Error("ViewKey should be deterministic")
	}

	changed := []ViewKeyOpts{
		{FocalID: "dataset:ns:b", ShowJobs: true, ShowDatasets: true},
		{FocalID: "dataset:ns:a", ShowJobs: false, ShowDatasets: true},
		{FocalID: "dataset:ns:a", ShowJobs: true, ShowDatasets: true, Collapsed: []string{"x"}},
		{FocalID: "dataset:ns:a", ShowJobs: true, ShowDatasets: true, Depth: 2},
	}
	for _, opts := range changed {
		if k.ViewKey("g1", opts) == v1 {
			t.Errorf("ViewKey(%+v) should differ from base", opts)
		}
	}
	if k.ViewKey("g2", base) == v1 {
		t.Error("different graph hash should produce a different key")
	}

	a1 := k.ArtifactKey("v", ArtifactKeyOpts{Format: "svg"})
	a2 := k.ArtifactKey("v", ArtifactKeyOpts{Format: "png"})
	if a1 == a2 || !strings.HasPrefix(a1, "artifact:") {
		t.Errorf("ArtifactKey = %s / %s", a1, a2)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "prod:")

	want := "prod:" + inner.ViewKey("g", ViewKeyOpts{})
	if got := scoped.ViewKey("g", ViewKeyOpts{}); got != want {
		t.Errorf("ViewKey = %s, want %s", got, want)
	}
	if got := scoped.ArtifactKey("v", ArtifactKeyOpts{Format: "dot"}); !strings.HasPrefix(got, "prod:artifact:") {
		t.Errorf("ArtifactKey = %s", got)
	}

	if NewScopedKeyer(nil, "p:").ViewKey("g", ViewKeyOpts{})[:7] != "p:view:" {
		t.Error("nil inner should fall back to the default keyer")
	}
	if _, ok := NewScopedKeyer(inner, "").(*ScopedKeyer); ok {
		t.Error("empty prefix should return inner unchanged")
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("wrapped error should unwrap to ErrNetwork")
	}
	if IsRetryable(ErrCacheMiss) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	old := retryBaseDelay
	retryBaseDelay = time.Millisecond
	defer func() { retryBaseDelay = old }()

	calls := 0
	if err := RetryWithBackoff(ctx, func() error { calls++; return nil }); err != nil || calls != 1 {
		t.Errorf("success: err %v, calls %d", err, calls)
	}

	calls = 0
	err := RetryWithBackoff(ctx, func() error { calls++; return ErrCacheMiss })
	if err != ErrCacheMiss || calls != 1 {
		t.Errorf("non-retryable: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("retry then succeed: err %v, calls %d", err, calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error { calls++; return Retryable(ErrNetwork) })
	if err != ErrNetwork || calls != 3 {
		t.Errorf("exhausted: err %v, calls %d; want bare ErrNetwork after 3 calls", err, calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
