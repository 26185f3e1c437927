package cli

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowsketch/pkg/cache"
)

func TestCachePath(t *testing.T) {
	_, cacheHome := isolate(t)
	_, out, err := execute(t, "", "cache", "path")
	if err != nil {
		t.Fatalf("cache path: %v", err)
	}
	if want := filepath.Join(cacheHome, appName); strings.TrimSpace(out) != want {
		t.Errorf("cache path = %q, want %q", out, want)
	}
}

func TestCacheClear(t *testing.T) {
	_, cacheHome := isolate(t)
	ui := captureUI(t)

	fc, err := cache.NewFileCache(filepath.Join(cacheHome, appName))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for _, k := range []string{"a", "b"} {
		if err := fc.Set(ctx, cache.Key(cache.KindSVG, k), []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	if _, _, err := execute(t, "", "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(ui.String(), "Cleared 2 cached entries") {
		t.Errorf("output = %q", ui.String())
	}
	if _, ok, _ := fc.Get(ctx, cache.Key(cache.KindSVG, "a")); ok {
		t.Error("entry survived cache clear")
	}
}

func TestCacheClearEmpty(t *testing.T) {
	isolate(t)
	ui := captureUI(t)
	if _, _, err := execute(t, "", "cache", "clear"); err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	if !strings.Contains(ui.String(), "Cache is empty") {
		t.Errorf("output = %q", ui.String())
	}
}
