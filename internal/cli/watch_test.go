package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/flowsketch/pkg/render/mermaid"
)

// syncBuffer is a bytes.Buffer safe for one writer and one polling reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatchFileDebounces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.txt")
	writeFile(t, path, "A")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func(s string) {
			mu.Lock()
			got = append(got, s)
			mu.Unlock()
		})
	}()
	time.Sleep(100 * time.Millisecond)

	for _, s := range []string{"A -> B", "A -> C", "A -> D"} {
		writeFile(t, path, s)
	}
	eventually(t, "reload", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1] == "A -> D"
	})

	cancel()
	if err := <-done; err != nil {
		t.Errorf("watchFile() = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) > 2 {
		t.Errorf("burst of 3 writes produced %d reloads: %q", len(got), got)
	}
}

func TestWatchFileIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "g.txt")
	writeFile(t, path, "A")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 4)
	go watchFile(ctx, path, func(s string) { calls <- s })
	time.Sleep(100 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "other.txt"), "X -> Y")
	select {
	case s := <-calls:
		t.Errorf("sibling write triggered reload with %q", s)
	case <-time.After(3 * watchDebounce):
	}
}

func TestRunWatch(t *testing.T) {
	isolate(t)
	captureUI(t)

	path := filepath.Join(t.TempDir(), "g.txt")
	writeFile(t, path, "A -> B")

	c := New(io.Discard, LogInfo)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	done := make(chan error, 1)
	go func() {
		done <- c.runWatch(withLogger(ctx, c.Logger), path, &out, watchOpts{disabled: []string{"Z"}})
	}()

	eventually(t, "initial render", func() bool { return strings.Contains(out.String(), mermaid.NodeID("B")) })
	time.Sleep(100 * time.Millisecond)

	writeFile(t, path, "A -> Z\nA -> C")
	eventually(t, "re-render", func() bool { return strings.Contains(out.String(), mermaid.NodeID("C")) })
	if strings.Contains(out.String(), mermaid.NodeID("Z")) {
		t.Errorf("disabled vertex Z rendered:\n%s", out.String())
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("runWatch() = %v", err)
	}
}

func TestRunWatchToFile(t *testing.T) {
	isolate(t)
	captureUI(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "g.txt")
	writeFile(t, path, "A -> B")
	outPath := filepath.Join(dir, "g.js")

	c := New(io.Discard, LogInfo)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.runWatch(ctx, path, io.Discard, watchOpts{output: outPath, script: true})
	}()

	eventually(t, "output file", func() bool {
		data, _ := os.ReadFile(outPath)
		return strings.HasPrefix(string(data), mermaid.RenderFunc+"(`")
	})
	cancel()
	<-done
}

func TestFileSinkError(t *testing.T) {
	sink := fileSink(filepath.Join(t.TempDir(), "missing", "out.mmd"), false)
	if err := sink.Render(context.Background(), mermaid.NoGraph); err == nil {
		t.Error("writing into a missing directory should fail")
	}
}
