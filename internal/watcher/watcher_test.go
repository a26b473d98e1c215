package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestSnapshotsEqual(t *testing.T) {
	now := time.Now()

	a := map[string]fileSnapshot{
		"app.py":  {modTime: now, size: 100},
		"util.py": {modTime: now, size: 200},
	}
	b := map[string]fileSnapshot{
		"app.py":  {modTime: now, size: 100},
		"util.py": {modTime: now, size: 200},
	}
	if !snapshotsEqual(a, b) {
		t.Error("identical snapshots should be equal")
	}

	// Different size
	c := map[string]fileSnapshot{
		"app.py":  {modTime: now, size: 101},
		"util.py": {modTime: now, size: 200},
	}
	if snapshotsEqual(a, c) {
		t.Error("different size should not be equal")
	}

	// Different mtime
	d := map[string]fileSnapshot{
		"app.py":  {modTime: now.Add(time.Second), size: 100},
		"util.py": {modTime: now, size: 200},
	}
	if snapshotsEqual(a, d) {
		t.Error("different mtime should not be equal")
	}

	// Missing file
	e := map[string]fileSnapshot{
		"app.py": {modTime: now, size: 100},
	}
	if snapshotsEqual(a, e) {
		t.Error("different file count should not be equal")
	}

	// Extra file
	f := map[string]fileSnapshot{
		"app.py":  {modTime: now, size: 100},
		"util.py": {modTime: now, size: 200},
		"new.py":  {modTime: now, size: 50},
	}
	if snapshotsEqual(a, f) {
		t.Error("extra file should not be equal")
	}

	// Both empty
	if !snapshotsEqual(map[string]fileSnapshot{}, map[string]fileSnapshot{}) {
		t.Error("both empty should be equal")
	}
}

func TestPollInterval(t *testing.T) {
	tests := []struct {
		files    int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{70, 1 * time.Second},
		{499, 1 * time.Second},
		{500, 2 * time.Second},
		{2000, 5 * time.Second},
		{5000, 11 * time.Second},
		{10000, 21 * time.Second},
		{50000, 60 * time.Second},
		{100000, 60 * time.Second},
	}
	for _, tt := range tests {
		got := pollInterval(tt.files)
		if got != tt.expected {
			t.Errorf("pollInterval(%d) = %v, want %v", tt.files, got, tt.expected)
		}
	}
}

func TestCaptureSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "app.py"), []byte("app = None\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	snap, err := captureSnapshot(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	if len(snap) != 1 {
		t.Fatalf("expected 1 file, got %d", len(snap))
	}

	s, ok := snap["app.py"]
	if !ok {
		t.Fatal("expected app.py in snapshot")
	}
	if s.size == 0 {
		t.Error("expected non-zero size")
	}
	if s.modTime.IsZero() {
		t.Error("expected non-zero modtime")
	}
}

func TestCaptureSnapshotDetectsChanges(t *testing.T) {
	tmpDir := t.TempDir()
	pyFile := filepath.Join(tmpDir, "app.py")
	if err := os.WriteFile(pyFile, []byte("app = None\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	snap1, err := captureSnapshot(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	// Ensure mtime advances (some filesystems have 1s granularity)
	time.Sleep(10 * time.Millisecond)
	now := time.Now().Add(time.Second)
	if err := os.Chtimes(pyFile, now, now); err != nil {
		t.Fatal(err)
	}

	snap2, err := captureSnapshot(context.Background(), tmpDir)
	if err != nil {
		t.Fatal(err)
	}

	if snapshotsEqual(snap1, snap2) {
		t.Error("snapshots should differ after mtime change")
	}
}

func TestWatcherTriggersOnChange(t *testing.T) {
	tmpDir := t.TempDir()
	pyFile := filepath.Join(tmpDir, "app.py")
	if err := os.WriteFile(pyFile, []byte("app = None\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var analyzeCount atomic.Int32
	w := New(tmpDir, func(context.Context, string) error {
		analyzeCount.Add(1)
		return nil
	})

	ctx := context.Background()

	// First poll — baseline capture, no analysis
	w.poll(ctx)
	if analyzeCount.Load() != 0 {
		t.Errorf("first poll should not trigger analysis, got %d", analyzeCount.Load())
	}

	// Poll again without changes — no analysis
	w.nextPoll = time.Time{}
	w.poll(ctx)
	if analyzeCount.Load() != 0 {
		t.Errorf("no-change poll should not trigger analysis, got %d", analyzeCount.Load())
	}

	// Modify the file
	now := time.Now().Add(time.Second)
	if err := os.Chtimes(pyFile, now, now); err != nil {
		t.Fatal(err)
	}

	w.nextPoll = time.Time{}
	w.poll(ctx)
	if analyzeCount.Load() != 1 {
		t.Errorf("changed file should trigger analysis, got %d", analyzeCount.Load())
	}
}

func TestWatcherRetriesAfterAnalyzeError(t *testing.T) {
	tmpDir := t.TempDir()
	pyFile := filepath.Join(tmpDir, "app.py")
	if err := os.WriteFile(pyFile, []byte("app = None\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var analyzeCount atomic.Int32
	var failFirst atomic.Bool
	failFirst.Store(true)
	w := New(tmpDir, func(context.Context, string) error {
		analyzeCount.Add(1)
		if failFirst.Load() {
			failFirst.Store(false)
			return errors.New("boom")
		}
		return nil
	})

	ctx := context.Background()

	// Baseline
	w.poll(ctx)

	now := time.Now().Add(time.Second)
	if err := os.Chtimes(pyFile, now, now); err != nil {
		t.Fatal(err)
	}

	// Failing analysis keeps the old snapshot, so the change is still
	// pending on the next cycle.
	w.nextPoll = time.Time{}
	w.poll(ctx)
	if analyzeCount.Load() != 1 {
		t.Fatalf("expected 1 analysis attempt, got %d", analyzeCount.Load())
	}

	w.nextPoll = time.Time{}
	w.poll(ctx)
	if analyzeCount.Load() != 2 {
		t.Errorf("expected retry after failed analysis, got %d", analyzeCount.Load())
	}

	// Snapshot updated now, so a further poll stays quiet
	w.nextPoll = time.Time{}
	w.poll(ctx)
	if analyzeCount.Load() != 2 {
		t.Errorf("no-change poll after success should not trigger, got %d", analyzeCount.Load())
	}
}

func TestWatcherCancellation(t *testing.T) {
	w := New(t.TempDir(), func(context.Context, string) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
		// OK — goroutine exited cleanly
	case <-time.After(3 * time.Second):
		t.Fatal("watcher did not stop after context cancellation")
	}
}

func TestWatcherSkipsMissingRoot(t *testing.T) {
	var analyzeCount atomic.Int32
	w := New("/nonexistent/path", func(context.Context, string) error {
		analyzeCount.Add(1)
		return nil
	})

	w.poll(context.Background())
	if analyzeCount.Load() != 0 {
		t.Errorf("should not analyze missing root, got %d", analyzeCount.Load())
	}
}

func TestWatcherNewFileTriggersAnalysis(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "app.py"), []byte("app = None\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var analyzeCount atomic.Int32
	w := New(tmpDir, func(context.Context, string) error {
		analyzeCount.Add(1)
		return nil
	})

	ctx := context.Background()

	// Baseline
	w.poll(ctx)

	// Add a new file
	if err := os.WriteFile(filepath.Join(tmpDir, "util.py"), []byte("x = 1\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	w.nextPoll = time.Time{}
	w.poll(ctx)
	if analyzeCount.Load() != 1 {
		t.Errorf("new file should trigger analysis, got %d", analyzeCount.Load())
	}
}
