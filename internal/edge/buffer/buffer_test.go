// FilePath: internal/edge/buffer/buffer_test.go
package buffer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestBuffer(t *testing.T, maxRecords int) (*Buffer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "offline_buffer.jsonl")
	return New(path, maxRecords), path
}

func fileLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read buffer file: %v", err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestAppendAndHasPending(t *testing.T) {
	b, path := newTestBuffer(t, 0)

	if b.HasPending() {
		t.Error("fresh buffer should have nothing pending")
	}

	b.Append([]byte(`{"seq":1}`))
	b.Append([]byte(`{"seq":2}`))

	if !b.HasPending() {
		t.Fatal("buffer with records should report pending")
	}
	if got := fileLines(t, path); len(got) != 2 {
		t.Errorf("expected 2 lines on disk, got %d", len(got))
	}
}

func TestDrainStopsAtFirstFailureWithoutPartialTruncation(t *testing.T) {
	b, path := newTestBuffer(t, 0)
	b.Append([]byte(`{"seq":1}`))
	b.Append([]byte(`{"seq":2}`))
	b.Append([]byte(`{"seq":3}`))

	calls := 0
	ok := b.Drain(func(payload []byte) bool {
		calls++
		return calls != 2 // second publish fails
	}, nil)

	if ok {
		t.Fatal("drain should report failure")
	}
	if calls != 2 {
		t.Errorf("drain should stop at the first failure, made %d calls", calls)
	}

	// All three records stay on disk, including the one already published.
	lines := fileLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected all 3 records intact, got %d", len(lines))
	}

	// A later fully successful pass republishes everything and removes the file.
	calls = 0
	if !b.Drain(func(payload []byte) bool { calls++; return true }, nil) {
		t.Fatal("full drain should succeed")
	}
	if calls != 3 {
		t.Errorf("full drain should republish all 3 records, published %d", calls)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("buffer file should be removed after a fully successful pass")
	}
	if b.HasPending() {
		t.Error("no data should remain pending")
	}
}

func TestEmptyFileRemovedEagerly(t *testing.T) {
	b, path := newTestBuffer(t, 0)
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if b.HasPending() {
		t.Error("zero-length file must not count as pending")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("zero-length file should have been removed")
	}
}

func TestRecordCapEvictsOldestFirst(t *testing.T) {
	b, path := newTestBuffer(t, 3)
	b.Append([]byte(`{"seq":1}`))
	b.Append([]byte(`{"seq":2}`))
	b.Append([]byte(`{"seq":3}`))
	b.Append([]byte(`{"seq":4}`))

	lines := fileLines(t, path)
	if len(lines) != 3 {
		t.Fatalf("expected cap of 3 records, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"seq":2`) || !strings.Contains(lines[2], `"seq":4`) {
		t.Errorf("expected oldest record evicted, kept: %v", lines)
	}
	if b.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", b.Dropped())
	}
}

func TestDrainYieldsPeriodically(t *testing.T) {
	b, _ := newTestBuffer(t, 0)
	for i := 0; i < 60; i++ {
		b.Append([]byte(`{"seq":1}`))
	}

	yields := 0
	ok := b.Drain(func(payload []byte) bool { return true }, func() { yields++ })
	if !ok {
		t.Fatal("drain should succeed")
	}
	if yields != 2 {
		t.Errorf("expected 2 yields over 60 records, got %d", yields)
	}
}
