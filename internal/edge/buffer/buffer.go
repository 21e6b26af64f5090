// FilePath: internal/edge/buffer/buffer.go

// Package buffer is the edge device's durable fallback queue: one serialized
// payload per line, appended when the broker is unreachable, drained in FIFO
// order once the session is back. Truncation only happens after a fully
// successful pass, trading duplicate delivery for guaranteed no-loss.
package buffer

import (
	"bufio"
	"os"
	"strings"

	nuts "github.com/vaudience/go-nuts"
)

// yieldEvery bounds how many records are published between yield calls so
// a long drain cannot starve the transport keep-alive.
const yieldEvery = 25

// Buffer is an append-only line file with a record cap. It is owned by the
// single-threaded edge scheduler and is not safe for concurrent use.
type Buffer struct {
	path       string
	maxRecords int
	count      int
	counted    bool
	dropped    int64
}

func New(path string, maxRecords int) *Buffer {
	return &Buffer{
		path:       path,
		maxRecords: maxRecords,
	}
}

// Append stores one serialized payload. If local storage is unavailable the
// payload is dropped and counted; there is no second-level buffering. When
// the record cap is reached the oldest records are evicted first, so the
// buffer holds the most recent window of unsent data.
func (b *Buffer) Append(payload []byte) {
	if b.maxRecords > 0 && b.recordCount() >= b.maxRecords {
		b.evictOldest(b.recordCount() - b.maxRecords + 1)
	}

	f, err := os.OpenFile(b.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		b.dropped++
		nuts.L.Errorf("[Buffer] Storage unavailable, dropping payload: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(payload, '\n')); err != nil {
		b.dropped++
		nuts.L.Errorf("[Buffer] Failed to append payload: %v", err)
		return
	}
	b.count++
	b.counted = true
}

// HasPending reports whether undrained data exists. A zero-length file is
// removed eagerly so file presence stays a reliable signal.
func (b *Buffer) HasPending() bool {
	info, err := os.Stat(b.path)
	if err != nil {
		return false
	}
	if info.Size() == 0 {
		os.Remove(b.path)
		b.count = 0
		b.counted = true
		return false
	}
	return true
}

// Drain republishes the buffer front-to-back through publish, calling yield
// between batches. It stops at the first publish failure and leaves the file
// untouched, including records that already went out: the whole file is
// reread on the next pass. Only a complete pass removes the file, which acts
// as the atomic all-published checkpoint.
func (b *Buffer) Drain(publish func(payload []byte) bool, yield func()) bool {
	if !b.HasPending() {
		return true
	}

	f, err := os.Open(b.path)
	if err != nil {
		nuts.L.Errorf("[Buffer] Failed to open buffer for drain: %v", err)
		return false
	}

	scanner := bufio.NewScanner(f)
	sent := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !publish([]byte(line)) {
			f.Close()
			nuts.L.Warnf("[Buffer] Drain aborted after %d records, keeping file intact", sent)
			return false
		}
		sent++
		if yield != nil && sent%yieldEvery == 0 {
			yield()
		}
	}
	scanErr := scanner.Err()
	f.Close()

	if scanErr != nil {
		nuts.L.Errorf("[Buffer] Drain read error, keeping file intact: %v", scanErr)
		return false
	}

	if err := os.Remove(b.path); err != nil {
		nuts.L.Errorf("[Buffer] Failed to remove drained buffer: %v", err)
		return false
	}
	b.count = 0
	b.counted = true
	nuts.L.Infof("[Buffer] Drained %d buffered records", sent)
	return true
}

// Dropped reports how many payloads were lost to storage failure or cap
// eviction since startup.
func (b *Buffer) Dropped() int64 {
	return b.dropped
}

func (b *Buffer) recordCount() int {
	if b.counted {
		return b.count
	}
	lines, err := b.readLines()
	if err != nil {
		return 0
	}
	b.count = len(lines)
	b.counted = true
	return b.count
}

func (b *Buffer) evictOldest(n int) {
	lines, err := b.readLines()
	if err != nil || n <= 0 {
		return
	}
	if n > len(lines) {
		n = len(lines)
	}

	remaining := lines[n:]
	tmp := b.path + ".tmp"
	data := ""
	if len(remaining) > 0 {
		data = strings.Join(remaining, "\n") + "\n"
	}
	if err := os.WriteFile(tmp, []byte(data), 0o644); err != nil {
		nuts.L.Errorf("[Buffer] Failed to write eviction file: %v", err)
		return
	}
	if err := os.Rename(tmp, b.path); err != nil {
		nuts.L.Errorf("[Buffer] Failed to swap eviction file: %v", err)
		os.Remove(tmp)
		return
	}

	b.dropped += int64(n)
	b.count = len(remaining)
	b.counted = true
	nuts.L.Warnf("[Buffer] Record cap reached, evicted %d oldest records (%d dropped total)", n, b.dropped)
}

func (b *Buffer) readLines() ([]string, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
