package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDailyFileWriter_AppendsToDatedFile(t *testing.T) {
	dir := t.TempDir()

	w := NewDailyFileWriter(dir)
	w.now = func() time.Time {
		return time.Date(2023, 4, 12, 10, 0, 0, 0, time.UTC)
	}
	defer w.Close()

	w.Write([]byte("first line\n"))
	w.Write([]byte("second line\n"))

	data, err := os.ReadFile(filepath.Join(dir, "log-2023-04-12.txt"))
	if err != nil {
		t.Fatalf("Expected dated log file, got %v", err)
	}
	if string(data) != "first line\nsecond line\n" {
		t.Errorf("Expected appended lines in order, got %q", data)
	}
}

func TestDailyFileWriter_RollsOverAtMidnight(t *testing.T) {
	dir := t.TempDir()

	current := time.Date(2023, 4, 12, 23, 59, 0, 0, time.UTC)
	w := NewDailyFileWriter(dir)
	w.now = func() time.Time { return current }
	defer w.Close()

	w.Write([]byte("before midnight\n"))
	current = current.Add(2 * time.Minute)
	w.Write([]byte("after midnight\n"))

	before, err := os.ReadFile(filepath.Join(dir, "log-2023-04-12.txt"))
	if err != nil {
		t.Fatalf("Expected first day's file, got %v", err)
	}
	if !strings.Contains(string(before), "before midnight") {
		t.Errorf("Expected first day's entry, got %q", before)
	}

	after, err := os.ReadFile(filepath.Join(dir, "log-2023-04-13.txt"))
	if err != nil {
		t.Fatalf("Expected second day's file, got %v", err)
	}
	if !strings.Contains(string(after), "after midnight") {
		t.Errorf("Expected second day's entry, got %q", after)
	}
}

func TestDailyFileWriter_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")

	w := NewDailyFileWriter(dir)
	defer w.Close()

	if n, err := w.Write([]byte("entry\n")); err != nil || n != 6 {
		t.Errorf("Expected full write, got n=%d err=%v", n, err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected log directory to be created, got %v", err)
	}
}

func TestDailyFileWriter_SwallowsOpenFailure(t *testing.T) {
	// A file where the directory should be makes MkdirAll fail
	base := t.TempDir()
	blocker := filepath.Join(base, "blocked")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewDailyFileWriter(filepath.Join(blocker, "logs"))
	defer w.Close()

	if n, err := w.Write([]byte("entry\n")); err != nil || n != 6 {
		t.Errorf("Expected write to report success, got n=%d err=%v", n, err)
	}
}
