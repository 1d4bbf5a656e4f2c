package observability

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DailyFileWriter appends to one file per calendar day, named
// log-YYYY-MM-DD.txt, rolling over on the first write of a new day.
// Write errors are swallowed so a full disk never takes the bot down.
type DailyFileWriter struct {
	mu   sync.Mutex
	dir  string
	day  string
	file *os.File

	now func() time.Time
}

// NewDailyFileWriter creates a writer rooted at dir. The directory is
// created lazily on the first write.
func NewDailyFileWriter(dir string) *DailyFileWriter {
	return &DailyFileWriter{dir: dir, now: time.Now}
}

func (w *DailyFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateLocked(); err != nil {
		// Report success so the multi-writer keeps feeding the console
		return len(p), nil
	}

	w.file.Write(p)
	return len(p), nil
}

// Close releases the current file, if any.
func (w *DailyFileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	w.day = ""
	return err
}

func (w *DailyFileWriter) rotateLocked() error {
	day := w.now().Format("2006-01-02")
	if w.file != nil && day == w.day {
		return nil
	}

	if w.file != nil {
		w.file.Close()
		w.file = nil
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(w.dir, fmt.Sprintf("log-%s.txt", day))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	w.file = file
	w.day = day
	return nil
}
