package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const dayLayout = "2006-01-02"

// RollingWriter appends to <dir>/<base>-YYYY-MM-DD<ext>, switching files at
// local midnight and deleting files older than keepDays.
type RollingWriter struct {
	mu          sync.Mutex
	dir         string
	baseName    string
	ext         string
	keepDays    int
	now         func() time.Time
	currentDay  string
	current     *os.File
	currentPath string
}

// NewRollingWriter opens today's file for basePath. keepDays <= 0 keeps a week.
func NewRollingWriter(basePath string, keepDays int) (*RollingWriter, error) {
	return newRollingWriter(basePath, keepDays, time.Now)
}

func newRollingWriter(basePath string, keepDays int, now func() time.Time) (*RollingWriter, error) {
	if keepDays <= 0 {
		keepDays = 7
	}
	w := &RollingWriter{
		dir:      filepath.Dir(basePath),
		baseName: strings.TrimSuffix(filepath.Base(basePath), filepath.Ext(basePath)),
		ext:      filepath.Ext(basePath),
		keepDays: keepDays,
		now:      now,
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, err
	}
	if err := w.rotateLocked(now()); err != nil {
		return nil, err
	}
	return w, nil
}

// Path returns the file currently written to.
func (w *RollingWriter) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentPath
}

func (w *RollingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.rotateLocked(w.now()); err != nil {
		return 0, err
	}
	if w.current == nil {
		return 0, fmt.Errorf("log file is closed")
	}
	return w.current.Write(p)
}

func (w *RollingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	err := w.current.Close()
	w.current = nil
	return err
}

func (w *RollingWriter) rotateLocked(now time.Time) error {
	day := now.Format(dayLayout)
	if day == w.currentDay && w.current != nil {
		return nil
	}
	if w.current != nil {
		_ = w.current.Close()
		w.current = nil
	}
	path := filepath.Join(w.dir, fmt.Sprintf("%s-%s%s", w.baseName, day, w.ext))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.current = f
	w.currentDay = day
	w.currentPath = path
	w.cleanupLocked(now)
	return nil
}

func (w *RollingWriter) cleanupLocked(now time.Time) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	cutoff, _ := time.Parse(dayLayout, now.AddDate(0, 0, -(w.keepDays - 1)).Format(dayLayout))
	prefix := w.baseName + "-"
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, w.ext) {
			continue
		}
		dayPart := strings.TrimSuffix(strings.TrimPrefix(name, prefix), w.ext)
		fileDay, err := time.Parse(dayLayout, dayPart)
		if err != nil {
			continue
		}
		if fileDay.Before(cutoff) {
			_ = os.Remove(filepath.Join(w.dir, name))
		}
	}
}
