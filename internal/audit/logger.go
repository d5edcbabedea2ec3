// Package audit keeps a local JSON-lines record of state-changing actions
// (user review, approve and reject, architect updates) so an operator can
// see what was sent from this machine and when.
package audit

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultFile is the audit file name inside ~/.adminctl.
	DefaultFile = "audit.jsonl"

	defaultMaxFileSize = 10 * 1024 * 1024
	defaultMaxFiles    = 5
)

// Config contains logger configuration.
type Config struct {
	// Path is the active audit file. Rotated files sit next to it.
	Path string

	// MaxFileSize is the size that triggers rotation (default 10MB).
	MaxFileSize int64

	// MaxFiles is the number of rotated files kept (default 5).
	MaxFiles int

	// Enabled controls whether events are written.
	Enabled bool
}

// DefaultPath returns ~/.adminctl/audit.jsonl.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".adminctl", DefaultFile), nil
}

// Logger appends events to the audit file. The file is opened on the first
// write, so commands that never log an event leave no file behind.
type Logger struct {
	path        string
	maxFileSize int64
	maxFiles    int
	enabled     bool

	mu     sync.Mutex
	file   *os.File
	events []*Event
	now    func() time.Time
}

// NewLogger creates a logger. A disabled logger only keeps events in memory.
func NewLogger(cfg Config) (*Logger, error) {
	if cfg.Enabled && cfg.Path == "" {
		return nil, fmt.Errorf("audit path is required when auditing is enabled")
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = defaultMaxFiles
	}

	return &Logger{
		path:        cfg.Path,
		maxFileSize: cfg.MaxFileSize,
		maxFiles:    cfg.MaxFiles,
		enabled:     cfg.Enabled,
		now:         time.Now,
	}, nil
}

// Log appends one event.
func (l *Logger) Log(event *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	if !l.enabled {
		return nil
	}

	if err := l.open(); err != nil {
		return err
	}
	if err := l.checkRotation(); err != nil {
		return fmt.Errorf("audit rotation failed: %w", err)
	}

	line, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}
	if _, err := fmt.Fprintf(l.file, "%s\n", line); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return l.file.Sync()
}

func (l *Logger) open() error {
	if l.file != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit file: %w", err)
	}
	l.file = f
	return nil
}

func (l *Logger) checkRotation() error {
	info, err := l.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() < l.maxFileSize {
		return nil
	}
	return l.rotate()
}

// rotate renames the active file to <name>-<timestamp><ext> and prunes old
// rotations beyond maxFiles.
func (l *Logger) rotate() error {
	if err := l.file.Close(); err != nil {
		return err
	}
	l.file = nil

	if err := os.Rename(l.path, l.rotatedPath(l.now())); err != nil {
		return err
	}
	if err := l.cleanupOldFiles(); err != nil {
		return err
	}
	return l.open()
}

func (l *Logger) rotatedPath(t time.Time) string {
	ext := filepath.Ext(l.path)
	base := l.path[:len(l.path)-len(ext)]
	return fmt.Sprintf("%s-%s%s", base, t.UTC().Format("20060102T150405.000000000"), ext)
}

func (l *Logger) rotatedFiles() ([]string, error) {
	ext := filepath.Ext(l.path)
	base := l.path[:len(l.path)-len(ext)]
	files, err := filepath.Glob(base + "-*" + ext)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func (l *Logger) cleanupOldFiles() error {
	files, err := l.rotatedFiles()
	if err != nil {
		return err
	}
	for i := 0; i < len(files)-l.maxFiles; i++ {
		if err := os.Remove(files[i]); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes and closes the audit file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Path returns the active audit file, or "" when disabled.
func (l *Logger) Path() string {
	if !l.enabled {
		return ""
	}
	return l.path
}

// Events returns a copy of the events logged by this process.
func (l *Logger) Events() []*Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := make([]*Event, len(l.events))
	copy(events, l.events)
	return events
}

// ReadFile parses an audit file. Lines that are not events are skipped.
// A missing file yields no events.
func ReadFile(path string) ([]*Event, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}
	defer f.Close()

	var events []*Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event, err := FromJSON(line)
		if err != nil || event.ID == "" {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("failed to read audit file: %w", err)
	}
	return events, nil
}
