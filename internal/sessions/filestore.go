package sessions

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// ErrClosed is returned when appending to a closed session.
var ErrClosed = errors.New("session closed")

// FileStore keeps one directory per session: meta.json plus exchanges.jsonl.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
	now     func() time.Time
}

// NewFileStore creates a FileStore rooted at baseDir. The directory is
// created on the first recorded exchange.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir, now: time.Now}
}

func (fs *FileStore) path(id, name string) string {
	return filepath.Join(fs.baseDir, filepath.Base(id), name)
}

func newSessionID() string {
	return "sess_" + strings.ReplaceAll(uuid.New().String()[:8], "-", "")
}

// RecordExchange implements Store.
func (fs *FileStore) RecordExchange(sessionID string, ex Exchange) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.now()
	var s *Session
	if sessionID == "" {
		s = &Session{
			ID:        newSessionID(),
			Title:     titleFor(ex),
			Status:    SessionActive,
			Kind:      ex.Kind,
			Model:     ex.Model,
			CreatedAt: now,
		}
		if err := os.MkdirAll(filepath.Join(fs.baseDir, s.ID), 0o755); err != nil {
			return "", fmt.Errorf("create session dir: %w", err)
		}
	} else {
		var err error
		if s, err = fs.readMeta(sessionID); err != nil {
			return "", err
		}
		if s.Status == SessionClosed {
			return "", fmt.Errorf("%w: %s", ErrClosed, sessionID)
		}
	}

	s.Exchanges++
	s.ModelTime += ex.Duration
	s.UpdatedAt = now
	s.addMode(ex.Mode)

	if err := fs.appendRecord(s.ID, newRecord(ex, s.Exchanges, now)); err != nil {
		return "", err
	}
	if err := fs.writeMeta(s); err != nil {
		return "", err
	}
	return s.ID, nil
}

// Close marks a session as closed. Closing twice keeps the first timestamp.
func (fs *FileStore) Close(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s, err := fs.readMeta(id)
	if err != nil {
		return err
	}
	if s.Status == SessionClosed {
		return nil
	}

	now := fs.now()
	s.Status = SessionClosed
	s.ClosedAt = &now
	return fs.writeMeta(s)
}

// Get reads session metadata by ID.
func (fs *FileStore) Get(id string) (*Session, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	return fs.readMeta(id)
}

// List returns all sessions, most recently updated first.
func (fs *FileStore) List() ([]*Session, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entries, err := os.ReadDir(fs.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list sessions dir: %w", err)
	}

	var list []*Session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		s, err := fs.readMeta(entry.Name())
		if err != nil {
			slog.Debug("skipping unreadable session", "dir", entry.Name(), "error", err)
			continue
		}
		list = append(list, s)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

// Exchanges reads the records of a session in order.
func (fs *FileStore) Exchanges(id string) ([]Record, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if _, err := fs.readMeta(id); err != nil {
		return nil, err
	}

	f, err := os.Open(fs.path(id, "exchanges.jsonl"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open exchanges: %w", err)
	}
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	// Replies can be long; allow lines up to 4 MiB.
	scanner.Buffer(make([]byte, 64*1024), 4<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			continue // torn write
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan exchanges: %w", err)
	}
	return records, nil
}

func (fs *FileStore) appendRecord(id string, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}
	f, err := os.OpenFile(fs.path(id, "exchanges.jsonl"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open exchanges: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write exchange: %w", err)
	}
	return nil
}

// writeMeta replaces meta.json through a temp file and rename.
func (fs *FileStore) writeMeta(s *Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	path := fs.path(s.ID, "meta.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write meta: %w", err)
	}
	return os.Rename(tmp, path)
}

func (fs *FileStore) readMeta(id string) (*Session, error) {
	data, err := os.ReadFile(fs.path(id, "meta.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("read meta: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode meta %s: %w", id, err)
	}
	return &s, nil
}

var _ Store = (*FileStore)(nil)
