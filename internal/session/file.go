// Copyright (c) 2025 tgram-dev

package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// FileStore persists all sessions in one JSON file, keyed by conversation
// identity. The file is re-read only when its modtime changed, so a store
// shared between processes picks up external edits without rereading on
// every Get.
type FileStore struct {
	mu         sync.Mutex
	path       string
	cached     map[string]Data
	lastEdited time.Time
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(key string) (Data, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, false, err
	}
	d, ok := s.cached[key]
	return d, ok, nil
}

func (s *FileStore) Set(key string, d Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	if s.cached == nil {
		s.cached = make(map[string]Data)
	}
	s.cached[key] = d
	return s.flush()
}

// Delete removes one session and rewrites the file.
func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return err
	}
	delete(s.cached, key)
	return s.flush()
}

func (s *FileStore) load() error {
	info, err := os.Stat(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			if s.cached == nil {
				s.cached = make(map[string]Data)
			}
			return nil
		}
		return errors.Wrap(err, "stat session file")
	}

	if info.ModTime().Equal(s.lastEdited) && s.cached != nil {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return errors.Wrap(err, "reading session file")
	}

	parsed := make(map[string]Data)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return errors.Wrap(err, "parsing session file")
		}
	}

	s.cached = parsed
	s.lastEdited = info.ModTime()
	return nil
}

func (s *FileStore) flush() error {
	dir, _ := filepath.Split(s.path)
	if dir != "" {
		if stat, err := os.Stat(dir); err != nil {
			return errors.Errorf("%v: directory not found", dir)
		} else if !stat.IsDir() {
			return errors.Errorf("%v: not a directory", dir)
		}
	}

	raw, err := json.Marshal(s.cached)
	if err != nil {
		return errors.Wrap(err, "encoding sessions")
	}
	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return errors.Wrap(err, "writing session file")
	}

	if info, err := os.Stat(s.path); err == nil {
		s.lastEdited = info.ModTime()
	}
	return nil
}
