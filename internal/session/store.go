// Copyright (c) 2025 tgram-dev

// Package session provides reference key-value stores for per-conversation
// bot state. Both stores satisfy the telegram.SessionStore contract; anything
// else (redis, sql, s3) can be plugged in by implementing the same two
// methods.
package session

import "sync"

// Data is one conversation's state blob.
type Data = map[string]any

// MemoryStore keeps sessions in process memory. Concurrent access to
// distinct keys is safe; overlapping writes to the same key are
// last-write-wins.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Data
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Data)}
}

func (s *MemoryStore) Get(key string) (Data, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return d, true, nil
}

func (s *MemoryStore) Set(key string, d Data) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = d
	return nil
}

// Len reports the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
