package database

import (
	"context"
	"encoding/json"
	"maps"
	"slices"
	"sync"
)

// MemoryStore - хранилище коллекций без долговременного сохранения.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]json.RawMessage
	saves       map[string]int
	failWith    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]json.RawMessage),
		saves:       make(map[string]int),
	}
}

func (s *MemoryStore) LoadCollection(_ context.Context, name string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneRecords(s.collections[name]), nil
}

func (s *MemoryStore) SaveCollection(_ context.Context, name string, records map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return s.failWith
	}
	s.collections[name] = cloneRecords(records)
	s.saves[name]++
	return nil
}

// Saves возвращает число сохранений коллекции.
func (s *MemoryStore) Saves(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saves[name]
}

// Keys возвращает отсортированные ключи сохраненной коллекции.
func (s *MemoryStore) Keys(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.collections[name]))
}

// FailSaves заставляет последующие сохранения возвращать ошибку; nil снимает сбой.
func (s *MemoryStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failWith = err
}

func cloneRecords(in map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}
