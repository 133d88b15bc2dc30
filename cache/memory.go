package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a size-bounded in-process cache with a fixed entry lifetime
type Memory struct {
	lru *expirable.LRU[string, Entry]
}

// NewMemory creates a cache holding at most size entries for ttl each
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, Entry](size, nil, ttl)}
}

// Get implements the Cache interface
func (m *Memory) Get(key string) (Entry, bool) {
	return m.lru.Get(key)
}

// Set implements the Cache interface
func (m *Memory) Set(key string, entry Entry) {
	m.lru.Add(key, entry)
}

// Len returns the number of live entries
func (m *Memory) Len() int {
	return m.lru.Len()
}
