package testutil

import (
	"context"
	"errors"
	"io"
	"sync"
)

var ErrBlobStoreDown = errors.New("blob store unavailable")

// MemoryBlobStore keeps blobs in memory. Setting Fail makes every Store call
// fail.
type MemoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	Fail    bool
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: map[string][]byte{}}
}

func (s *MemoryBlobStore) Store(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return "", ErrBlobStoreDown
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[key] = data
	return "https://blobs.test/" + key, nil
}

func (s *MemoryBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryBlobStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *MemoryBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
