package storage

import (
	"context"
	"errors"
	"io"
	"testing"
)

var _ io.Closer = (*GCSStore)(nil)

type closingStore struct {
	closed int
	err    error
}

func (s *closingStore) Store(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	return key, nil
}

func (s *closingStore) Delete(ctx context.Context, key string) error { return nil }

func (s *closingStore) Close() error {
	s.closed++
	return s.err
}

func TestCloseReleasesClosableStores(t *testing.T) {
	store := &closingStore{}
	if err := Close(store); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if store.closed != 1 {
		t.Fatalf("expected one Close call, got %d", store.closed)
	}

	failing := &closingStore{err: errors.New("boom")}
	if err := Close(failing); err == nil || err.Error() != "boom" {
		t.Fatalf("expected the client error, got %v", err)
	}
}

func TestCloseIgnoresStoresWithoutClient(t *testing.T) {
	local, err := NewLocalStore(t.TempDir(), "/media/")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	if err := Close(local); err != nil {
		t.Fatalf("Close on a local store: %v", err)
	}
}
