package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"vot-service/internal/model"
	"vot-service/internal/repository"
	"vot-service/internal/storage"
)

// PhotoUpload is one file of a multipart batch.
type PhotoUpload struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// PhotoReceiver is implemented by step inputs that accept photos.
type PhotoReceiver interface {
	SetPhotos(photos []PhotoUpload)
}

type RejectedPhoto struct {
	Index  int    `json:"index"`
	Name   string `json:"nombre"`
	Reason string `json:"motivo"`
}

type PhotoBatchResult struct {
	Accepted []model.WizardPhoto `json:"aceptadas"`
	Rejected []RejectedPhoto     `json:"rechazadas"`
}

// blobTracker remembers blobs written during a transaction so they can be
// removed if the transaction does not commit.
type blobTracker struct {
	store storage.BlobStore
	keys  []string
	log   zerolog.Logger
}

func newBlobTracker(store storage.BlobStore, log zerolog.Logger) *blobTracker {
	return &blobTracker{store: store, log: log}
}

func (t *blobTracker) put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	url, err := t.store.Store(ctx, key, r, contentType)
	if err != nil {
		return "", err
	}
	t.keys = append(t.keys, key)
	return url, nil
}

func (t *blobTracker) discard(ctx context.Context) {
	for _, key := range t.keys {
		if err := t.store.Delete(ctx, key); err != nil {
			t.log.Warn().Err(err).Str("key", key).Msg("failed to remove orphan photo")
		}
	}
	t.keys = nil
}

// photoLedger assigns slots 1..MaxPhotosPerParent. Files that do not fit or are
// too large are rejected one by one; the rest of the batch is kept.
type photoLedger struct {
	photos *repository.PhotoRepository
	blobs  *blobTracker
}

func newPhotoLedger(tx *gorm.DB, blobs *blobTracker) *photoLedger {
	return &photoLedger{photos: repository.NewPhotoRepository(tx), blobs: blobs}
}

func (l *photoLedger) attach(ctx context.Context, parent model.PhotoParent, uploads []PhotoUpload) (*PhotoBatchResult, error) {
	result := &PhotoBatchResult{Accepted: []model.WizardPhoto{}, Rejected: []RejectedPhoto{}}
	if len(uploads) == 0 {
		return result, nil
	}

	existing, err := l.photos.ListByParent(ctx, parent)
	if err != nil {
		return nil, err
	}
	used := make(map[int]bool, len(existing))
	hasPrimary := false
	for _, p := range existing {
		used[p.Position] = true
		hasPrimary = hasPrimary || p.IsPrimary
	}
	var free []int
	for slot := 1; slot <= model.MaxPhotosPerParent; slot++ {
		if !used[slot] {
			free = append(free, slot)
		}
	}

	for i, up := range uploads {
		reject := func(reason string) {
			result.Rejected = append(result.Rejected, RejectedPhoto{Index: i, Name: up.Name, Reason: reason})
		}

		if up.Size > model.MaxPhotoBytes {
			reject(fmt.Sprintf("file exceeds %d bytes", model.MaxPhotoBytes))
			continue
		}
		if len(free) == 0 {
			reject(fmt.Sprintf("photo limit of %d reached", model.MaxPhotosPerParent))
			continue
		}

		data, err := readUpload(up)
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			reject("file is empty")
			continue
		}
		if len(data) > model.MaxPhotoBytes {
			reject(fmt.Sprintf("file exceeds %d bytes", model.MaxPhotoBytes))
			continue
		}

		slot := free[0]
		key := photoKey(parent, slot, up.Name)
		url, err := l.blobs.put(ctx, key, bytes.NewReader(data), up.ContentType)
		if err != nil {
			return nil, fmt.Errorf("store photo: %w", err)
		}

		photo := model.WizardPhoto{
			ParentKind:   parent.Kind,
			ParentID:     parent.ID,
			Position:     slot,
			IsPrimary:    !hasPrimary,
			URL:          url,
			StorageKey:   key,
			OriginalName: up.Name,
			Size:         int64(len(data)),
		}
		if err := l.photos.Create(ctx, &photo); err != nil {
			return nil, err
		}

		free = free[1:]
		hasPrimary = true
		result.Accepted = append(result.Accepted, photo)
	}

	return result, nil
}

func readUpload(up PhotoUpload) ([]byte, error) {
	rc, err := up.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, model.MaxPhotoBytes+1))
}

func photoKey(parent model.PhotoParent, slot int, name string) string {
	return fmt.Sprintf("%s/%s/%d-%s%s", parent.Kind, parent.ID, slot, uuid.NewString(), photoExt(name))
}

func photoExt(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
