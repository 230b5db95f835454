package memory

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"sync"
	"time"

	"github.com/tendant/lost-and-found/pkg/lostfound"
	"github.com/tendant/lost-and-found/pkg/lostfound/assetname"
)

type asset struct {
	data    []byte
	modTime time.Time
}

// Store is an in-memory implementation of the lostfound.AssetStore interface
type Store struct {
	mu      sync.RWMutex
	assets  map[string]asset
	maxSize int64
	names   assetname.Generator
	now     func() time.Time
}

// New creates a new in-memory asset store
func New() *Store {
	return &Store{
		assets:  make(map[string]asset),
		maxSize: assetname.DefaultMaxSize,
		names:   assetname.NewTimestampGenerator(),
		now:     time.Now,
	}
}

// WithMaxSize sets the upload limit.
func (s *Store) WithMaxSize(limit int64) *Store {
	s.maxSize = limit
	return s
}

// Put stores data under an explicit name, bypassing policy. Used to seed
// fixtures such as orphaned files.
func (s *Store) Put(name string, data []byte, modTime time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[name] = asset{data: append([]byte(nil), data...), modTime: modTime}
}

// Has reports whether an asset exists.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.assets[name]
	return ok
}

// Len returns the number of stored assets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.assets)
}

func (s *Store) Accept(ctx context.Context, r io.Reader, originalName string) (string, error) {
	ext, err := assetname.Extension(originalName)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(assetname.LimitReader(r, s.maxSize))
	if err != nil {
		return "", err
	}

	name := s.names.GenerateName(ext)
	s.Put(name, data, s.now())
	return name, nil
}

func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, *lostfound.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[filename]
	if !ok {
		return nil, nil, lostfound.ErrAssetNotFound
	}

	return io.NopCloser(bytes.NewReader(a.data)), &lostfound.AssetInfo{
		Name:        filename,
		Size:        int64(len(a.data)),
		ContentType: mime.TypeByExtension(filepath.Ext(filename)),
		ModTime:     a.modTime,
	}, nil
}

func (s *Store) Delete(ctx context.Context, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[filename]; !ok {
		slog.Warn("Asset already absent", "image", filename)
		return nil
	}
	delete(s.assets, filename)
	return nil
}

func (s *Store) List(ctx context.Context) ([]lostfound.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]lostfound.AssetInfo, 0, len(s.assets))
	for name, a := range s.assets {
		result = append(result, lostfound.AssetInfo{
			Name:        name,
			Size:        int64(len(a.data)),
			ContentType: mime.TypeByExtension(filepath.Ext(name)),
			ModTime:     a.modTime,
		})
	}
	return result, nil
}
