package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tendant/lost-and-found/pkg/lostfound"
	"github.com/tendant/lost-and-found/pkg/lostfound/assetname"
)

// tempPrefix marks in-progress uploads. Entries with this prefix never
// appear in List.
const tempPrefix = ".upload-"

// StaleUploadAge is how old an in-progress upload must be before New treats
// it as abandoned and removes it.
const StaleUploadAge = time.Hour

// Store is a filesystem implementation of the lostfound.AssetStore interface.
// All assets live flat in BaseDir.
type Store struct {
	baseDir string
	maxSize int64
	names   assetname.Generator
}

// Config options for the filesystem store
type Config struct {
	BaseDir   string             // Content directory
	MaxSize   int64              // Upload limit in bytes (default: assetname.DefaultMaxSize)
	Generator assetname.Generator // Filename strategy (default: timestamp + random)
}

// New creates a new filesystem asset store
func New(config Config) (*Store, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	if config.MaxSize <= 0 {
		config.MaxSize = assetname.DefaultMaxSize
	}
	if config.Generator == nil {
		config.Generator = assetname.NewTimestampGenerator()
	}

	store := &Store{
		baseDir: config.BaseDir,
		maxSize: config.MaxSize,
		names:   config.Generator,
	}
	if removed, err := store.SweepUploads(time.Now().Add(-StaleUploadAge)); err != nil {
		slog.Warn("Failed to sweep abandoned uploads", "dir", config.BaseDir, "err", err)
	} else if removed > 0 {
		slog.Info("Removed abandoned uploads", "dir", config.BaseDir, "count", removed)
	}

	return store, nil
}

// SweepUploads removes temp files left by uploads that never finished, such
// as after a crash mid-Accept. Only files last modified at or before cutoff
// are removed so uploads still in flight are left alone.
func (s *Store) SweepUploads(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		err = os.Remove(filepath.Join(s.baseDir, entry.Name()))
		if err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

// BaseDir returns the content directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// Accept writes the upload to a hidden temp file and renames it into place
// once the whole payload is within the limit, so a partial or oversized
// upload is never visible under its final name.
func (s *Store) Accept(ctx context.Context, r io.Reader, originalName string) (string, error) {
	ext, err := assetname.Extension(originalName)
	if err != nil {
		return "", err
	}

	// The directory may have been removed since startup
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create base directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.baseDir, tempPrefix+"*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()

	_, copyErr := io.Copy(tmp, assetname.LimitReader(r, s.maxSize))
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpPath)
		if errors.Is(copyErr, lostfound.ErrAssetTooLarge) {
			return "", lostfound.ErrAssetTooLarge
		}
		if copyErr != nil {
			return "", fmt.Errorf("failed to write file: %w", copyErr)
		}
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := ctx.Err(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}

	name := s.names.GenerateName(ext)
	if err := os.Rename(tmpPath, filepath.Join(s.baseDir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to store file: %w", err)
	}

	return name, nil
}

// Open opens an asset for reading. The returned reader is an *os.File and
// so also implements io.ReadSeeker.
func (s *Store) Open(ctx context.Context, filename string) (io.ReadCloser, *lostfound.AssetInfo, error) {
	if err := assetname.ValidateName(filename); err != nil {
		return nil, nil, lostfound.ErrAssetNotFound
	}

	file, err := os.Open(filepath.Join(s.baseDir, filename))
	if os.IsNotExist(err) {
		return nil, nil, lostfound.ErrAssetNotFound
	} else if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, nil, fmt.Errorf("failed to get file info: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, nil, lostfound.ErrAssetNotFound
	}

	return file, &lostfound.AssetInfo{
		Name:        filename,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(filename)),
		ModTime:     info.ModTime(),
	}, nil
}

// Delete removes an asset. A missing file is logged and ignored.
func (s *Store) Delete(ctx context.Context, filename string) error {
	if err := assetname.ValidateName(filename); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.baseDir, filename))
	if os.IsNotExist(err) {
		slog.Warn("Asset already absent", "image", filename)
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// List returns every asset in the content directory. In-progress uploads
// (hidden temp files) and subdirectories are skipped.
func (s *Store) List(ctx context.Context) ([]lostfound.AssetInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if os.IsNotExist(err) {
		return []lostfound.AssetInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	assets := make([]lostfound.AssetInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		assets = append(assets, lostfound.AssetInfo{
			Name:        entry.Name(),
			Size:        info.Size(),
			ContentType: mime.TypeByExtension(filepath.Ext(entry.Name())),
			ModTime:     info.ModTime(),
		})
	}

	return assets, nil
}
