package assetname

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/tendant/lost-and-found/pkg/lostfound"
)

// DefaultMaxSize is the upload limit applied when a store is configured without one.
const DefaultMaxSize int64 = 5 << 20

// AllowedExtensions are the accepted image extensions, lowercase and without the dot.
var AllowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

// Extension returns the lowercased extension of originalName, or
// ErrInvalidAssetType if it is not an allowed image type.
func Extension(originalName string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !AllowedExtensions[ext] {
		return "", lostfound.ErrInvalidAssetType
	}
	return ext, nil
}

// ValidateName rejects names that are empty, hidden, or could resolve
// outside a flat content directory.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return lostfound.ErrInvalidAssetName
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return lostfound.ErrInvalidAssetName
	}
	return nil
}

// SizeGuard passes reads through until more than Limit bytes have been
// read, then fails with ErrAssetTooLarge.
type SizeGuard struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

// LimitReader wraps r with a SizeGuard. A non-positive limit means DefaultMaxSize.
func LimitReader(r io.Reader, limit int64) *SizeGuard {
	if limit <= 0 {
		limit = DefaultMaxSize
	}
	return &SizeGuard{r: r, remaining: limit}
}

func (g *SizeGuard) Read(p []byte) (int, error) {
	if g.exceeded {
		return 0, lostfound.ErrAssetTooLarge
	}
	// Read at most one byte past the limit, enough to detect overflow.
	if int64(len(p)) > g.remaining+1 {
		p = p[:g.remaining+1]
	}
	n, err := g.r.Read(p)
	g.remaining -= int64(n)
	if g.remaining < 0 {
		g.exceeded = true
		return n, lostfound.ErrAssetTooLarge
	}
	return n, err
}

// Exceeded reports whether the limit was crossed.
func (g *SizeGuard) Exceeded() bool {
	return g.exceeded
}
