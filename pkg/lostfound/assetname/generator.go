package assetname

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Generator defines the interface for asset filename generation strategies
type Generator interface {
	// GenerateName creates a filename for an asset with the given
	// (already normalized) extension.
	GenerateName(ext string) string
}

// TimestampGenerator produces <unix-millis>-<random>.<ext> names. The random
// part is 12 hex characters of a v4 UUID, so names stay collision resistant
// for uploads landing in the same millisecond.
type TimestampGenerator struct {
	Now    func() time.Time
	Random func() string
}

func NewTimestampGenerator() *TimestampGenerator {
	return &TimestampGenerator{
		Now:    time.Now,
		Random: randomSuffix,
	}
}

func (g *TimestampGenerator) GenerateName(ext string) string {
	return fmt.Sprintf("%d-%s.%s", g.Now().UnixMilli(), g.Random(), ext)
}

// CustomFuncGenerator allows callers to provide their own naming function
type CustomFuncGenerator struct {
	GenerateFunc func(ext string) string
}

func NewCustomFuncGenerator(fn func(ext string) string) *CustomFuncGenerator {
	return &CustomFuncGenerator{GenerateFunc: fn}
}

func (g *CustomFuncGenerator) GenerateName(ext string) string {
	return g.GenerateFunc(ext)
}

func randomSuffix() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[len(id)-12:]
}
