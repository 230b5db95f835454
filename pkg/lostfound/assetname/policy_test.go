package assetname

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/lost-and-found/pkg/lostfound"
)

func TestExtension(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{name: "jpg", input: "wallet.jpg", expected: "jpg"},
		{name: "upper case", input: "KEYS.JPEG", expected: "jpeg"},
		{name: "mixed case png", input: "phone.PnG", expected: "png"},
		{name: "gif", input: "cat.gif", expected: "gif"},
		{name: "double extension", input: "evil.png.exe", wantErr: true},
		{name: "pdf", input: "notes.pdf", wantErr: true},
		{name: "no extension", input: "photo", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "webp", input: "img.webp", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, err := Extension(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, lostfound.ErrInvalidAssetType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ext)
		})
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"1700000000000-abcdef012345.png", "a.jpg"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), name)
	}

	invalid := []string{"", ".", "..", "../etc/passwd", "a/b.png", `a\b.png`, ".hidden.png", "a\x00.png"}
	for _, name := range invalid {
		assert.ErrorIs(t, ValidateName(name), lostfound.ErrInvalidAssetName, name)
	}
}

func TestSizeGuard(t *testing.T) {
	t.Run("under limit", func(t *testing.T) {
		g := LimitReader(strings.NewReader("hello"), 10)
		data, err := io.ReadAll(g)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
		assert.False(t, g.Exceeded())
	})

	t.Run("exactly at limit", func(t *testing.T) {
		g := LimitReader(bytes.NewReader(make([]byte, 10)), 10)
		data, err := io.ReadAll(g)
		require.NoError(t, err)
		assert.Len(t, data, 10)
		assert.False(t, g.Exceeded())
	})

	t.Run("over limit", func(t *testing.T) {
		g := LimitReader(bytes.NewReader(make([]byte, 11)), 10)
		_, err := io.Copy(io.Discard, g)
		assert.True(t, errors.Is(err, lostfound.ErrAssetTooLarge))
		assert.True(t, g.Exceeded())

		_, err = g.Read(make([]byte, 1))
		assert.ErrorIs(t, err, lostfound.ErrAssetTooLarge)
	})

	t.Run("default limit", func(t *testing.T) {
		g := LimitReader(strings.NewReader("x"), 0)
		assert.Equal(t, DefaultMaxSize, g.remaining)
	})
}
