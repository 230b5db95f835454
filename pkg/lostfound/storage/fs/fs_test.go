package fs

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tendant/lost-and-found/pkg/lostfound"
	"github.com/tendant/lost-and-found/pkg/lostfound/assetname"
)

func TestFSStore_BasicOps(t *testing.T) {
	tmp := t.TempDir()
	store, err := New(Config{BaseDir: tmp})
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}
	ctx := context.Background()

	// Accept
	data := []byte("\x89PNG fake image")
	name, err := store.Accept(ctx, bytes.NewReader(data), "Wallet.PNG")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !strings.HasSuffix(name, ".png") {
		t.Fatalf("expected lowercased .png extension, got %s", name)
	}

	// Open
	rc, info, err := store.Open(ctx, name)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(got) != string(data) {
		t.Fatalf("content mismatch: %q", string(got))
	}
	if info.Size != int64(len(data)) {
		t.Fatalf("expected size %d, got %d", len(data), info.Size)
	}
	if info.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %s", info.ContentType)
	}
	if _, ok := rc.(io.ReadSeeker); !ok {
		t.Fatalf("expected a seekable reader")
	}

	// List
	assets, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(assets) != 1 || assets[0].Name != name {
		t.Fatalf("unexpected listing: %+v", assets)
	}

	// Delete
	if err := store.Delete(ctx, name); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, name)); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err=%v", err)
	}

	// Deleting again is not an error
	if err := store.Delete(ctx, name); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	if _, _, err := store.Open(ctx, name); err != lostfound.ErrAssetNotFound {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestFSStore_RejectsDisallowedType(t *testing.T) {
	tmp := t.TempDir()
	store, err := New(Config{BaseDir: tmp})
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}

	if _, err := store.Accept(context.Background(), strings.NewReader("%PDF"), "doc.pdf"); err != lostfound.ErrInvalidAssetType {
		t.Fatalf("expected ErrInvalidAssetType, got %v", err)
	}
	assertEmptyDir(t, tmp)
}

func TestFSStore_RejectsOversizedUpload(t *testing.T) {
	tmp := t.TempDir()
	store, err := New(Config{BaseDir: tmp, MaxSize: 16})
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}

	_, err = store.Accept(context.Background(), bytes.NewReader(make([]byte, 17)), "big.jpg")
	if err != lostfound.ErrAssetTooLarge {
		t.Fatalf("expected ErrAssetTooLarge, got %v", err)
	}
	assertEmptyDir(t, tmp)

	// Exactly at the limit is fine
	if _, err := store.Accept(context.Background(), bytes.NewReader(make([]byte, 16)), "ok.jpg"); err != nil {
		t.Fatalf("accept at limit: %v", err)
	}
}

func TestFSStore_RecreatesMissingDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "files")
	store, err := New(Config{BaseDir: dir})
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir: %v", err)
	}

	name, err := store.Accept(context.Background(), strings.NewReader("gif"), "a.gif")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Fatalf("expected stored file: %v", err)
	}
}

func TestFSStore_UsesGenerator(t *testing.T) {
	tmp := t.TempDir()
	store, err := New(Config{
		BaseDir:   tmp,
		Generator: assetname.NewCustomFuncGenerator(func(ext string) string { return "fixed." + ext }),
	})
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}

	name, err := store.Accept(context.Background(), strings.NewReader("x"), "x.jpeg")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if name != "fixed.jpeg" {
		t.Fatalf("expected fixed.jpeg, got %s", name)
	}
}

func TestFSStore_RejectsTraversal(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "files")
	store, err := New(Config{BaseDir: dir})
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}
	secret := filepath.Join(root, "secret.png")
	if err := os.WriteFile(secret, []byte("secret"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, err := store.Open(context.Background(), "../secret.png"); err != lostfound.ErrAssetNotFound {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
	if err := store.Delete(context.Background(), "../secret.png"); err != lostfound.ErrInvalidAssetName {
		t.Fatalf("expected ErrInvalidAssetName, got %v", err)
	}
	if _, err := os.Stat(secret); err != nil {
		t.Fatalf("file outside content dir was touched: %v", err)
	}
}

func TestFSStore_SweepsAbandonedUploads(t *testing.T) {
	tmp := t.TempDir()
	stale := filepath.Join(tmp, ".upload-111")
	fresh := filepath.Join(tmp, ".upload-222")
	kept := filepath.Join(tmp, "1700000000000-abcdef012345.png")
	for _, path := range []string{stale, fresh, kept} {
		if err := os.WriteFile(path, []byte("partial"), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	old := time.Now().Add(-2 * StaleUploadAge)
	for _, path := range []string{stale, kept} {
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	store, err := New(Config{BaseDir: tmp})
	if err != nil {
		t.Fatalf("new fs store: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected abandoned upload to be removed, stat err: %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("in-flight upload should be kept: %v", err)
	}
	if _, err := os.Stat(kept); err != nil {
		t.Fatalf("stored asset should be kept: %v", err)
	}

	removed, err := store.SweepUploads(time.Now())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 upload removed, got %d", removed)
	}
	if _, err := os.Stat(fresh); !os.IsNotExist(err) {
		t.Fatalf("expected upload older than cutoff to be removed, stat err: %v", err)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty content directory, found %d entries", len(entries))
	}
}
