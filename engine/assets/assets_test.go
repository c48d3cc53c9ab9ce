package assets

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spaghettifunk/vidgfx/engine/core"
	"github.com/spaghettifunk/vidgfx/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var spirvHeader = []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func newTestLibrary(t *testing.T) (*Library, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "texDecal-vs.spv"), spirvHeader)
	writeFile(t, filepath.Join(dir, "yuv", "uyvy-rgb-ps.spv"), spirvHeader)
	writeFile(t, filepath.Join(dir, "texDecal.vert"), []byte("#version 450"))

	img := image.NewNRGBA(image.Rect(0, 0, 1, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "images"), 0o755))
	require.NoError(t, imaging.Save(img, filepath.Join(dir, "images", "bars.png")))

	lib, err := NewLibrary(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { lib.Close() })
	return lib, dir
}

func TestDetermineAssetType(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(AssetTypeShader, determineAssetType("a/b/solid-ps.spv"))
	assert.Equal(AssetTypeImage, determineAssetType("logo.PNG"))
	assert.Equal(AssetTypeImage, determineAssetType("frame.webp"))
	assert.Equal(AssetTypeNone, determineAssetType("solid.frag"))
	assert.Equal("solid-ps", assetName("a/b/solid-ps.spv", AssetTypeShader))
	assert.Equal("logo.png", assetName("x/logo.png", AssetTypeImage))
}

func TestLibraryIndexesTree(t *testing.T) {
	assert := assert.New(t)
	lib, dir := newTestLibrary(t)

	assert.Equal([]string{"texDecal-vs", "uyvy-rgb-ps"}, lib.Names(AssetTypeShader))
	assert.Equal([]string{"bars.png"}, lib.Names(AssetTypeImage))
	assert.Equal(dir, lib.Root())

	data, err := lib.Load("uyvy-rgb-ps")
	require.NoError(t, err)
	assert.Equal(spirvHeader, data)

	info, ok := lib.Info("uyvy-rgb-ps")
	require.True(t, ok)
	assert.False(info.LastLoaded.IsZero())

	_, err = lib.Load("missing-ps")
	assert.True(errors.Is(err, ErrAssetNotFound))
	_, err = lib.Load("bars.png")
	assert.True(errors.Is(err, ErrAssetNotFound))
}

func TestLibraryLoadsImages(t *testing.T) {
	lib, _ := newTestLibrary(t)

	img, err := lib.LoadImage("bars.png", metadata.ImageResourceParams{FlipY: true})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(0, 1))

	_, err = lib.LoadImage("texDecal-vs", metadata.ImageResourceParams{})
	assert.True(t, errors.Is(err, ErrAssetNotFound))
}

func TestNewLibraryRejectsFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.spv")
	writeFile(t, path, spirvHeader)

	_, err := NewLibrary(path, nil)
	assert.True(t, errors.Is(err, core.ErrValidation))
	_, err = NewLibrary(filepath.Join(dir, "nope"), nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func waitFor(t *testing.T, changes <-chan string, name string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got, ok := <-changes:
			require.True(t, ok, "changes closed before %s", name)
			if got == name {
				return
			}
		case <-timeout:
			t.Fatalf("no change reported for %s", name)
		}
	}
}

func TestLibraryWatch(t *testing.T) {
	assert := assert.New(t)
	lib, dir := newTestLibrary(t)

	changes, err := lib.Watch()
	require.NoError(t, err)
	again, err := lib.Watch()
	require.NoError(t, err)
	assert.Equal(changes, again)

	writeFile(t, filepath.Join(dir, "solid-ps.spv"), spirvHeader)
	waitFor(t, changes, "solid-ps")
	assert.Contains(lib.Names(AssetTypeShader), "solid-ps")

	require.NoError(t, os.Remove(filepath.Join(dir, "yuv", "uyvy-rgb-ps.spv")))
	waitFor(t, changes, "uyvy-rgb-ps")
	assert.NotContains(lib.Names(AssetTypeShader), "uyvy-rgb-ps")

	require.NoError(t, lib.Close())
	require.NoError(t, lib.Close())
	for range changes {
	}
	_, err = lib.Watch()
	assert.Error(err)
}
