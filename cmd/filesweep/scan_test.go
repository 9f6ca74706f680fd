package main

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filesweep/filesweep/internal/dedupe"
	"github.com/filesweep/filesweep/internal/types"
)

func TestClassifyBytes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))

	tests := []struct {
		name string
		head []byte
		want types.MediaType
	}{
		{name: "png", head: buf.Bytes(), want: types.MediaImage},
		{name: "plain text", head: []byte("hello, world\nthis is prose\n"), want: types.MediaText},
		{name: "binary", head: []byte{0x7f, 'E', 'L', 'F', 0x02, 0x01, 0x00, 0x00}, want: types.MediaBinary},
		{name: "empty", head: nil, want: types.MediaBinary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyBytes(tt.head))
		})
	}
}

func TestCollectFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/scan/a.txt", []byte("some text content here"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/scan/sub/b.txt", []byte("more text content here"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/scan/.hidden/c.txt", []byte("skipped"), 0o644))

	files, err := collectFiles(fs, "/scan", 100)
	require.NoError(t, err)

	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	assert.Contains(t, ids, "/scan/a.txt")
	assert.Contains(t, ids, "/scan/sub/b.txt")
	assert.NotContains(t, ids, "/scan/.hidden/c.txt", "hidden directories are skipped")

	for _, f := range files {
		assert.Equal(t, f.ID, f.Path)
		assert.Positive(t, f.Size)
	}
}

func TestCollectFilesEnforcesLimit(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/scan/a", []byte("1"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/scan/b", []byte("2"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/scan/c", []byte("3"), 0o644))

	_, err := collectFiles(fs, "/scan", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than 2 files")
}

func TestApplyConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "filesweep.yaml")
	content := []byte("threshold: 0.95\nmax_batch_size: 50\nembed_timeout_secs: 10\n")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg := dedupe.DefaultConfig()
	require.NoError(t, applyConfigFile(path, &cfg))
	assert.Equal(t, 0.95, cfg.Threshold)
	assert.Equal(t, 50, cfg.MaxBatchSize)
	assert.Equal(t, 10*time.Second, cfg.EmbedTimeout)
}
