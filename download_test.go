package video_harvester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"
)

func newTestDownload(t *testing.T, ctx context.Context, progress func(int64, int64)) (Download, string) {
	dir := t.TempDir()
	d, err := NewDownloadBuilder().
		WithContext(ctx).
		WithTargetDir(dir).
		WithProgressCallback(progress).
		Build()
	require_.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, dir
}

func TestDownload_SaveStream(t *testing.T) {
	assert := assert_.New(t)
	var calls int
	var last int64
	d, dir := newTestDownload(t, context.Background(), func(downloaded, _ int64) {
		calls++
		last = downloaded
	})

	d.AddExpectedBytes(11)
	assert.NoError(d.SaveStream("sub/out.txt", strings.NewReader("hello world")))

	data, err := os.ReadFile(filepath.Join(dir, "sub", "out.txt"))
	assert.NoError(err)
	assert.Equal("hello world", string(data))
	downloaded, expected := d.Progress()
	assert.Equal(int64(11), downloaded)
	assert.Equal(int64(11), expected)
	assert.Equal(int64(11), last)
	assert.GreaterOrEqual(calls, 2)
	assert.Equal(filepath.Join(dir, "sub", "out.txt"), d.TargetPath("sub/out.txt"))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("connection reset")
}

func TestDownload_SaveStreamFailureLeavesNoFile(t *testing.T) {
	assert := assert_.New(t)
	d, dir := newTestDownload(t, context.Background(), nil)

	err := d.SaveStream("out.bin", io.MultiReader(strings.NewReader("partial"), failingReader{}))
	assert.Error(err)
	_, statErr := os.Stat(filepath.Join(dir, "out.bin"))
	assert.True(os.IsNotExist(statErr))
}

func TestDownload_Cancel(t *testing.T) {
	assert := assert_.New(t)
	d, dir := newTestDownload(t, context.Background(), nil)

	d.Cancel()
	err := d.SaveStream("out.bin", strings.NewReader("data"))
	assert.ErrorIs(err, context.Canceled)
	_, statErr := os.Stat(filepath.Join(dir, "out.bin"))
	assert.True(os.IsNotExist(statErr))
}

func TestDownload_CloseRemovesTempDir(t *testing.T) {
	assert := assert_.New(t)
	dir := t.TempDir()
	d, err := NewDownloadBuilder().WithTargetDir(dir).Build()
	require_.NoError(t, err)

	entries, err := os.ReadDir(dir)
	assert.NoError(err)
	assert.Len(entries, 1)

	assert.NoError(d.Close())
	entries, err = os.ReadDir(dir)
	assert.NoError(err)
	assert.Len(entries, 0)
}

func TestDownload_SaveURL(t *testing.T) {
	assert := assert_.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("\xff\xd8img"))
	}))
	defer server.Close()

	d, dir := newTestDownload(t, context.Background(), nil)
	assert.NoError(d.SaveURL("thumb.jpg", server.URL+"/thumb.jpg"))
	data, err := os.ReadFile(filepath.Join(dir, "thumb.jpg"))
	assert.NoError(err)
	assert.Equal("\xff\xd8img", string(data))
	_, expected := d.Progress()
	assert.Equal(int64(5), expected)

	err = d.SaveURL("missing.jpg", server.URL+"/missing.jpg")
	assert.ErrorIs(err, ErrUnexpectedStatus)
	_, statErr := os.Stat(filepath.Join(dir, "missing.jpg"))
	assert.True(os.IsNotExist(statErr))
}

func TestDownload_CreateFile(t *testing.T) {
	assert := assert_.New(t)
	d, dir := newTestDownload(t, context.Background(), nil)

	f, err := d.CreateFile("a/b/c.json")
	assert.NoError(err)
	_, err = f.Write([]byte("{}"))
	assert.NoError(err)
	assert.NoError(f.Close())

	data, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.json"))
	assert.NoError(err)
	assert.Equal("{}", string(data))
}
