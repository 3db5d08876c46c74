package video_harvester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

type Download interface {
	// AddDownloadedBytes increases how many bytes have been successfully downloaded so far.
	AddDownloadedBytes(n int64)

	// AddExpectedBytes increases how many bytes are expected to be downloaded.
	AddExpectedBytes(n int64)

	// Cancel the Download, stopping any in-progress I/O activity.
	Cancel()

	// Close cleans up any resources associated with the Download, including deleting its temporary directory.
	Close() error

	// Context is the cancellable context of this Download.
	Context() context.Context

	// CreateFile creates (or truncates) a file in the target directory, creating parent directories as needed.
	CreateFile(filename string) (io.WriteCloser, error)

	// Progress returns the downloaded and expected bytes of the download.
	Progress() (int64, int64)

	// SaveHTTPRequest will execute the http.Request with Context() and then download the resulting stream like
	// SaveStream.
	SaveHTTPRequest(filename string, req *http.Request) error

	// SaveStream will download the stream to a temporary file, calling AddDownloadedBytes as necessary, and move it to
	// the named file once the stream is complete.
	SaveStream(filename string, stream io.Reader) error

	// SaveURL will make a GET request to the URL and then download the resulting stream like SaveStream.
	SaveURL(filename string, url string) error

	// TargetPath is the path a file saved as filename ends up at.
	TargetPath(filename string) string

	// Write will ignore the data but will send the byte count to AddDownloadedBytes. Allows progress tracking using
	// io.MultiWriter (but ensure the Download is the last writer to avoid counting failed writes).
	Write(p []byte) (n int, err error)
}

type download struct {
	ctx              context.Context
	cancel           context.CancelFunc
	httpClient       *http.Client
	progressCallback func(downloaded int64, expected int64)
	targetDir        string
	tempDir          string
	expectedBytes    int64
	downloadedBytes  int64
}

func (d *download) AddDownloadedBytes(n int64) {
	d.downloadedBytes += n
	if d.progressCallback != nil {
		d.progressCallback(d.Progress())
	}
}

func (d *download) AddExpectedBytes(n int64) {
	if n <= 0 {
		return
	}
	d.expectedBytes += n
	if d.progressCallback != nil {
		d.progressCallback(d.Progress())
	}
}

func (d *download) Cancel() {
	d.cancel()
}

func (d *download) Close() error {
	d.cancel()
	if err := os.RemoveAll(d.tempDir); err != nil {
		return fmt.Errorf("failed to delete temp dir: %w", err)
	}
	return nil
}

func (d *download) Context() context.Context {
	return d.ctx
}

func (d *download) CreateFile(filename string) (io.WriteCloser, error) {
	targetPath := d.TargetPath(filename)
	if err := os.MkdirAll(filepath.Dir(targetPath), 0775); err != nil {
		return nil, err
	}
	return os.Create(targetPath)
}

func (d *download) Progress() (int64, int64) {
	return d.downloadedBytes, d.expectedBytes
}

func (d *download) SaveHTTPRequest(filename string, req *http.Request) error {
	if req == nil {
		return fmt.Errorf("nil request")
	}
	req = req.WithContext(d.Context())
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}
	d.AddExpectedBytes(resp.ContentLength)
	return d.SaveStream(filename, resp.Body)
}

func (d *download) SaveStream(filename string, stream io.Reader) error {
	f, err := os.CreateTemp(d.tempDir, "part-*")
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}
	tempPath := f.Name()
	defer os.Remove(tempPath)

	_, err = io.Copy(io.MultiWriter(f, d), &readerContext{ctx: d.ctx, r: stream})
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("failed to save stream: %w", err)
	}

	targetPath := d.TargetPath(filename)
	if err := os.MkdirAll(filepath.Dir(targetPath), 0775); err != nil {
		return fmt.Errorf("failed to create target dir: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return fmt.Errorf("failed to move download into place: %w", err)
	}
	return nil
}

func (d *download) SaveURL(filename string, url string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return d.SaveHTTPRequest(filename, req)
}

func (d *download) TargetPath(filename string) string {
	return filepath.Join(d.targetDir, filepath.FromSlash(filename))
}

func (d *download) Write(p []byte) (n int, err error) {
	n = len(p)
	d.AddDownloadedBytes(int64(n))
	return n, nil
}

type DownloadBuilder interface {
	Build() (Download, error)
	WithContext(ctx context.Context) DownloadBuilder
	WithHTTPClient(client *http.Client) DownloadBuilder
	WithProgressCallback(f func(downloaded int64, expected int64)) DownloadBuilder
	WithTargetDir(dir string) DownloadBuilder
	// WithTempDir sets where the per-download staging directory is created; defaults to the target directory so that
	// finished files can be renamed into place.
	WithTempDir(dir string) DownloadBuilder
}

type downloadBuilder struct {
	ctx              context.Context
	httpClient       *http.Client
	progressCallback func(int64, int64)
	targetDir        string
	tempDir          string
}

func NewDownloadBuilder() DownloadBuilder {
	return &downloadBuilder{
		ctx:        context.Background(),
		httpClient: http.DefaultClient,
		targetDir:  ".",
	}
}

func (b *downloadBuilder) Build() (Download, error) {
	if err := os.MkdirAll(b.targetDir, 0775); err != nil {
		return nil, fmt.Errorf("failed to create target dir: %w", err)
	}
	tempBase := b.tempDir
	if tempBase == "" {
		tempBase = b.targetDir
	}
	tempDir, err := os.MkdirTemp(tempBase, ".harvest-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	d := download{
		httpClient:       b.httpClient,
		progressCallback: b.progressCallback,
		targetDir:        b.targetDir,
		tempDir:          tempDir,
	}
	d.ctx, d.cancel = context.WithCancel(b.ctx)
	return &d, nil
}

func (b *downloadBuilder) WithContext(ctx context.Context) DownloadBuilder {
	b.ctx = ctx
	return b
}

func (b *downloadBuilder) WithHTTPClient(client *http.Client) DownloadBuilder {
	b.httpClient = client
	return b
}

func (b *downloadBuilder) WithProgressCallback(f func(int64, int64)) DownloadBuilder {
	b.progressCallback = f
	return b
}

func (b *downloadBuilder) WithTargetDir(dir string) DownloadBuilder {
	b.targetDir = dir
	return b
}

func (b *downloadBuilder) WithTempDir(dir string) DownloadBuilder {
	b.tempDir = dir
	return b
}
