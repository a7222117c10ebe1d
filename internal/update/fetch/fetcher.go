// Package fetch downloads release artifacts to disk atomically.
//
// The body streams into a temp file next to the target; only a fully
// drained download is renamed into place, so a half-written artifact
// never exists at the final path.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/infrastructure/monitoring"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/netclient"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// tempSuffix marks an in-flight download next to its final path.
const tempSuffix = ".download"

// Progress reports bytes drained so far. Total is -1 when the remote
// sent no Content-Length.
type Progress struct {
	Received int64
	Total    int64
}

// ProgressFunc observes download progress. Called from the download
// goroutine; must not block.
type ProgressFunc func(Progress)

// Fetcher streams release assets to disk.
type Fetcher struct {
	http    *netclient.Client
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a fetcher.
func New(http *netclient.Client, log *logging.Logger, metrics *monitoring.Metrics) *Fetcher {
	return &Fetcher{http: http, log: log, metrics: metrics}
}

// DownloadTo fetches url into targetPath atomically and returns the
// completed download record. On any failure the partial temp file is
// removed and the error returned; the final path is never touched.
func (f *Fetcher) DownloadTo(ctx context.Context, url, targetPath string, onProgress ProgressFunc) (*types.DownloadRecord, error) {
	record := &types.DownloadRecord{
		ID:        uuid.NewString(),
		Filename:  filepath.Base(targetPath),
		URL:       url,
		State:     types.DownloadInProgress,
		SavePath:  targetPath,
		StartedAt: time.Now(),
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return nil, fmt.Errorf("create updates directory: %w", err)
	}

	f.http.SetTimeout(netclient.DownloadTimeout)
	defer f.http.SetTimeout(netclient.MetadataTimeout)

	req, err := f.http.Request(ctx)
	if err != nil {
		return nil, err
	}
	req.SetDoNotParseResponse(true)

	resp, err := f.http.Execute(func() (*resty.Response, error) {
		return req.Get(url)
	})
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("download failed: HTTP %d", resp.StatusCode())
	}
	record.TotalBytes = resp.RawResponse.ContentLength

	tempPath := targetPath + tempSuffix
	size, err := f.drain(body, tempPath, record.TotalBytes, onProgress)
	if err != nil {
		os.Remove(tempPath)
		return nil, err
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("finalize download: %w", err)
	}

	now := time.Now()
	record.State = types.DownloadCompleted
	record.ReceivedBytes = size
	record.EndedAt = &now

	f.metrics.RecordDownload(size, now.Sub(record.StartedAt))
	f.log.Info("downloaded update artifact",
		zap.String("path", targetPath), zap.Int64("bytes", size))
	return record, nil
}

// drain copies the response body into tempPath, reporting progress.
func (f *Fetcher) drain(body io.Reader, tempPath string, total int64, onProgress ProgressFunc) (int64, error) {
	out, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}

	counter := &countingWriter{onWrite: func(received int64) {
		if onProgress != nil {
			onProgress(Progress{Received: received, Total: total})
		}
	}}

	_, copyErr := io.Copy(io.MultiWriter(out, counter), body)
	closeErr := out.Close()
	if copyErr != nil {
		return 0, fmt.Errorf("download interrupted: %w", copyErr)
	}
	if closeErr != nil {
		return 0, fmt.Errorf("flush temp file: %w", closeErr)
	}
	return counter.n, nil
}

type countingWriter struct {
	n       int64
	onWrite func(int64)
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += int64(len(p))
	w.onWrite(w.n)
	return len(p), nil
}
