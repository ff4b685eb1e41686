// Package downloader fetches the requested bands of catalog items in parallel,
// keeping signed URLs fresh and recording the outcome of every task.
package downloader

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/cavaliercoder/grab"
	"golang.org/x/sync/errgroup"

	"github.com/airbusgeo/stac-fetch/bands"
	"github.com/airbusgeo/stac-fetch/catalog"
	"github.com/airbusgeo/stac-fetch/common"
	ifcatalog "github.com/airbusgeo/stac-fetch/interface/catalog"
	"github.com/airbusgeo/stac-fetch/service"
	"github.com/airbusgeo/stac-fetch/signing"
)

const (
	defaultWorkers   = 4
	defaultRetries   = 3
	defaultRetryWait = time.Second
)

// Config of a download run
type Config struct {
	// Workers is the number of parallel transfers (default 4)
	Workers int
	// Retries is the number of retries per task on temporary failures (default 3)
	Retries int
	// RetryWait is the exponential backoff unit between retries (default 1s)
	RetryWait time.Duration
	// DestDir is the root of the output tree (one directory per item)
	DestDir string
	// RequestPayer enables requester-pays on s3:// transfers
	RequestPayer bool
	// Overwrite re-fetches assets already present on disk
	Overwrite bool
	// S3 handles s3:// asset URLs (nil: such assets fail)
	S3 *manager.Downloader
	// Observer is notified of the run progress (optional)
	Observer Observer
	// Seed is the report of a previous run: its completed tasks whose files are
	// still on disk are skipped
	Seed *common.Report
}

// Downloader orchestrates the transfers of one provider's assets
type Downloader struct {
	tracker *signing.Tracker
	table   *bands.Table
	cfg     Config
	grab    *grab.Client

	mu     sync.Mutex
	report *common.Report
}

func New(client ifcatalog.Client, table *bands.Table, cfg Config) *Downloader {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Retries <= 0 {
		cfg.Retries = defaultRetries
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = defaultRetryWait
	}
	if table == nil {
		table = bands.DefaultTable()
	}
	return &Downloader{
		tracker: signing.NewTracker(client),
		table:   table,
		cfg:     cfg,
		grab:    grab.NewClient(),
	}
}

// DownloadItems fetches the requested bands of the given items. The returned
// report has one result per (item, band) task, whatever its outcome.
func (d *Downloader) DownloadItems(ctx context.Context, items []common.CatalogItem, bandIDs []string) *common.Report {
	bandIDs = dedupeBands(bandIDs)
	d.mu.Lock()
	d.report = common.NewReport()
	d.mu.Unlock()

	if d.cfg.Observer != nil {
		d.cfg.Observer.RunStarted(len(items) * len(bandIDs))
	}

	g := errgroup.Group{}
	g.SetLimit(d.cfg.Workers)
	for _, item := range items {
		for _, band := range bandIDs {
			d.schedule(ctx, &g, item, band)
		}
	}
	g.Wait()

	d.report.Aborted = ctx.Err() != nil
	return d.report
}

// Download streams the iterator's items into the worker pool. On a page fetch
// error the report of everything scheduled so far is returned along with the
// error; the iterator can be retried and the run resumed with Seed.
func (d *Downloader) Download(ctx context.Context, it *catalog.Iterator, bandIDs []string) (*common.Report, error) {
	bandIDs = dedupeBands(bandIDs)
	d.mu.Lock()
	d.report = common.NewReport()
	d.mu.Unlock()

	g := errgroup.Group{}
	g.SetLimit(d.cfg.Workers)

	var iterErr error
	started := false
	for ctx.Err() == nil {
		item, ok, err := it.Next(ctx)
		if err != nil {
			iterErr = err
			break
		}
		if !ok {
			break
		}
		if !started {
			started = true
			if d.cfg.Observer != nil {
				d.cfg.Observer.RunStarted(it.Total() * len(bandIDs))
			}
		}
		for _, band := range bandIDs {
			d.schedule(ctx, &g, item, band)
		}
	}
	g.Wait()

	d.report.Aborted = ctx.Err() != nil
	return d.report, iterErr
}

func (d *Downloader) schedule(ctx context.Context, g *errgroup.Group, item common.CatalogItem, band string) {
	if ctx.Err() != nil {
		d.record(item.ID, band, common.DownloadResult{Status: common.StatusSkipped, Reason: common.SkipCancelled})
		return
	}
	g.Go(func() error {
		if ctx.Err() != nil {
			d.record(item.ID, band, common.DownloadResult{Status: common.StatusSkipped, Reason: common.SkipCancelled})
			return nil
		}
		d.record(item.ID, band, d.download(ctx, item, band))
		return nil
	})
}

func (d *Downloader) record(itemID, band string, res common.DownloadResult) {
	d.mu.Lock()
	d.report.Set(itemID, band, res)
	d.mu.Unlock()
	if d.cfg.Observer != nil {
		d.cfg.Observer.TaskDone(itemID, band, res)
	}
}

// download runs one (item, band) task to completion: resolve the asset key,
// skip what is already on disk, then transfer with a fresh URL, retrying
// temporary failures with exponential backoff.
func (d *Downloader) download(ctx context.Context, item common.CatalogItem, band string) common.DownloadResult {
	key, err := d.table.Resolve(item, band)
	if err != nil {
		return common.DownloadResult{Status: common.StatusSkipped, Reason: common.SkipAssetNotFound, Error: err.Error()}
	}
	ref := item.Assets[key]
	dest := d.destPath(item, key, ref.URL)
	if d.cfg.Overwrite {
		os.Remove(dest)
	} else if d.seedCompleted(item.ID, band, dest) {
		return common.DownloadResult{Status: common.StatusSkipped, Reason: common.SkipAlreadyPresent, Path: dest}
	}

	var lastErr error
	retries := 0
	for attempt := 0; attempt <= d.cfg.Retries; attempt++ {
		if attempt > 0 {
			retries++
			select {
			case <-ctx.Done():
				return common.DownloadResult{Status: common.StatusFailed, Error: common.SkipCancelled, Retryable: true, Retries: retries}
			case <-time.After(((1 << attempt) - 1) * d.cfg.RetryWait):
			}
		}

		fresh, err := d.tracker.EnsureFresh(ctx, item.ID, ref)
		if err != nil {
			// the signing endpoint already retried internally
			lastErr = service.MergeErrors(true, lastErr, err)
			break
		}
		if attempt == 0 && !d.cfg.Overwrite {
			if fi, statErr := os.Stat(dest); statErr == nil && fi.Size() > 0 {
				if size, ok := d.remoteSize(ctx, fresh); ok && size == fi.Size() {
					return common.DownloadResult{Status: common.StatusSkipped, Reason: common.SkipAlreadyPresent, Path: dest}
				}
				// partial or stale file: the transfer resumes or replaces it
			}
		}
		n, err := d.transfer(ctx, item.ID, fresh, dest)
		if err == nil {
			return common.DownloadResult{Status: common.StatusCompleted, Path: dest, Bytes: n, Retries: retries}
		}
		lastErr = service.MergeErrors(true, lastErr, err)
		if ctx.Err() != nil {
			return common.DownloadResult{Status: common.StatusFailed, Error: common.SkipCancelled, Retryable: true, Retries: retries}
		}
		if isAuthError(err) && fresh.State == common.StateSigned {
			// the token lapsed before its advertised expiry: re-sign and retry
			d.tracker.Invalidate(item.ID, key)
			continue
		}
		if service.Fatal(err) || !service.Temporary(err) {
			break
		}
	}
	return common.DownloadResult{
		Status:    common.StatusFailed,
		Error:     lastErr.Error(),
		Retryable: service.Temporary(lastErr) || isAuthError(lastErr),
		Retries:   retries,
	}
}

// dedupeBands drops repeated band names, keeping the first occurrence order
func dedupeBands(bandIDs []string) []string {
	seen := service.StringSet{}
	out := make([]string, 0, len(bandIDs))
	for _, band := range bandIDs {
		if seen.Exists(band) {
			continue
		}
		seen.Push(band)
		out = append(out, band)
	}
	return out
}

func (d *Downloader) destPath(item common.CatalogItem, key, rawURL string) string {
	name := key
	if ext := service.GetExt(rawURL); ext != "" {
		name += "." + ext
	}
	return filepath.Join(d.cfg.DestDir, item.ID, name)
}

// seedCompleted reports whether the seed report recorded the task completed
// and its file is still on disk with the recorded size. A file present on disk
// without a seed entry is only skipped after its size is checked against the
// server-reported one, so a truncated leftover of a crashed run is completed
// instead of being trusted.
func (d *Downloader) seedCompleted(itemID, band, dest string) bool {
	if d.cfg.Seed == nil {
		return false
	}
	res, ok := d.cfg.Seed.Get(itemID, band)
	if !ok || res.Status != common.StatusCompleted {
		return false
	}
	path := res.Path
	if path == "" {
		path = dest
	}
	fi, err := os.Stat(path)
	return err == nil && (res.Bytes == 0 || fi.Size() == res.Bytes)
}
