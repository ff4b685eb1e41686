package downloader

import (
	"context"
	"sync"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/airbusgeo/stac-fetch/common"
	"github.com/airbusgeo/stac-fetch/service/log"
)

// Observer is notified of the progress of a download run. Implementations must
// be safe for concurrent use: tasks report from the worker goroutines.
type Observer interface {
	// RunStarted is called once with the total number of tasks
	RunStarted(total int)
	// TaskProgress is called at most once per second per in-flight transfer
	TaskProgress(itemID, assetKey string, bytesComplete, size int64)
	// TaskDone is called once per task with its final result
	TaskDone(itemID, assetKey string, res common.DownloadResult)
}

// MultiObserver fans out to several observers
type MultiObserver []Observer

func (m MultiObserver) RunStarted(total int) {
	for _, o := range m {
		o.RunStarted(total)
	}
}

func (m MultiObserver) TaskProgress(itemID, assetKey string, bytesComplete, size int64) {
	for _, o := range m {
		o.TaskProgress(itemID, assetKey, bytesComplete, size)
	}
}

func (m MultiObserver) TaskDone(itemID, assetKey string, res common.DownloadResult) {
	for _, o := range m {
		o.TaskDone(itemID, assetKey, res)
	}
}

// LogObserver logs the run progress with the context logger
type LogObserver struct {
	ctx context.Context

	mu    sync.Mutex
	total int
	done  int
}

func NewLogObserver(ctx context.Context) *LogObserver {
	return &LogObserver{ctx: ctx}
}

func (o *LogObserver) RunStarted(total int) {
	o.mu.Lock()
	o.total = total
	o.mu.Unlock()
	log.Logger(o.ctx).Info("download run started", zap.Int("tasks", total))
}

func (o *LogObserver) TaskProgress(itemID, assetKey string, bytesComplete, size int64) {
	logger := log.Logger(o.ctx).Sugar()
	if size > 0 {
		logger.Debugf("%s/%s: %.1f%% (%s/%s)", itemID, assetKey,
			100*float64(bytesComplete)/float64(size),
			humanize.Bytes(uint64(bytesComplete)), humanize.Bytes(uint64(size)))
	} else {
		logger.Debugf("%s/%s: %s", itemID, assetKey, humanize.Bytes(uint64(bytesComplete)))
	}
}

func (o *LogObserver) TaskDone(itemID, assetKey string, res common.DownloadResult) {
	o.mu.Lock()
	o.done++
	done, total := o.done, o.total
	o.mu.Unlock()

	logger := log.Logger(o.ctx).Sugar()
	switch res.Status {
	case common.StatusCompleted:
		logger.Infof("[%d/%d] %s/%s: downloaded %s", done, total, itemID, assetKey, humanize.Bytes(uint64(res.Bytes)))
	case common.StatusSkipped:
		logger.Infof("[%d/%d] %s/%s: skipped (%s)", done, total, itemID, assetKey, res.Reason)
	case common.StatusFailed:
		logger.Warnf("[%d/%d] %s/%s: failed: %s", done, total, itemID, assetKey, res.Error)
	}
}

// Status is a point-in-time snapshot of a run, served by the monitoring endpoint
type Status struct {
	Total     int   `json:"total"`
	Completed int   `json:"completed"`
	Skipped   int   `json:"skipped"`
	Failed    int   `json:"failed"`
	Bytes     int64 `json:"bytes"`
}

// StatusObserver aggregates the run counters for the monitoring endpoint
type StatusObserver struct {
	mu     sync.Mutex
	status Status
}

func (o *StatusObserver) RunStarted(total int) {
	o.mu.Lock()
	o.status = Status{Total: total}
	o.mu.Unlock()
}

func (o *StatusObserver) TaskProgress(itemID, assetKey string, bytesComplete, size int64) {
}

func (o *StatusObserver) TaskDone(itemID, assetKey string, res common.DownloadResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch res.Status {
	case common.StatusCompleted:
		o.status.Completed++
		o.status.Bytes += res.Bytes
	case common.StatusSkipped:
		o.status.Skipped++
	case common.StatusFailed:
		o.status.Failed++
	}
}

// Snapshot returns the current counters
func (o *StatusObserver) Snapshot() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}
