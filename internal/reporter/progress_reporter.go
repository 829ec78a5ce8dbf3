package reporter

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter renders a progress bar for a running drop by polling the
// coordinator's monotonically increasing byte count.
type ProgressReporter struct {
	interval time.Duration
}

func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{interval: 100 * time.Millisecond}
}

// Run polls bytesSent until done closes or the context is cancelled.
func (pr *ProgressReporter) Run(ctx context.Context, fileCount int, totalBytes int64, bytesSent func() int64, done <-chan struct{}) {
	bar := progressbar.NewOptions64(totalBytes,
		progressbar.OptionSetDescription(fmt.Sprintf("sending %d file(s)", fileCount)),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)

	ticker := time.NewTicker(pr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			bar.Set64(bytesSent())
			bar.Finish()
			return
		case <-ticker.C:
			bar.Set64(bytesSent())
		}
	}
}
