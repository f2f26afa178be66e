package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"sdfbox/internal/logging"
)

type watchedFile struct {
	path     string
	onChange func(content string)
	modTime  time.Time
	size     int64
	content  string
}

// Watcher polls source files and posts their new contents to a Queue, so
// callbacks run on the draining thread.
type Watcher struct {
	queue    *Queue
	interval time.Duration
	files    []*watchedFile
}

func NewWatcher(queue *Queue, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Watcher{queue: queue, interval: interval}
}

// Watch adds path. Its current contents are the baseline; only later
// changes reach onChange. Watch must not be called once Run has started.
func (w *Watcher) Watch(path string, onChange func(content string)) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	w.files = append(w.files, &watchedFile{
		path:     path,
		onChange: onChange,
		modTime:  info.ModTime(),
		size:     info.Size(),
		content:  string(data),
	})
	return nil
}

// Run polls until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, f := range w.files {
				if err := w.poll(ctx, f); err != nil {
					return nil
				}
			}
		}
	}
}

// poll posts f's contents when they changed. It only fails when ctx ends.
func (w *Watcher) poll(ctx context.Context, f *watchedFile) error {
	info, err := os.Stat(f.path)
	if err != nil {
		// editors often replace the file; try again next tick
		logging.Logger().Debug("watch stat", "path", f.path, "err", err)
		return nil
	}
	if info.ModTime().Equal(f.modTime) && info.Size() == f.size {
		return nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		logging.Logger().Debug("watch read", "path", f.path, "err", err)
		return nil
	}
	f.modTime, f.size = info.ModTime(), info.Size()
	content := string(data)
	if content == f.content {
		return nil
	}
	f.content = content
	logging.Logger().Debug("source changed", "path", f.path, "bytes", len(content))
	onChange := f.onChange
	return w.queue.Post(ctx, func() { onChange(content) })
}
