package app

import (
	"context"
	"errors"

	"github.com/joseph-ayodele/docsort/internal/common"
	"github.com/joseph-ayodele/docsort/internal/ingest"
	"github.com/joseph-ayodele/docsort/internal/pipeline"
)

// Watch processes files created or modified under the input directory until ctx
// is done. Files are still handled one at a time.
func (a *App) Watch(ctx context.Context, runID string) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Root:          a.Config.Input.Dir,
		IncludeHidden: a.Config.Input.IncludeHidden,
		Exclude:       a.Walker.Exclude,
		Debounce:      a.Config.Input.WatchDebounce,
		Logger:        a.Logger,
	})
	if err != nil {
		return err
	}
	ctx = common.WithRunID(ctx, runID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.Logger.Warn("app.watch.error", "error", err)
		case path, ok := <-events:
			if !ok {
				return nil
			}
			file, err := ingest.Describe(path)
			if err != nil {
				// removed or renamed before the debounce fired
				a.Logger.Debug("app.watch.skip", "path", path, "error", err)
				continue
			}
			o, err := a.Processor.ProcessFile(ctx, file)
			switch {
			case errors.Is(err, pipeline.ErrResumed):
			case err != nil:
				a.Logger.Error("app.watch.file_failed", "path", path, "error", err)
			default:
				a.Logger.Info("app.watch.file_done", "path", path,
					"readable", o.Readable, "classification", o.Classification, "completed", o.Completed)
			}
		}
	}
}
