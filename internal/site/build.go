package site

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/vellum/internal/metrics"
	"github.com/starford/vellum/internal/storage"
)

// Build renders every page with RenderDoc, using a page-relative RelPath,
// and writes the documents to out. It returns the number of files written.
// Template failures are rendered in place; a missing default template or a
// write error stops the build.
func (s *Snapshot) Build(ctx context.Context, out storage.Provider, cfg Config) (int, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	start := time.Now()

	eg, ctx := errgroup.WithContext(ctx)
	if cfg.Workers > 0 {
		eg.SetLimit(cfg.Workers)
	}
	for _, p := range s.Pages {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := s.Generator.RenderDoc(p, s.RenderContext(p.Href))
			if err != nil {
				return fmt.Errorf("site: build %s: %w", p.Href, err)
			}
			if err := out.Write(OutputPath(p.Href), []byte(doc)); err != nil {
				return fmt.Errorf("site: build %s: %w", p.Href, err)
			}
			logger.Debug("page written", slog.String("href", p.Href), slog.String("file", OutputPath(p.Href)))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		rec.ObserveRender(metrics.StageBuild, metrics.ResultFatal, time.Since(start))
		return 0, err
	}
	rec.ObserveRender(metrics.StageBuild, metrics.ResultSuccess, time.Since(start))
	logger.Info("site built", slog.Int("pages", len(s.Pages)), slog.String("output", out.Root()))
	return len(s.Pages), nil
}
