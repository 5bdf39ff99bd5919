package index

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/vellum/internal/site"
	"github.com/starford/vellum/internal/storage"
)

// SyncStats summarizes one Sync run.
type SyncStats struct {
	Updated int
	Removed int
	Images  int
}

// Sync brings the index up to date with snap:
//   - pages and fragments whose content changed are re-parsed for links and upserted
//   - pages no longer in the snapshot are deleted
//   - the image inventory is rebuilt from a full render scan
func Sync(ctx context.Context, db *DB, snap *site.Snapshot, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats
	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	gen := snap.Generator
	live := make(map[string]struct{}, len(snap.Registry))
	for href, p := range snap.Registry {
		if p.File == nil {
			continue // synthetic folder page
		}
		live[href] = struct{}{}
		cs := storage.Checksum([]byte(p.Title + "\x00" + p.Hdr + p.Txt))
		if checksums[href] == cs {
			continue
		}
		row := PageRow{
			Href:      href,
			Title:     p.Title,
			File:      p.SourcePath(),
			Checksum:  cs,
			UpdatedAt: p.File.UpdatedAt,
		}
		if row.UpdatedAt.IsZero() {
			row.UpdatedAt = time.Now()
		}
		if err := db.UpsertPage(row, p.Txt, gen.ParseLinks(p)); err != nil {
			logger.Warn("sync: index failed", slog.String("href", href), slog.String("error", err.Error()))
			continue
		}
		stats.Updated++
		logger.Debug("sync: indexed", slog.String("href", href))
	}

	for href := range checksums {
		if _, ok := live[href]; ok {
			continue
		}
		if err := db.DeletePage(href); err != nil {
			logger.Warn("sync: delete failed", slog.String("href", href), slog.String("error", err.Error()))
			continue
		}
		stats.Removed++
		logger.Debug("sync: removed stale", slog.String("href", href))
	}

	inv, err := gen.Inventory(ctx)
	if err != nil {
		return stats, err
	}
	if err := db.ReplaceImages(inv); err != nil {
		return stats, err
	}
	stats.Images = len(inv)

	logger.Info("sync: done",
		slog.Int("updated", stats.Updated),
		slog.Int("removed", stats.Removed),
		slog.Int("images", stats.Images))
	return stats, nil
}
