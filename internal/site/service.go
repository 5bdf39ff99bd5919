package site

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/vellum/internal/metrics"
	"github.com/starford/vellum/internal/models"
	"github.com/starford/vellum/internal/render"
	"github.com/starford/vellum/internal/storage"
)

// ReloadFunc is called after every successful reload.
type ReloadFunc func(*Snapshot)

// Service holds the current snapshot and swaps it on reload. Readers get a
// consistent snapshot; a failed reload keeps the previous one.
type Service struct {
	content storage.Provider
	tpl     storage.Provider
	cfg     Config

	mu       sync.RWMutex
	cur      *Snapshot
	onReload []ReloadFunc
}

// NewService creates a service. Call Reload before serving.
func NewService(content, tpl storage.Provider, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NoopRecorder{}
	}
	return &Service{content: content, tpl: tpl, cfg: cfg}
}

// OnReload registers fn to run after each successful reload.
func (s *Service) OnReload(fn ReloadFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Reload loads a new snapshot and makes it current.
func (s *Service) Reload(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap, err := Load(ctx, s.content, s.tpl, s.cfg)
	if err != nil {
		s.cfg.Recorder.ObserveRender(metrics.StageReload, metrics.ResultFatal, time.Since(start))
		return nil, err
	}
	s.cfg.Recorder.ObserveRender(metrics.StageReload, metrics.ResultSuccess, time.Since(start))

	s.mu.Lock()
	s.cur = snap
	hooks := append([]ReloadFunc(nil), s.onReload...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(snap)
	}
	return snap, nil
}

// Snapshot returns the current snapshot, or nil before the first reload.
func (s *Service) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Generator returns the render pipeline of the current snapshot.
func (s *Service) Generator() *render.Generator {
	if snap := s.Snapshot(); snap != nil {
		return snap.Generator
	}
	return nil
}

// Page looks up href in the current snapshot.
func (s *Service) Page(href string) (*models.Page, error) {
	snap := s.Snapshot()
	if snap == nil {
		return nil, errNotLoaded
	}
	return snap.Page(href)
}

// ContentRoot and TemplateRoot are the directories to watch.
func (s *Service) ContentRoot() string  { return s.content.Root() }
func (s *Service) TemplateRoot() string { return s.tpl.Root() }
