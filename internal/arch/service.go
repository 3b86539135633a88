// Package arch is the process-level entry point to an arbor project. A
// Service owns the loaded configuration, classification registry, canonical
// store, reconciler, mutation engine, mapping index and audit log, and keeps
// the parsed graph cached until the canonical file changes on disk.
package arch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/aidanlsb/arbor/internal/audit"
	"github.com/aidanlsb/arbor/internal/canon"
	"github.com/aidanlsb/arbor/internal/classify"
	"github.com/aidanlsb/arbor/internal/config"
	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/index"
	"github.com/aidanlsb/arbor/internal/mutate"
	"github.com/aidanlsb/arbor/internal/parser"
	"github.com/aidanlsb/arbor/internal/paths"
	"github.com/aidanlsb/arbor/internal/reconcile"
)

// StateDir is the per-project directory holding the lock file, index and
// audit log.
const StateDir = ".arbor"

// ErrIndexDisabled is returned by mapping operations when index: false.
var ErrIndexDisabled = errors.New("mapping index is disabled in arbor.yaml")

// Options configure Open.
type Options struct {
	// Config overrides arbor.yaml.
	Config *config.ProjectConfig
	// FS overrides the generation root filesystem.
	FS billy.Filesystem
	// Now overrides the clock used for archive names and audit entries.
	Now func() time.Time
	// Debug enables diagnostics on stderr.
	Debug bool
}

// Service serves every arbor operation for one project.
type Service struct {
	projectPath string
	cfg         *config.ProjectConfig
	registry    *classify.Registry
	classify    classify.Options
	store       *canon.Store
	reconciler  *reconcile.Reconciler
	engine      *mutate.Engine
	db          *index.Database
	audit       *audit.Logger
	debug       bool

	mu     sync.RWMutex
	cached *Snapshot
	// gen counts invalidations; a parse started under an older gen is
	// never cached.
	gen uint64
}

// Snapshot is one parse of the canonical source.
type Snapshot struct {
	Graph *graph.Graph
	Parse *parser.Result
	// Title is the document's first top-level heading.
	Title string
	// Version is the canonical file revision this snapshot was parsed from.
	Version canon.Version
}

// Open loads the project at projectPath.
func Open(projectPath string, opts Options) (*Service, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, fmt.Errorf("resolve project path: %w", err)
	}

	cfg := opts.Config
	if cfg == nil {
		cfg, err = config.LoadProject(abs)
		if err != nil {
			return nil, err
		}
	}

	registry, err := classify.Load(abs)
	if err != nil {
		return nil, err
	}

	fs := opts.FS
	if fs == nil {
		fs = osfs.New(cfg.GenerationDir(abs))
	}

	s := &Service{
		projectPath: abs,
		cfg:         cfg,
		registry:    registry,
		classify: classify.Options{
			MaterializeLayers: cfg.MaterializeLayers,
			DefaultLayers:     cfg.DefaultLayers,
		},
		store: canon.NewStore(cfg.CanonicalFile(abs), filepath.Join(abs, StateDir, "canon.lock")),
		reconciler: reconcile.New(fs, reconcile.Options{
			ArchiveDir:     cfg.ArchiveDir,
			DescriptorName: cfg.DescriptorName,
			Now:            opts.Now,
		}),
		audit: audit.New(abs, cfg.AuditEnabled()),
		debug: opts.Debug,
	}

	if cfg.IndexEnabled() {
		s.db, err = index.Open(abs)
		if err != nil {
			return nil, fmt.Errorf("open index: %w", err)
		}
	}

	s.engine = mutate.NewEngine(s.store, s, s.reconciler)
	s.engine.DefaultLayers = s.defaultLayers()
	s.engine.Trace = func(op string, st mutate.State) {
		s.logDebug("%s: %s", op, st)
	}
	return s, nil
}

// Close releases the index.
func (s *Service) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ProjectPath returns the absolute project root.
func (s *Service) ProjectPath() string {
	return s.projectPath
}

// Config returns the effective project configuration.
func (s *Service) Config() *config.ProjectConfig {
	return s.cfg
}

// CanonicalPath returns the absolute canonical file path.
func (s *Service) CanonicalPath() string {
	return s.store.Path()
}

// Canonical returns the raw canonical file content.
func (s *Service) Canonical() ([]byte, error) {
	return s.store.Read()
}

func (s *Service) defaultLayers() []string {
	if len(s.cfg.DefaultLayers) > 0 {
		return append([]string(nil), s.cfg.DefaultLayers...)
	}
	return s.registry.DefaultLayers()
}

// Snapshot returns the cached parse while the canonical file is unchanged on
// disk, and re-parses it otherwise.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	s.mu.RLock()
	cached := s.cached
	s.mu.RUnlock()
	if cached != nil {
		v, err := s.store.Stat()
		if err != nil {
			return nil, err
		}
		if v.Equal(cached.Version) {
			return cached, nil
		}
		s.logDebug("canonical source changed on disk, re-parsing")
	}
	return s.parse(ctx)
}

// Invalidate drops the cached graph so the next read re-parses.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.gen++
	s.mu.Unlock()
}

// Reload invalidates the cache and re-parses the canonical source.
func (s *Service) Reload(ctx context.Context) (*graph.Graph, error) {
	s.Invalidate()
	snap, err := s.parse(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Graph, nil
}

func (s *Service) parse(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	data, version, err := s.store.ReadVersion()
	if err != nil {
		return nil, err
	}
	res, err := parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.store.Path(), err)
	}

	g := graph.Build(res.Entities)
	s.registry.Apply(g, s.classify)
	snap := &Snapshot{Graph: g, Parse: res, Title: parser.Title(string(data)), Version: version}

	if !s.storeSnapshot(snap, gen) {
		s.logDebug("discarding parse superseded by a newer snapshot")
		return snap, nil
	}

	s.refreshIndex(g)
	s.logDebug("parsed %d entities (%d skipped lines)", g.Len(), len(res.Skipped))
	return snap, nil
}

// storeSnapshot caches snap unless an invalidation happened after the parse
// began or the cache already holds a later revision.
func (s *Service) storeSnapshot(snap *Snapshot, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	if s.cached != nil && snap.Version.ModTime.Before(s.cached.Version.ModTime) {
		return false
	}
	s.cached = snap
	return true
}

// refreshIndex records the entity snapshot and recomputes orphan status.
// Index failures never fail the parse that triggered them.
func (s *Service) refreshIndex(g *graph.Graph) {
	if s.db == nil {
		return
	}
	if err := s.db.SnapshotEntities(g.All()); err != nil {
		s.logDebug("index snapshot failed: %v", err)
		return
	}
	n, err := s.db.MarkOrphans(paths.LayerPaths(g))
	if err != nil {
		s.logDebug("orphan refresh failed: %v", err)
		return
	}
	if n > 0 {
		s.logDebug("%d mappings orphaned", n)
	}
}

// logDebug logs a debug message if debug mode is enabled.
func (s *Service) logDebug(format string, args ...interface{}) {
	if s.debug {
		fmt.Fprintf(os.Stderr, "[arbor] "+format+"\n", args...)
	}
}
