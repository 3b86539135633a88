package arch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aidanlsb/arbor/internal/audit"
	"github.com/aidanlsb/arbor/internal/canon"
	"github.com/aidanlsb/arbor/internal/check"
	"github.com/aidanlsb/arbor/internal/classify"
	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/index"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/mutate"
	"github.com/aidanlsb/arbor/internal/parser"
	"github.com/aidanlsb/arbor/internal/paths"
	"github.com/aidanlsb/arbor/internal/reconcile"
)

// Analysis summarizes one parse of the canonical source.
type Analysis struct {
	CanonicalPath string        `json:"canonical_path"`
	Title         string        `json:"title,omitempty"`
	EntityCount   int           `json:"entity_count"`
	Graph         graph.Stats   `json:"graph"`
	Lines         parser.Stats  `json:"lines"`
	Skipped       []parser.Skip `json:"skipped"`
}

// Analyze parses the canonical source and reports what it contains.
func (s *Service) Analyze(ctx context.Context) (*Analysis, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	skipped := snap.Parse.Skipped
	if skipped == nil {
		skipped = []parser.Skip{}
	}
	stats := snap.Graph.Stats()
	return &Analysis{
		CanonicalPath: s.store.Path(),
		Title:         snap.Title,
		EntityCount:   stats.Entities,
		Graph:         stats,
		Lines:         snap.Parse.Stats,
		Skipped:       skipped,
	}, nil
}

// Entities returns the parsed entities in source order.
func (s *Service) Entities(ctx context.Context) ([]*model.Entity, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Graph.All(), nil
}

// ValidationReport combines the structural report with the filesystem
// comparison.
type ValidationReport struct {
	Valid      bool                  `json:"valid"`
	Issues     []check.Issue         `json:"issues"`
	Score      int                   `json:"score"`
	Filesystem *reconcile.Validation `json:"filesystem"`
}

// Validate checks the tree's structure and compares it with the generation
// root without modifying anything.
func (s *Service) Validate(ctx context.Context) (*ValidationReport, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	report := check.Validate(snap.Graph)
	fsReport, err := s.reconciler.Validate(ctx, snap.Graph)
	if err != nil {
		return nil, fmt.Errorf("compare generation root: %w", err)
	}
	return &ValidationReport{
		Valid:      report.Valid,
		Issues:     report.Issues,
		Score:      report.Score,
		Filesystem: fsReport,
	}, nil
}

// GenerateResult is the outcome of Generate. Exactly one of Result and
// Validation is set, depending on the mode.
type GenerateResult struct {
	Mode       reconcile.Mode        `json:"mode"`
	Result     *reconcile.Result     `json:"result,omitempty"`
	Validation *reconcile.Validation `json:"validation,omitempty"`
	Success    bool                  `json:"success"`
}

// Generate reconciles the generation root with the tree. Validate mode
// only reports; full mode wipes the root first and requires confirmed.
// On a partial failure the result is returned together with the error, and
// the directories created so far are listed in it.
func (s *Service) Generate(ctx context.Context, mode reconcile.Mode, confirmed bool) (*GenerateResult, error) {
	if _, err := reconcile.ParseMode(string(mode)); err != nil {
		return nil, &mutate.RejectedError{Reason: err.Error()}
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := &GenerateResult{Mode: mode}
	switch mode {
	case reconcile.ModeValidate:
		v, err := s.reconciler.Validate(ctx, snap.Graph)
		if err != nil {
			return nil, err
		}
		out.Validation = v
		out.Success = true
		return out, nil
	case reconcile.ModeFull:
		out.Result = s.reconciler.Full(ctx, snap.Graph, confirmed)
	default:
		out.Result = s.reconciler.Incremental(ctx, snap.Graph)
	}
	out.Success = out.Result.Success

	s.logAudit(audit.OpGenerate, "", "", out.Result.Err, map[string]any{
		"mode":    string(mode),
		"created": len(out.Result.CreatedPaths),
	})
	return out, out.Result.Err
}

// InsertEntity adds an Object or Domain to the canonical source and
// materializes it.
func (s *Service) InsertEntity(ctx context.Context, spec mutate.InsertSpec) (*mutate.InsertResult, error) {
	res, err := s.engine.Insert(ctx, spec)
	var extra map[string]any
	if res != nil && res.Reconcile != nil {
		extra = map[string]any{"created": res.Reconcile.CreatedPaths}
	}
	s.logAudit(audit.OpInsert, spec.Name, string(spec.Number), err, extra)
	return res, err
}

// NextNumber returns the first unused object number in the named domain.
func (s *Service) NextNumber(ctx context.Context, domain string) (model.Number, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	name := parser.NormalizeName(domain)
	for _, d := range snap.Graph.ByKind(model.KindDomain) {
		if d.Name != name {
			continue
		}
		i := 1
		for snap.Graph.Has(d.Number.Child(i)) {
			i++
		}
		return d.Number.Child(i), nil
	}
	return "", &mutate.RejectedError{Reason: fmt.Sprintf("domain %s not found", domain)}
}

// RemoveEntity deletes the named entity and its nested lines, then applies
// mode to its directory.
func (s *Service) RemoveEntity(ctx context.Context, name string, mode reconcile.CleanupMode) (*mutate.RemoveResult, error) {
	res, err := s.engine.Remove(ctx, name, mode)
	number := ""
	var extra map[string]any
	if res != nil {
		number = res.Number
		extra = map[string]any{"cleanup": string(res.Cleanup.Mode), "lines_removed": res.LinesRemoved}
		if res.Cleanup.ArchivedTo != "" {
			extra["archived_to"] = res.Cleanup.ArchivedTo
		}
	}
	s.logAudit(audit.OpRemove, name, number, err, extra)
	return res, err
}

// Lookup answers the hyperlinker's question for one entity name. A missing
// canonical source still answers from the registry.
func (s *Service) Lookup(ctx context.Context, name string) (classify.HyperlinkInfo, error) {
	var g *graph.Graph
	snap, err := s.Snapshot(ctx)
	switch {
	case err == nil:
		g = snap.Graph
	case errors.Is(err, canon.ErrNotFound):
	default:
		return classify.HyperlinkInfo{}, err
	}
	return s.registry.HyperlinkLookup(g, name, s.classify), nil
}

// MapCodeEntities records where each extracted code entity lives. File
// paths may be absolute (inside the project) or relative to the project
// root.
func (s *Service) MapCodeEntities(ctx context.Context, records []model.CodeEntity) (*index.MapResult, error) {
	if s.db == nil {
		return nil, ErrIndexDisabled
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	normalized := make([]model.CodeEntity, len(records))
	for i, r := range records {
		r.FilePath = s.projectRelative(r.FilePath)
		normalized[i] = r
	}

	res, err := s.db.RecordMappings(normalized, s.cfg.GenerationRoot)
	if err != nil {
		s.logAudit(audit.OpMap, "", "", err, nil)
		return nil, err
	}
	if _, err := s.db.MarkOrphans(paths.LayerPaths(snap.Graph)); err != nil {
		return nil, err
	}
	s.logAudit(audit.OpMap, "", "", nil, map[string]any{
		"mapped":   len(res.Mapped),
		"unmapped": len(res.Unmapped),
	})
	return res, nil
}

// Orphans lists mappings whose layer no longer exists in the tree.
func (s *Service) Orphans(ctx context.Context) ([]index.Mapping, error) {
	if s.db == nil {
		return nil, ErrIndexDisabled
	}
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.MarkOrphans(paths.LayerPaths(snap.Graph)); err != nil {
		return nil, err
	}
	orphans, err := s.db.Orphans()
	if err != nil {
		return nil, err
	}
	if orphans == nil {
		orphans = []index.Mapping{}
	}
	return orphans, nil
}

// History returns audit log entries at or after since; a zero since returns
// the whole log.
func (s *Service) History(since time.Time) ([]audit.Entry, error) {
	if since.IsZero() {
		return s.audit.Read()
	}
	return s.audit.ReadSince(since)
}

func (s *Service) projectRelative(p string) string {
	if !filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(s.projectPath, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

func (s *Service) logAudit(op, name, number string, opErr error, extra map[string]any) {
	if err := s.audit.LogResult(op, name, number, opErr, extra); err != nil {
		s.logDebug("audit: %v", err)
	}
}
