// Package reconcile brings the generation root into agreement with the
// entity graph.
//
// Reconciliation is create-if-absent and never rolls back: a pass that fails
// partway keeps what it already created, and running it again picks up where
// it stopped.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/aidanlsb/arbor/internal/descriptor"
	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/paths"
)

// ErrConfirmationRequired is returned by Full when the caller did not confirm.
var ErrConfirmationRequired = errors.New("full regeneration deletes the generation root and must be confirmed")

const dirPerm = 0o755

// Options configure a Reconciler.
type Options struct {
	// ArchiveDir is relative to the generation root.
	ArchiveDir string
	// DescriptorName is the file written into each created directory.
	DescriptorName string
	// Now is used for archive timestamps.
	Now func() time.Time
}

// Reconciler creates and inspects directories below one generation root.
type Reconciler struct {
	fs             billy.Filesystem
	archiveDir     string
	descriptorName string
	now            func() time.Time
}

// New creates a reconciler over fs, which must be rooted at the generation
// root.
func New(fs billy.Filesystem, opts Options) *Reconciler {
	r := &Reconciler{
		fs:             fs,
		archiveDir:     strings.Trim(opts.ArchiveDir, "/"),
		descriptorName: opts.DescriptorName,
		now:            opts.Now,
	}
	if r.archiveDir == "" {
		r.archiveDir = "archived"
	}
	if r.descriptorName == "" {
		r.descriptorName = descriptor.DefaultName
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Counts tallies what a pass did with each entity.
type Counts struct {
	Created           int `json:"created"`
	SkippedExisting   int `json:"skipped_existing"`
	Unresolved        int `json:"unresolved"`
	NotMaterializable int `json:"not_materializable"`
}

// Result is the outcome of an incremental or full pass.
type Result struct {
	Mode               Mode     `json:"mode"`
	CreatedPaths       []string `json:"created_paths"`
	DescriptorsWritten []string `json:"descriptors_written"`
	Counts             Counts   `json:"counts"`
	Success            bool     `json:"success"`
	Err                error    `json:"-"`
}

// Error returns the failure message, if any.
func (r *Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Drift is an object descriptor whose recorded layers disagree with the tree.
type Drift struct {
	Path     string   `json:"path"`
	Recorded []string `json:"recorded"`
	Declared []string `json:"declared"`
}

// Validation compares the graph against the filesystem.
type Validation struct {
	MissingPaths    []string `json:"missing_paths"`
	ExistingPaths   []string `json:"existing_paths"`
	ExtraPaths      []string `json:"extra_paths"`
	DescriptorDrift []Drift  `json:"descriptor_drift"`
	Counts          Counts   `json:"counts"`
	Score           int      `json:"score"`
}

// Score is 100 minus 5 per missing path, floored at zero.
func Score(missing int) int {
	score := 100 - 5*missing
	if score < 0 {
		return 0
	}
	return score
}

type target struct {
	entity *model.Entity
	path   string
}

// targets lists the materializable entities that resolve, in source order.
func (r *Reconciler) targets(g *graph.Graph, counts *Counts) []target {
	var out []target
	for _, e := range g.All() {
		if !e.Materializable() {
			counts.NotMaterializable++
			continue
		}
		segs, ok := paths.Resolve(g, e)
		if !ok {
			counts.Unresolved++
			continue
		}
		out = append(out, target{entity: e, path: paths.Join("", segs)})
	}
	return out
}

// Validate reports missing, existing and unexpected directories without
// touching the filesystem.
func (r *Reconciler) Validate(ctx context.Context, g *graph.Graph) (*Validation, error) {
	v := &Validation{
		MissingPaths:    []string{},
		ExistingPaths:   []string{},
		ExtraPaths:      []string{},
		DescriptorDrift: []Drift{},
	}

	expected := make(map[string]struct{})
	for _, t := range r.targets(g, &v.Counts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		expected[t.path] = struct{}{}

		exists, err := r.dirExists(t.path)
		if err != nil {
			return nil, err
		}
		if !exists {
			v.MissingPaths = append(v.MissingPaths, t.path)
			continue
		}
		v.ExistingPaths = append(v.ExistingPaths, t.path)
		v.Counts.SkippedExisting++

		if t.entity.Kind == model.KindObject {
			drift, err := r.checkDescriptor(t)
			if err != nil {
				return nil, err
			}
			if drift != nil {
				v.DescriptorDrift = append(v.DescriptorDrift, *drift)
			}
		}
	}

	extra, err := r.extraDirs(expected)
	if err != nil {
		return nil, err
	}
	v.ExtraPaths = extra
	v.Score = Score(len(v.MissingPaths))
	return v, nil
}

// Incremental creates every missing directory and its descriptor. Existing
// directories are left untouched. Cancellation is honored between entities.
func (r *Reconciler) Incremental(ctx context.Context, g *graph.Graph) *Result {
	res := &Result{
		Mode:               ModeIncremental,
		CreatedPaths:       []string{},
		DescriptorsWritten: []string{},
	}

	for _, t := range r.targets(g, &res.Counts) {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		exists, err := r.dirExists(t.path)
		if err != nil {
			res.Err = err
			return res
		}
		if exists {
			res.Counts.SkippedExisting++
			continue
		}

		if err := r.fs.MkdirAll(t.path, dirPerm); err != nil {
			res.Err = fmt.Errorf("create %s: %w", t.path, err)
			return res
		}
		res.CreatedPaths = append(res.CreatedPaths, t.path)
		res.Counts.Created++

		descPath := path.Join(t.path, r.descriptorName)
		body := descriptor.Render(descriptor.FromEntity(t.entity))
		if err := util.WriteFile(r.fs, descPath, body, 0o644); err != nil {
			res.Err = fmt.Errorf("write descriptor %s: %w", descPath, err)
			return res
		}
		res.DescriptorsWritten = append(res.DescriptorsWritten, descPath)
	}

	res.Success = true
	return res
}

// Full deletes everything below the generation root and regenerates it.
func (r *Reconciler) Full(ctx context.Context, g *graph.Graph, confirmed bool) *Result {
	if !confirmed {
		return &Result{Mode: ModeFull, CreatedPaths: []string{}, DescriptorsWritten: []string{}, Err: ErrConfirmationRequired}
	}

	if err := r.wipe(); err != nil {
		return &Result{Mode: ModeFull, CreatedPaths: []string{}, DescriptorsWritten: []string{}, Err: err}
	}

	res := r.Incremental(ctx, g)
	res.Mode = ModeFull
	return res
}

func (r *Reconciler) wipe() error {
	entries, err := r.fs.ReadDir("/")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read generation root: %w", err)
	}
	for _, entry := range entries {
		if err := util.RemoveAll(r.fs, entry.Name()); err != nil {
			return fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (r *Reconciler) dirExists(p string) (bool, error) {
	info, err := r.fs.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", p, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s exists and is not a directory", p)
	}
	return true, nil
}

func (r *Reconciler) checkDescriptor(t target) (*Drift, error) {
	descPath := path.Join(t.path, r.descriptorName)
	data, err := util.ReadFile(r.fs, descPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read descriptor %s: %w", descPath, err)
	}

	recorded := descriptor.Parse(data).Layers
	var declared []string
	if t.entity.Classification != nil {
		declared = t.entity.Classification.Layers
	}
	if descriptor.SameLayers(recorded, declared) {
		return nil, nil
	}
	return &Drift{Path: descPath, Recorded: recorded, Declared: declared}, nil
}

// extraDirs lists directories at depth one and two that no entity maps to.
func (r *Reconciler) extraDirs(expected map[string]struct{}) ([]string, error) {
	extra := []string{}

	top, err := r.subdirs("")
	if err != nil {
		return nil, err
	}
	for _, domain := range top {
		if domain == r.archiveDir || strings.HasPrefix(domain, ".") {
			continue
		}
		if _, ok := expected[domain]; !ok {
			extra = append(extra, domain)
			continue
		}
		children, err := r.subdirs(domain)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			p := path.Join(domain, child)
			if _, ok := expected[p]; !ok {
				extra = append(extra, p)
			}
		}
	}

	sort.Strings(extra)
	return extra, nil
}

func (r *Reconciler) subdirs(dir string) ([]string, error) {
	if dir == "" {
		dir = "/"
	}
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			out = append(out, entry.Name())
		}
	}
	return out, nil
}
