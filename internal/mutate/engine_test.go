package mutate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/arbor/internal/canon"
	"github.com/aidanlsb/arbor/internal/classify"
	"github.com/aidanlsb/arbor/internal/graph"
	"github.com/aidanlsb/arbor/internal/parser"
	"github.com/aidanlsb/arbor/internal/reconcile"
)

type storeReloader struct {
	store   *canon.Store
	reloads int
	fail    error
}

func (r *storeReloader) Reload(ctx context.Context) (*graph.Graph, error) {
	r.reloads++
	if r.fail != nil {
		return nil, r.fail
	}
	data, err := r.store.Read()
	if err != nil {
		return nil, err
	}
	res, err := parser.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	g := graph.Build(res.Entities)
	classify.New(nil).Apply(g, classify.Options{})
	return g, nil
}

type fixture struct {
	engine   *Engine
	store    *canon.Store
	reloader *storeReloader
	rec      *reconcile.Reconciler
	genRoot  string
	states   []State
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	canonPath := filepath.Join(dir, "Architecture", "ProjectStructure.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(canonPath), 0o755))
	require.NoError(t, os.WriteFile(canonPath, []byte(tree), 0o644))

	genRoot := filepath.Join(dir, "Project")
	require.NoError(t, os.MkdirAll(genRoot, 0o755))

	f := &fixture{genRoot: genRoot}
	f.store = canon.NewStore(canonPath, filepath.Join(dir, ".arbor", "canon.lock"))
	f.reloader = &storeReloader{store: f.store}
	f.rec = reconcile.New(osfs.New(genRoot), reconcile.Options{})
	f.engine = NewEngine(f.store, f.reloader, f.rec)
	f.engine.DefaultLayers = []string{"Config", "Core", "Tests"}
	f.engine.Trace = func(op string, s State) { f.states = append(f.states, s) }
	return f
}

func (f *fixture) dirs(t *testing.T) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(f.genRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && p != f.genRoot {
			rel, _ := filepath.Rel(f.genRoot, p)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func TestEngineInsert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.engine.Insert(ctx, InsertSpec{Name: "Cache", Domain: "Core", Number: "1.3"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "1.3", res.NumberAssigned)
	assert.Equal(t, 4, res.LinesAdded, "object plus three default layers")
	require.NotNil(t, res.Reconcile)
	assert.True(t, res.Reconcile.Success)
	assert.Contains(t, res.Reconcile.CreatedPaths, "Core/Cache")
	assert.DirExists(t, filepath.Join(f.genRoot, "Core", "Cache"))
	assert.Equal(t, 1, f.reloader.reloads)

	assert.Equal(t, []State{StateLocating, StateEditing, StateWriting, StateReparsing, StateReconciling, StateIdle}, f.states)
}

func TestEngineInsertReportsStoredName(t *testing.T) {
	f := newFixture(t)

	res, err := f.engine.Insert(context.Background(), InsertSpec{Name: "Foo Bar", Domain: "Core", Number: "1.3"})
	require.NoError(t, err)
	assert.Equal(t, "Foo_Bar", res.Name)
	assert.Contains(t, res.Reconcile.CreatedPaths, "Core/Foo_Bar")
}

func TestEngineInsertRejected(t *testing.T) {
	f := newFixture(t)
	before, err := f.store.Read()
	require.NoError(t, err)

	res, err := f.engine.Insert(context.Background(), InsertSpec{Name: "Cache", Domain: "Core"})
	require.Error(t, err)
	assert.True(t, IsRejected(err))
	assert.False(t, res.Success)
	assert.Equal(t, 0, f.reloader.reloads)

	var se *StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StateLocating, se.State)
	assert.False(t, se.Written())

	after, err := f.store.Read()
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))
}

func TestEngineReparseFailureKeepsWrite(t *testing.T) {
	f := newFixture(t)
	f.reloader.fail = errors.New("parse exploded")

	_, err := f.engine.Insert(context.Background(), InsertSpec{Name: "Cache", Domain: "Core", Number: "1.3"})
	require.Error(t, err)

	var se *StateError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StateReparsing, se.State)
	assert.True(t, se.Written())

	lines, err := f.store.ReadLines()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, indexOf(lines, "1.3 📁 Cache/"), 0)
}

func TestEngineInsertRemoveInverse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g0, err := f.reloader.Reload(ctx)
	require.NoError(t, err)
	require.True(t, f.rec.Incremental(ctx, g0).Success)
	dirsBefore := f.dirs(t)

	_, err = f.engine.Insert(ctx, InsertSpec{Name: "Cache", Domain: "Core", Number: "1.3", Layers: []string{"Core"}})
	require.NoError(t, err)

	res, err := f.engine.Remove(ctx, "Cache", reconcile.CleanupDelete)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.LinesRemoved)
	assert.True(t, res.Cleanup.Found)
	assert.Equal(t, "Core/Cache", res.Cleanup.Path)

	g1, err := f.reloader.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, g0.Len(), g1.Len())
	assert.Equal(t, dirsBefore, f.dirs(t))
}

func TestEngineRemoveArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.reloader.Reload(ctx)
	require.NoError(t, err)
	require.True(t, f.rec.Incremental(ctx, g).Success)

	res, err := f.engine.Remove(ctx, "Router", reconcile.CleanupArchive)
	require.NoError(t, err)
	assert.Equal(t, "2.1", res.Number)
	assert.True(t, res.Cleanup.Found)
	assert.NotEmpty(t, res.Cleanup.ArchivedTo)
	assert.NoDirExists(t, filepath.Join(f.genRoot, "Processing", "Router"))
	assert.DirExists(t, filepath.Join(f.genRoot, filepath.FromSlash(res.Cleanup.ArchivedTo)))
}

func TestEngineRemovePreserve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.reloader.Reload(ctx)
	require.NoError(t, err)
	require.True(t, f.rec.Incremental(ctx, g).Success)

	res, err := f.engine.Remove(ctx, "Planner", reconcile.CleanupPreserve)
	require.NoError(t, err)
	assert.True(t, res.Cleanup.Found)
	assert.DirExists(t, filepath.Join(f.genRoot, "Processing", "Planner"))
}

func TestEngineRemoveNotFound(t *testing.T) {
	f := newFixture(t)
	res, err := f.engine.Remove(context.Background(), "Ghost", reconcile.CleanupArchive)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEntityNotFound)
	assert.False(t, res.Success)
}

func TestEngineRemoveBadMode(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Remove(context.Background(), "Router", reconcile.CleanupMode("shred"))
	assert.True(t, IsRejected(err))
}
