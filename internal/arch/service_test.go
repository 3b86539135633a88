package arch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/arbor/internal/audit"
	"github.com/aidanlsb/arbor/internal/canon"
	"github.com/aidanlsb/arbor/internal/check"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/mutate"
	"github.com/aidanlsb/arbor/internal/reconcile"
	"github.com/aidanlsb/arbor/internal/testutil"
)

func openProject(t *testing.T, p *testutil.TestProject) *Service {
	t.Helper()
	svc, err := Open(p.Path, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestAnalyze(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)

	a, err := svc.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, a.EntityCount)
	assert.Equal(t, "Project Structure", a.Title)
	assert.Equal(t, 2, a.Graph.CountsByKind[model.KindDomain])
	assert.Equal(t, 2, a.Graph.CountsByKind[model.KindObject])
	assert.Equal(t, 3, a.Graph.CountsByKind[model.KindLayer])
	assert.Equal(t, 3, a.Graph.MaxDepth)
	assert.Empty(t, a.Skipped)
}

func TestAnalyzeMissingCanonical(t *testing.T) {
	p := testutil.NewTestProject(t).Build()
	svc := openProject(t, p)

	_, err := svc.Analyze(context.Background())
	assert.True(t, errors.Is(err, canon.ErrNotFound), "err = %v", err)
}

func TestAnalyzeSeesEditsMadeOutsideTheService(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)
	ctx := context.Background()

	before, err := svc.Analyze(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, before.EntityCount)

	edited := strings.Replace(p.Tree(), "└── 2 📁 Edge/", "├── 9 📁 Added_By_Hand/\n└── 2 📁 Edge/", 1)
	require.NoError(t, os.WriteFile(filepath.Join(p.Path, filepath.FromSlash(testutil.CanonicalPath)), []byte(edited), 0o644))

	after, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, after.EntityCount)

	gen, err := svc.Generate(ctx, reconcile.ModeIncremental, false)
	require.NoError(t, err)
	assert.Contains(t, gen.Result.CreatedPaths, "Added_By_Hand")
	p.AssertDirExists(p.Generated("Added_By_Hand"))
}

func TestSupersededParseIsNotCached(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)
	ctx := context.Background()

	fresh, err := svc.Snapshot(ctx)
	require.NoError(t, err)

	svc.mu.RLock()
	staleGen := svc.gen
	svc.mu.RUnlock()
	svc.Invalidate()
	_, err = svc.Reload(ctx)
	require.NoError(t, err)

	stale := &Snapshot{Graph: fresh.Graph, Parse: fresh.Parse, Version: fresh.Version}
	assert.False(t, svc.storeSnapshot(stale, staleGen))

	older := &Snapshot{Version: canon.Version{ModTime: fresh.Version.ModTime.Add(-time.Hour)}}
	svc.mu.RLock()
	curGen := svc.gen
	svc.mu.RUnlock()
	assert.False(t, svc.storeSnapshot(older, curGen))

	svc.mu.RLock()
	defer svc.mu.RUnlock()
	assert.NotSame(t, stale, svc.cached)
	assert.NotSame(t, older, svc.cached)
}

func TestGenerateIncrementalIsIdempotent(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)
	ctx := context.Background()

	first, err := svc.Generate(ctx, reconcile.ModeIncremental, false)
	require.NoError(t, err)
	assert.True(t, first.Success)
	assert.Equal(t, []string{"Core", "Core/Router", "Core/Store", "Edge"}, first.Result.CreatedPaths)
	p.AssertFileContains(p.Generated("Core/Router/README.md"), "Api")

	second, err := svc.Generate(ctx, reconcile.ModeIncremental, false)
	require.NoError(t, err)
	assert.Empty(t, second.Result.CreatedPaths)
	assert.Equal(t, 4, second.Result.Counts.SkippedExisting)
}

func TestGenerateValidateModeDoesNotWrite(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)

	res, err := svc.Generate(context.Background(), reconcile.ModeValidate, false)
	require.NoError(t, err)
	require.NotNil(t, res.Validation)
	assert.Len(t, res.Validation.MissingPaths, 4)
	assert.Equal(t, 80, res.Validation.Score)
	p.AssertDirNotExists(p.Generated("Core"))
}

func TestGenerateFullRequiresConfirmation(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)

	res, err := svc.Generate(context.Background(), reconcile.ModeFull, false)
	assert.ErrorIs(t, err, reconcile.ErrConfirmationRequired)
	assert.False(t, res.Success)
}

func TestGenerateRejectsUnknownMode(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)

	_, err := svc.Generate(context.Background(), reconcile.Mode("sideways"), false)
	assert.True(t, mutate.IsRejected(err))
}

func TestValidateReportsMissingParent(t *testing.T) {
	tree := "├── 4 📁 Processing/\n│   │   ├── 4.2.1 Config\n"
	p := testutil.NewTestProject(t).WithTree(tree).Build()
	svc := openProject(t, p)

	report, err := svc.Validate(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, check.CodeMissingParent, report.Issues[0].Code)
	assert.Equal(t, "Missing parent for 4.2.1: parent 4.2 not found", report.Issues[0].Message)
	assert.Equal(t, 90, report.Score)
	assert.Equal(t, []string{"Processing"}, report.Filesystem.MissingPaths)
}

func TestInsertThenRemoveRestoresState(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)
	ctx := context.Background()

	_, err := svc.Generate(ctx, reconcile.ModeIncremental, false)
	require.NoError(t, err)

	ins, err := svc.InsertEntity(ctx, mutate.InsertSpec{
		Name:        "Cache",
		Domain:      "Core",
		Number:      "1.3",
		Layers:      []string{"Core", "Tests"},
		Description: "Read-through cache",
	})
	require.NoError(t, err)
	assert.True(t, ins.Success)
	assert.Equal(t, "1.3", ins.NumberAssigned)
	assert.Equal(t, 3, ins.LinesAdded)
	assert.Equal(t, []string{"Core/Cache"}, ins.Reconcile.CreatedPaths)
	p.AssertTreeContains("1.3 📁 Cache/")
	p.AssertDirExists(p.Generated("Core/Cache"))

	a, err := svc.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, a.EntityCount)

	rem, err := svc.RemoveEntity(ctx, "Cache", reconcile.CleanupDelete)
	require.NoError(t, err)
	assert.True(t, rem.Success)
	assert.Equal(t, 3, rem.LinesRemoved)
	assert.True(t, rem.Cleanup.Found)
	p.AssertDirNotExists(p.Generated("Core/Cache"))
	p.AssertTreeNotContains("Cache")

	a, err = svc.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, a.EntityCount)

	v, err := svc.Validate(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Filesystem.MissingPaths)
	assert.Empty(t, v.Filesystem.ExtraPaths)

	history, err := svc.History(time.Time{})
	require.NoError(t, err)
	var ops []string
	for _, e := range history {
		ops = append(ops, e.Operation)
	}
	assert.Equal(t, []string{audit.OpGenerate, audit.OpInsert, audit.OpRemove}, ops)

	future, err := svc.History(time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, future)
}

func TestInsertRejected(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)

	res, err := svc.InsertEntity(context.Background(), mutate.InsertSpec{Name: "Dup", Domain: "Core", Number: "1.1"})
	require.Error(t, err)
	assert.True(t, mutate.IsRejected(err))
	assert.False(t, res.Success)
	assert.Equal(t, testutil.SampleTree(), p.Tree())
}

func TestRemoveUnknownEntity(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)

	_, err := svc.RemoveEntity(context.Background(), "Nowhere", reconcile.CleanupPreserve)
	assert.True(t, mutate.IsRejected(err))
}

func TestLookup(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithTree(testutil.SampleTree()).
		WithClassifications(`entities:
  Gateway:
    type: core_object
    project_structure: true
    ascii_tree: true
    hyperlink: true
    description: Public entry point
`).
		Build()
	svc := openProject(t, p)
	ctx := context.Background()

	info, err := svc.Lookup(ctx, "Gateway")
	require.NoError(t, err)
	assert.True(t, info.Found)
	assert.True(t, info.Materialize)
	assert.Equal(t, "Public entry point", info.Description)

	info, err = svc.Lookup(ctx, "Router")
	require.NoError(t, err)
	assert.True(t, info.Found)
	assert.True(t, info.Materialize)
	assert.Equal(t, "Request routing", info.Description)

	info, err = svc.Lookup(ctx, "Unknown")
	require.NoError(t, err)
	assert.False(t, info.Found)
}

func TestMappingsBecomeOrphansAfterPreserveRemoval(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)
	ctx := context.Background()

	res, err := svc.MapCodeEntities(ctx, []model.CodeEntity{
		{Name: "Handler", Kind: "function", FilePath: "Project/Core/Router/Api/handler.go", LineNumber: 12},
		{Name: "Loose", Kind: "function", FilePath: "scripts/tool.go", LineNumber: 1},
	})
	require.NoError(t, err)
	require.Len(t, res.Mapped, 1)
	assert.Equal(t, "Core/Router/Api", res.Mapped[0].LayerPath)
	assert.Len(t, res.Unmapped, 1)

	orphans, err := svc.Orphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)

	_, err = svc.RemoveEntity(ctx, "Router", reconcile.CleanupPreserve)
	require.NoError(t, err)

	orphans, err = svc.Orphans(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "Handler", orphans[0].Name)
}

func TestIndexDisabled(t *testing.T) {
	p := testutil.NewTestProject(t).
		WithTree(testutil.SampleTree()).
		WithArborYAML("index: false\n").
		Build()
	svc := openProject(t, p)

	_, err := svc.Orphans(context.Background())
	assert.ErrorIs(t, err, ErrIndexDisabled)
}

func TestGuidanceEchoesQuestion(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)

	g := svc.Guidance("where does caching go?")
	assert.Equal(t, "where does caching go?", g.Question)
	assert.NotEmpty(t, g.Rules)
}

func TestNextNumber(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	svc := openProject(t, p)
	ctx := context.Background()

	n, err := svc.NextNumber(ctx, "Core")
	require.NoError(t, err)
	assert.Equal(t, model.Number("1.3"), n)

	n, err = svc.NextNumber(ctx, "Edge")
	require.NoError(t, err)
	assert.Equal(t, model.Number("2.1"), n)

	_, err = svc.NextNumber(ctx, "Nowhere")
	assert.True(t, mutate.IsRejected(err))
}
