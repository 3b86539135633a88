package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/arbor/internal/reconcile"
	"github.com/aidanlsb/arbor/internal/testutil"
)

var captureStdoutMu sync.Mutex

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	captureStdoutMu.Lock()
	defer captureStdoutMu.Unlock()

	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	outputCh := make(chan string, 1)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		_ = r.Close()
		outputCh <- buf.String()
	}()

	defer func() { os.Stdout = orig }()
	fn()
	_ = w.Close()
	return <-outputCh
}

// resetFlags restores every flag-bound global to its default.
func resetFlags() {
	projectName = ""
	projectPathFlag = ""
	configPath = ""
	debugOutput = false
	jsonOutput = false
	resolvedProjectPath = ""
	analyzeEntities = false
	validateStrict = false
	generateMode = reconcile.ModeIncremental
	generateConfirm = false
	addDomain, addNumber, addDescription, addClassification = "", "", "", ""
	addLayers = nil
	removeCleanup = reconcile.CleanupArchive
	mapFile = ""
	historyLimit = 20
	historySince = 0
	initRegister = ""
}

// runArb executes the root command with an isolated global config and
// returns stdout and the command error.
func runArb(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	cfgFile := filepath.Join(t.TempDir(), "config.toml")
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	var runErr error
	out := captureStdout(t, func() {
		runErr = rootCmd.Execute()
	})
	return out, runErr
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *ErrorInfo      `json:"error"`
	Meta  *Meta           `json:"meta"`
}

func runJSON(t *testing.T, args ...string) envelope {
	t.Helper()
	out, err := runArb(t, append(args, "--json")...)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	return env
}

func sampleProject(t *testing.T) *testutil.TestProject {
	t.Helper()
	return testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
}

func TestAnalyzeJSON(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "analyze", "--project-path", p.Path, "--entities")
	require.True(t, env.OK)

	var data struct {
		Analysis struct {
			EntityCount int `json:"entity_count"`
		} `json:"analysis"`
		Entities []struct {
			Name   string `json:"name"`
			Number string `json:"number"`
			Kind   string `json:"kind"`
		} `json:"entities"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 7, data.Analysis.EntityCount)
	require.Len(t, data.Entities, 7)
	assert.Equal(t, "Core", data.Entities[0].Name)
	assert.Equal(t, "domain", data.Entities[0].Kind)
}

func TestAnalyzeMissingCanonical(t *testing.T) {
	p := testutil.NewTestProject(t).Build()

	env := runJSON(t, "analyze", "--project-path", p.Path)
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCanonicalNotFound, env.Error.Code)
}

func TestGenerateThenValidate(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "generate", "--project-path", p.Path)
	require.True(t, env.OK)
	assert.Equal(t, 4, env.Meta.Count)
	p.AssertDirExists(p.Generated("Core/Router"))

	env = runJSON(t, "validate", "--project-path", p.Path, "--strict")
	require.True(t, env.OK)
	var report struct {
		Valid      bool `json:"valid"`
		Filesystem struct {
			MissingPaths []string `json:"missing_paths"`
			Score        int      `json:"score"`
		} `json:"filesystem"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.True(t, report.Valid)
	assert.Empty(t, report.Filesystem.MissingPaths)
	assert.Equal(t, 100, report.Filesystem.Score)
}

func TestValidateStrictFailsOnMissingDirectories(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "validate", "--project-path", p.Path, "--strict")
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrValidationFailed, env.Error.Code)
}

func TestGenerateFullRequiresConfirm(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "generate", "--project-path", p.Path, "--mode", "full")
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrConfirmationRequired, env.Error.Code)
	p.AssertDirNotExists(p.Generated("Core"))

	env = runJSON(t, "generate", "--project-path", p.Path, "--mode", "full", "--confirm")
	assert.True(t, env.OK)
	p.AssertDirExists(p.Generated("Core"))
}

func TestGenerateRejectsUnknownMode(t *testing.T) {
	p := sampleProject(t)

	_, err := runArb(t, "generate", "--project-path", p.Path, "--mode", "sideways")
	assert.Error(t, err)
}

func TestAddAndRemove(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "add", "Cache", "--domain", "Core", "--layer", "Api", "--project-path", p.Path)
	require.True(t, env.OK, "error: %+v", env.Error)
	var added struct {
		NumberAssigned string `json:"number_assigned"`
		LinesAdded     int    `json:"lines_added"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.Equal(t, "1.3", added.NumberAssigned)
	assert.Equal(t, 2, added.LinesAdded)
	p.AssertTreeContains("1.3 📁 Cache/")
	p.AssertTreeContains("1.3.1 Api")
	p.AssertDirExists(p.Generated("Core/Cache"))

	env = runJSON(t, "remove", "Cache", "--cleanup", "delete", "--project-path", p.Path)
	require.True(t, env.OK, "error: %+v", env.Error)
	var removed struct {
		Number       string `json:"number"`
		LinesRemoved int    `json:"lines_removed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &removed))
	assert.Equal(t, "1.3", removed.Number)
	assert.Equal(t, 2, removed.LinesRemoved)
	p.AssertTreeNotContains("Cache")
	p.AssertDirNotExists(p.Generated("Core/Cache"))

	assert.Equal(t, testutil.SampleTree(), p.Tree())
}

func TestAddRejectsTakenName(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "add", "Router", "--domain", "Core", "--project-path", p.Path)
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrMutationRejected, env.Error.Code)
	assert.Equal(t, testutil.SampleTree(), p.Tree())
}

func TestRemoveUnknownEntity(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "remove", "Nope", "--project-path", p.Path)
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Contains(t, []string{ErrEntityNotFound, ErrMutationRejected}, env.Error.Code)
}

func TestLookup(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "lookup", "Router", "--project-path", p.Path)
	require.True(t, env.OK)
	var info struct {
		Found       bool   `json:"found"`
		Materialize bool   `json:"materialize"`
		Description string `json:"description"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.True(t, info.Found)
	assert.True(t, info.Materialize)
	assert.Equal(t, "Request routing", info.Description)
}

func TestHistoryRecordsOperations(t *testing.T) {
	p := sampleProject(t)

	runJSON(t, "generate", "--project-path", p.Path)
	env := runJSON(t, "history", "--project-path", p.Path)
	require.True(t, env.OK)
	assert.Equal(t, 1, env.Meta.Count)
}

func TestMapRequiresFile(t *testing.T) {
	p := sampleProject(t)

	env := runJSON(t, "map", "--project-path", p.Path)
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrMissingArgument, env.Error.Code)
}

func TestReadCodeEntities(t *testing.T) {
	stdin := strings.NewReader(`[{"name":"Route","kind":"function","filePath":"Project/Core/Router/Api/route.go","lineNumber":12}]`)
	records, err := readCodeEntities(stdin, "-")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Project/Core/Router/Api/route.go:Route", records[0].ID())

	_, err = readCodeEntities(strings.NewReader("{"), "-")
	assert.Error(t, err)
}

func TestInitCreatesProject(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "proj")

	env := runJSON(t, "init", dir)
	require.True(t, env.OK, "error: %+v", env.Error)
	var res initResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.CreatedConfig)
	assert.True(t, res.CreatedCanonical)
	assert.Equal(t, "created", res.Gitignore)

	assert.FileExists(t, filepath.Join(dir, "arbor.yaml"))
	assert.FileExists(t, filepath.Join(dir, filepath.FromSlash(testutil.CanonicalPath)))
	assert.DirExists(t, filepath.Join(dir, ".arbor"))

	// The skeleton is a valid tree with one domain.
	env = runJSON(t, "analyze", "--project-path", dir)
	require.True(t, env.OK)
	assert.Contains(t, string(env.Data), `"entity_count": 1`)

	// Re-running keeps existing files.
	env = runJSON(t, "init", dir)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.CreatedConfig)
	assert.False(t, res.CreatedCanonical)
	assert.Equal(t, "unchanged", res.Gitignore)
}

func TestEnsureGitignoreAppends(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("bin/\n"), 0o644))

	status, err := ensureGitignore(dir)
	require.NoError(t, err)
	assert.Equal(t, "updated", status)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "bin/\n"))
	assert.Contains(t, string(data), ".arbor/\n")
}

func TestCurrentVersionInfoFromBuildInfo(t *testing.T) {
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{
			GoVersion: "go1.25.0",
			Main:      debug.Module{Path: "example.com/fork/arbor"},
			Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc123"},
				{Key: "vcs.modified", Value: "true"},
			},
		}, true
	}

	info := currentVersionInfo()
	assert.Equal(t, "example.com/fork/arbor", info.ModulePath)
	assert.Equal(t, "go1.25.0", info.GoVersion)
	assert.Equal(t, "abc123", info.Commit)
	assert.True(t, info.Dirty)
}
