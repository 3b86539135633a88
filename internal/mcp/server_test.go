package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/canon"
	"github.com/aidanlsb/arbor/internal/mutate"
	"github.com/aidanlsb/arbor/internal/reconcile"
	"github.com/aidanlsb/arbor/internal/testutil"
)

func connect(t *testing.T, p *testutil.TestProject) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	svc, err := arch.Open(p.Path, arch.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	_, err = NewServer(svc, false).MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (map[string]any, bool) {
	t.Helper()
	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out, res.IsError
}

func TestListTools(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	session := connect(t, p)

	res, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		ToolAnalyze, ToolGenerate, ToolGuidance, ToolInsertEntity,
		ToolLookup, ToolRemoveEntity, ToolValidate,
	}, names)
}

func TestAnalyzeTool(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	session := connect(t, p)

	out, isErr := call(t, session, ToolAnalyze, map[string]any{})
	assert.False(t, isErr)
	assert.Equal(t, float64(7), out["entity_count"])
}

func TestInsertAndRemoveTools(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	session := connect(t, p)

	out, isErr := call(t, session, ToolInsertEntity, map[string]any{
		"entity_name":     "Cache",
		"domain":          "Core",
		"proposed_number": "1.3",
		"layers":          []string{"Core"},
	})
	require.False(t, isErr, "%v", out)
	assert.Equal(t, "1.3", out["number_assigned"])
	p.AssertDirExists(p.Generated("Core/Cache"))

	out, isErr = call(t, session, ToolRemoveEntity, map[string]any{
		"entity_name":  "Cache",
		"cleanup_mode": "delete",
	})
	require.False(t, isErr, "%v", out)
	assert.Equal(t, float64(2), out["lines_removed"])
	p.AssertDirNotExists(p.Generated("Core/Cache"))
}

func TestInsertAssignsNextNumber(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	session := connect(t, p)

	out, isErr := call(t, session, ToolInsertEntity, map[string]any{
		"entity_name": "Gateway",
		"domain":      "Edge",
		"layers":      []string{"Api"},
	})
	require.False(t, isErr, "%v", out)
	assert.Equal(t, "2.1", out["number_assigned"])
	p.AssertTreeContains("2.1 📁 Gateway/")
}

func TestInsertRejectedIsToolError(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	session := connect(t, p)

	out, isErr := call(t, session, ToolInsertEntity, map[string]any{
		"entity_name":     "Twin",
		"domain":          "Core",
		"proposed_number": "1.1",
	})
	assert.True(t, isErr)
	payload := out["error"].(map[string]any)
	assert.Equal(t, "MUTATION_REJECTED", payload["code"])
}

func TestGenerateFullNeedsConfirm(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	session := connect(t, p)

	out, isErr := call(t, session, ToolGenerate, map[string]any{"mode": "full"})
	assert.True(t, isErr)
	payload := out["error"].(map[string]any)
	assert.Equal(t, "CONFIRMATION_REQUIRED", payload["code"])
}

func TestGuidanceTool(t *testing.T) {
	p := testutil.NewTestProject(t).WithTree(testutil.SampleTree()).Build()
	session := connect(t, p)

	out, isErr := call(t, session, ToolGuidance, map[string]any{"question": "where do adapters go?"})
	assert.False(t, isErr)
	assert.Equal(t, "where do adapters go?", out["question"])
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{reconcile.ErrConfirmationRequired, "CONFIRMATION_REQUIRED"},
		{canon.ErrNotFound, "CANONICAL_NOT_FOUND"},
		{&mutate.RejectedError{Reason: "taken"}, "MUTATION_REJECTED"},
		{&mutate.StateError{State: mutate.StateReconciling, Err: errors.New("disk full")}, "RECONCILE_PARTIAL"},
		{errors.New("boom"), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		code, _ := errorCode(tt.err)
		assert.Equal(t, tt.want, code, "err = %v", tt.err)
	}
}
