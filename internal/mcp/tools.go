package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aidanlsb/arbor/internal/canon"
	"github.com/aidanlsb/arbor/internal/model"
	"github.com/aidanlsb/arbor/internal/mutate"
	"github.com/aidanlsb/arbor/internal/reconcile"
)

// Tool names.
const (
	ToolAnalyze      = "arbor_analyze"
	ToolGenerate     = "arbor_generate"
	ToolValidate     = "arbor_validate"
	ToolInsertEntity = "arbor_insert_entity"
	ToolRemoveEntity = "arbor_remove_entity"
	ToolLookup       = "arbor_lookup"
	ToolGuidance     = "arbor_guidance"
)

type emptyArgs struct{}

type generateArgs struct {
	Mode    string `json:"mode,omitempty" jsonschema:"validate, incremental (default) or full"`
	Confirm bool   `json:"confirm,omitempty" jsonschema:"required for full mode, which deletes the generation root first"`
}

type insertArgs struct {
	EntityName     string   `json:"entity_name" jsonschema:"name of the new object or domain"`
	Domain         string   `json:"domain" jsonschema:"existing domain the entity belongs to"`
	ProposedNumber string   `json:"proposed_number,omitempty" jsonschema:"dotted number, e.g. 4.3 for an object or 5 for a domain; defaults to the next free object number"`
	Layers         []string `json:"layers,omitempty" jsonschema:"layer names; defaults apply when omitted"`
	Description    string   `json:"description,omitempty" jsonschema:"short description written as the line comment"`
	Classification string   `json:"classification,omitempty" jsonschema:"classification label"`
}

type removeArgs struct {
	EntityName  string `json:"entity_name" jsonschema:"name of the entity to remove"`
	CleanupMode string `json:"cleanup_mode,omitempty" jsonschema:"archive (default), delete or preserve"`
}

type lookupArgs struct {
	EntityName string `json:"entity_name" jsonschema:"entity name to look up"`
}

type guidanceArgs struct {
	Question string `json:"question,omitempty" jsonschema:"architectural question"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolAnalyze,
		Description: "Parse the canonical architecture tree and report entity counts by kind, depth and skipped lines.",
	}, s.analyze)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGenerate,
		Description: "Create missing directories for the tree (incremental), report only (validate), or wipe and regenerate (full, requires confirm).",
	}, s.generate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolValidate,
		Description: "Check tree structure (missing parents, domain numbers, duplicates) and compare it with the generation root.",
	}, s.validate)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolInsertEntity,
		Description: "Insert an object (with layers) or a domain into the canonical tree and create its directories.",
	}, s.insertEntity)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolRemoveEntity,
		Description: "Remove an entity and everything nested under it from the tree, then archive, delete or preserve its directory.",
	}, s.removeEntity)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolLookup,
		Description: "Report whether an entity materializes and may be hyperlinked, with its description.",
	}, s.lookup)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolGuidance,
		Description: "Return the standing rules for placing new components in the architecture.",
	}, s.guidance)
}

func (s *Server) analyze(ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	a, err := s.svc.Analyze(ctx)
	if err != nil {
		return errorResult(err, nil)
	}
	return jsonResult(a)
}

func (s *Server) generate(ctx context.Context, _ *mcp.CallToolRequest, args generateArgs) (*mcp.CallToolResult, any, error) {
	mode := reconcile.ModeIncremental
	if args.Mode != "" {
		m, err := reconcile.ParseMode(args.Mode)
		if err != nil {
			return errorResult(&mutate.RejectedError{Reason: err.Error()}, nil)
		}
		mode = m
	}
	res, err := s.svc.Generate(ctx, mode, args.Confirm)
	if err != nil {
		return errorResult(err, res)
	}
	return jsonResult(res)
}

func (s *Server) validate(ctx context.Context, _ *mcp.CallToolRequest, _ emptyArgs) (*mcp.CallToolResult, any, error) {
	report, err := s.svc.Validate(ctx)
	if err != nil {
		return errorResult(err, nil)
	}
	return jsonResult(report)
}

func (s *Server) insertEntity(ctx context.Context, _ *mcp.CallToolRequest, args insertArgs) (*mcp.CallToolResult, any, error) {
	number := model.Number(args.ProposedNumber)
	if number == "" && args.Domain != "" {
		next, err := s.svc.NextNumber(ctx, args.Domain)
		if err != nil {
			return errorResult(err, nil)
		}
		number = next
	}
	res, err := s.svc.InsertEntity(ctx, mutate.InsertSpec{
		Name:           args.EntityName,
		Domain:         args.Domain,
		Number:         number,
		Layers:         args.Layers,
		Description:    args.Description,
		Classification: args.Classification,
	})
	if err != nil {
		return errorResult(err, res)
	}
	return jsonResult(res)
}

func (s *Server) removeEntity(ctx context.Context, _ *mcp.CallToolRequest, args removeArgs) (*mcp.CallToolResult, any, error) {
	mode := reconcile.CleanupArchive
	if args.CleanupMode != "" {
		m, err := reconcile.ParseCleanupMode(args.CleanupMode)
		if err != nil {
			return errorResult(&mutate.RejectedError{Reason: err.Error()}, nil)
		}
		mode = m
	}
	res, err := s.svc.RemoveEntity(ctx, args.EntityName, mode)
	if err != nil {
		return errorResult(err, res)
	}
	return jsonResult(res)
}

func (s *Server) lookup(ctx context.Context, _ *mcp.CallToolRequest, args lookupArgs) (*mcp.CallToolResult, any, error) {
	info, err := s.svc.Lookup(ctx, args.EntityName)
	if err != nil {
		return errorResult(err, nil)
	}
	return jsonResult(info)
}

func (s *Server) guidance(_ context.Context, _ *mcp.CallToolRequest, args guidanceArgs) (*mcp.CallToolResult, any, error) {
	return jsonResult(s.svc.Guidance(args.Question))
}

// errorCode maps an error to a stable code and a hint for the agent.
func errorCode(err error) (code, suggestion string) {
	var stateErr *mutate.StateError
	switch {
	case errors.Is(err, reconcile.ErrConfirmationRequired):
		return "CONFIRMATION_REQUIRED", "Call again with confirm: true to wipe and regenerate."
	case errors.Is(err, canon.ErrNotFound):
		return "CANONICAL_NOT_FOUND", "Create the canonical tree file or set canonical_path in arbor.yaml."
	case mutate.IsRejected(err):
		return "MUTATION_REJECTED", "Use arbor_analyze to see taken numbers and existing domains."
	case errors.As(err, &stateErr) && stateErr.Written():
		return "RECONCILE_PARTIAL", "The tree was updated; run arbor_generate to finish creating directories."
	default:
		return "INTERNAL_ERROR", ""
	}
}
