package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs.
const (
	ResourceGuide = "arbor://guide"
	ResourceTree  = "arbor://tree"
)

func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         ResourceGuide,
		Name:        "guide",
		Description: "How to work with an arbor architecture tree",
		MIMEType:    "text/markdown",
	}, func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return textResource(ResourceGuide, agentGuide), nil
	})

	s.server.AddResource(&mcp.Resource{
		URI:         ResourceTree,
		Name:        "tree",
		Description: "The canonical architecture tree",
		MIMEType:    "text/markdown",
	}, func(context.Context, *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		data, err := s.svc.Canonical()
		if err != nil {
			return nil, err
		}
		return textResource(ResourceTree, string(data)), nil
	})
}

func textResource(uri, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: "text/markdown", Text: text}},
	}
}

const agentGuide = `# arbor Agent Guide

arbor keeps a project's directory layout in agreement with one canonical
architecture tree, a markdown file with lines such as:

    ├── 4 📁 Processing/                   # Processing domain
    │   ├── 4.2 📁 Processing_Router/      # Request routing
    │   │   ├── 4.2.1 Config/

## Concepts

- **Domain**: a bare integer number (4). Gets a directory when marked 📁.
- **Object**: two components (4.2). Gets a directory below its domain when marked 📁.
- **Layer**: three components (4.2.1). Listed in the object's README.md.
- **classifications.yaml**: registered entities override what the tree implies.

## Workflows

### Checking health

1. arbor_validate: structural issues (missing parents, bad domain numbers,
   duplicate numbers) plus missing, extra and drifted directories.
2. arbor_generate with mode "incremental" creates whatever is missing.

### Adding a component

1. arbor_analyze to see the domains and taken numbers.
2. arbor_insert_entity(entity_name, domain, proposed_number, layers).
   Objects must be numbered under their domain; numbers and names must be new.

### Removing a component

arbor_remove_entity(entity_name, cleanup_mode):
- archive (default): directory moves to the archive dir with a timestamp
- delete: directory is removed
- preserve: directory stays; code mapped to it becomes orphaned

Never edit generated directories by hand to change the layout.
`
