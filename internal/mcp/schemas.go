package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// resolveSymbolTool returns the tool definition for resolve_symbol
func resolveSymbolTool() mcp.Tool {
	return mcp.Tool{
		Name:        "resolve_symbol",
		Description: "Resolve a C++ symbol or function call against a configured Doxygen tag file and return its documentation link",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"namespace": map[string]interface{}{
					"type":        "string",
					"description": "Configured tag file namespace (the role name, e.g. 'polyvox')",
				},
				"symbol": map[string]interface{}{
					"type":        "string",
					"description": "Role text: a symbol such as 'PolyVox::Volume::getVoxelAt(int, int, int)', optionally written as 'title <symbol>'",
				},
				"doc_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the document containing the reference, used to build relative links",
				},
			},
			Required: []string{"namespace", "symbol"},
		},
	}
}

// searchSymbolsTool returns the tool definition for search_symbols
func searchSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_symbols",
		Description: "Search the symbol catalog of all indexed tag files by name",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Symbol name or fragment, e.g. 'getVoxel' or 'Volume::'",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// indexTagFilesTool returns the tool definition for index_tagfiles
func indexTagFilesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_tagfiles",
		Description: "Index every configured tag file into the symbol catalog",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, re-index tag files even when unchanged",
					"default":     false,
				},
			},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report loaded tag files, unavailable tag files and catalog statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
