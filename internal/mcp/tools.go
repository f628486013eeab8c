package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/doxylink/internal/indexer"
	"github.com/dshills/doxylink/internal/resolver"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeNamespaceNotFound  = -32001 // Namespace is not configured
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Symbol catalog is empty
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// handleResolveSymbol handles the resolve_symbol tool invocation
func (s *Server) handleResolveSymbol(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	namespace, ok := args["namespace"].(string)
	if !ok || namespace == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "namespace parameter is required", map[string]interface{}{
			"param":  "namespace",
			"reason": "missing or empty",
		})
	}

	symbol, ok := args["symbol"].(string)
	if !ok || strings.TrimSpace(symbol) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "symbol parameter is required", map[string]interface{}{
			"param":  "symbol",
			"reason": "missing or empty",
		})
	}

	if _, known := s.cfg.TagFiles[namespace]; !known {
		return nil, newMCPError(ErrorCodeNamespaceNotFound, "unknown namespace", map[string]interface{}{
			"param":     "namespace",
			"value":     namespace,
			"available": s.namespaceNames(),
		})
	}

	link := s.resolver.Resolve(resolver.Request{
		Namespace: namespace,
		Text:      symbol,
		DocPath:   getStringDefault(args, "doc_path", ""),
	})

	response := map[string]interface{}{
		"resolved": link.Resolved,
		"title":    link.Title,
	}
	if link.Resolved {
		response["url"] = link.URL
		response["kind"] = string(link.Kind)
		response["file"] = link.File
	}
	if len(link.Warnings) > 0 {
		response["warnings"] = link.Warnings
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchSymbols handles the search_symbols tool invocation
func (s *Server) handleSearchSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	count, err := s.storage.CountSymbols(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read catalog", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if count == 0 {
		return nil, newMCPError(ErrorCodeNotIndexed, "symbol catalog is empty. Use index_tagfiles tool to index the configured tag files.", nil)
	}

	symbols, err := s.storage.SearchSymbols(ctx, strings.TrimSpace(query), limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	results := make([]map[string]interface{}, 0, len(symbols))
	for _, sym := range symbols {
		results = append(results, map[string]interface{}{
			"namespace": sym.Namespace,
			"name":      sym.Name,
			"signature": sym.Signature(),
			"kind":      string(sym.Kind),
			"file":      sym.File,
		})
	}

	response := map[string]interface{}{
		"query":   query,
		"count":   len(results),
		"results": results,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleIndexTagFiles handles the index_tagfiles tool invocation
func (s *Server) handleIndexTagFiles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// All parameters are optional, so a missing arguments object is fine
	args, _ := request.Params.Arguments.(map[string]interface{})

	config := &indexer.Config{
		Force: getBoolDefault(args, "force", false),
	}

	stats, err := s.indexer.IndexAll(ctx, s.resolver.Namespaces(), config)
	if errors.Is(err, indexer.ErrIndexingInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":          true,
		"tagfiles_indexed": stats.TagFilesIndexed,
		"tagfiles_skipped": stats.TagFilesSkipped,
		"tagfiles_failed":  stats.TagFilesFailed,
		"tagfiles_pruned":  stats.TagFilesPruned,
		"symbols_indexed":  stats.SymbolsIndexed,
		"duration_ms":      stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		// Include first few errors
		errorCount := len(stats.ErrorMessages)
		if errorCount > 5 {
			response["errors"] = stats.ErrorMessages[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := s.cache.Status()

	entries := make([]map[string]interface{}, 0, len(status.Entries))
	for _, e := range status.Entries {
		entries = append(entries, map[string]interface{}{
			"path":       e.Path,
			"symbols":    e.Symbols,
			"skipped":    e.Skipped,
			"mtime":      e.ModTime.Format(timeLayout),
			"version":    e.Version,
			"built_at":   e.BuiltAt.Format(timeLayout),
			"last_state": string(e.LastState),
		})
	}

	tagFiles, err := s.storage.ListTagFiles(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get catalog status", map[string]interface{}{
			"error": err.Error(),
		})
	}
	catalog := make([]map[string]interface{}, 0, len(tagFiles))
	for _, tf := range tagFiles {
		catalog = append(catalog, map[string]interface{}{
			"namespace":        tf.Namespace,
			"path":             tf.Path,
			"symbol_count":     tf.SymbolCount,
			"resolver_version": tf.ResolverVersion,
			"indexed_at":       tf.IndexedAt.Format(timeLayout),
		})
	}

	response := map[string]interface{}{
		"cache": map[string]interface{}{
			"version":     s.cache.Version(),
			"entries":     entries,
			"unavailable": status.Unavailable,
		},
		"catalog": map[string]interface{}{
			"tagfiles": catalog,
		},
		"namespaces": s.namespaceNames(),
		"checked_at": time.Now().Format(timeLayout),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

func (s *Server) namespaceNames() []string {
	namespaces := s.resolver.Namespaces()
	names := make([]string, 0, len(namespaces))
	for _, ns := range namespaces {
		names = append(names, ns.Name)
	}
	return names
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
