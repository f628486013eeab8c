// Package mcp implements the Model Context Protocol (MCP) server for doxylink.
//
// The MCP server exposes four tools to AI coding assistants:
//   - resolve_symbol: Resolve a C++ symbol against a configured tag file
//   - search_symbols: Search the catalog of indexed tag files by name
//   - index_tagfiles: Index the configured tag files into the catalog
//   - get_status: Report loaded and unavailable tag files
//
// MCP is JSON-RPC 2.0 over stdio. stdout carries the protocol, so the
// server logs to stderr.
//
// # Basic Usage
//
//	doxylink serve --config docs/.doxylink.yaml --watch
//
// # Tool: resolve_symbol
//
//	Request:
//	{
//	  "name": "resolve_symbol",
//	  "arguments": {
//	    "namespace": "polyvox",
//	    "symbol": "PolyVox::Volume::getVoxelAt(int, int, int) const",
//	    "doc_path": "docs/tutorial.rst"
//	  }
//	}
//
//	Response:
//	{
//	  "resolved": true,
//	  "title": "PolyVox::Volume::getVoxelAt(int, int, int) const",
//	  "url": "https://volumesoffun.com/polyvox/documentation/classPolyVox_1_1Volume.html#a1",
//	  "kind": "function",
//	  "file": "classPolyVox_1_1Volume.html#a1"
//	}
//
// An unresolved symbol is not an error: the response has "resolved": false,
// the title to render as plain text and the warnings a documentation build
// would print.
//
// # Tool: search_symbols
//
// Searches rows written by index_tagfiles. Exact names rank first, then
// names ending in "::query", then shorter names.
//
// # Error Handling
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (database, filesystem, etc.)
//   - -32001: Namespace not configured
//   - -32002: Indexing in progress
//   - -32003: Catalog empty
//   - -32004: Empty query
package mcp
