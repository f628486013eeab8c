package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doxylink/internal/config"
)

const sampleTag = `<?xml version="1.0"?>
<tagfile>
  <compound kind="class">
    <name>PolyVox::Volume</name>
    <filename>classPolyVox_1_1Volume.html</filename>
    <member kind="function"><name>getVoxelAt</name><anchor>a1</anchor><arglist>(int x, int y, int z) const</arglist></member>
    <member kind="function"><name>getVoxelAt</name><anchor>a2</anchor><arglist>(const Vector3DInt32 &amp;pos) const</arglist></member>
    <member kind="variable"><name>m_uWidth</name><anchor>v1</anchor></member>
  </compound>
</tagfile>`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()
	tagPath := filepath.Join(dir, "PolyVox.tag")
	require.NoError(t, os.WriteFile(tagPath, []byte(sampleTag), 0o644))

	cfg := &config.Config{
		TagFiles: map[string]config.TagFile{
			"polyvox": {TagFile: tagPath, Root: "https://example.org/polyvox"},
			"gone":    {TagFile: filepath.Join(dir, "gone.tag"), Root: "https://example.org/gone"},
		},
		AddFunctionParentheses: true,
		SourceDir:              dir,
		DBPath:                 filepath.Join(dir, "db", "catalog.db"),
	}

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	if args != nil {
		req.Params.Arguments = args
	}
	return req
}

func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func requireMCPError(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	mcpErr, ok := err.(*MCPError)
	require.True(t, ok, "expected *MCPError, got %T", err)
	assert.Equal(t, code, mcpErr.Code)
}

func TestNewServer(t *testing.T) {
	t.Run("server has all required components", func(t *testing.T) {
		s := newTestServer(t)
		assert.NotNil(t, s.mcp, "MCP server should be initialized")
		assert.NotNil(t, s.storage, "Storage should be initialized")
		assert.NotNil(t, s.indexer, "Indexer should be initialized")
		assert.NotNil(t, s.resolver, "Resolver should be initialized")
		assert.Equal(t, []string{"gone", "polyvox"}, s.namespaceNames())
	})

	t.Run("database directory is created", func(t *testing.T) {
		s := newTestServer(t)
		_, err := os.Stat(filepath.Dir(s.cfg.DBPath))
		assert.NoError(t, err)
	})

	t.Run("rejects empty config", func(t *testing.T) {
		_, err := NewServer(&config.Config{}, nil)
		assert.ErrorIs(t, err, config.ErrNoTagFiles)

		_, err = NewServer(nil, nil)
		assert.Error(t, err)
	})
}

func TestHandleResolveSymbol(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	t.Run("resolves overload", func(t *testing.T) {
		result, err := s.handleResolveSymbol(ctx, callTool("resolve_symbol", map[string]interface{}{
			"namespace": "polyvox",
			"symbol":    "PolyVox::Volume::getVoxelAt(int, int, int) const",
		}))
		require.NoError(t, err)

		out := decodeResult(t, result)
		assert.Equal(t, true, out["resolved"])
		assert.Equal(t, "function", out["kind"])
		assert.Equal(t, "https://example.org/polyvox/classPolyVox_1_1Volume.html#a1", out["url"])
		assert.NotContains(t, out, "warnings")
	})

	t.Run("explicit title", func(t *testing.T) {
		result, err := s.handleResolveSymbol(ctx, callTool("resolve_symbol", map[string]interface{}{
			"namespace": "polyvox",
			"symbol":    "width <PolyVox::Volume::m_uWidth>",
		}))
		require.NoError(t, err)

		out := decodeResult(t, result)
		assert.Equal(t, true, out["resolved"])
		assert.Equal(t, "width", out["title"])
		assert.Equal(t, "variable", out["kind"])
	})

	t.Run("unresolved symbol carries warnings", func(t *testing.T) {
		result, err := s.handleResolveSymbol(ctx, callTool("resolve_symbol", map[string]interface{}{
			"namespace": "polyvox",
			"symbol":    "PolyVox::Nope",
		}))
		require.NoError(t, err)

		out := decodeResult(t, result)
		assert.Equal(t, false, out["resolved"])
		assert.Equal(t, "PolyVox::Nope", out["title"])
		assert.NotContains(t, out, "url")
		warnings, ok := out["warnings"].([]interface{})
		require.True(t, ok)
		assert.Len(t, warnings, 2)
	})

	t.Run("missing tag file", func(t *testing.T) {
		result, err := s.handleResolveSymbol(ctx, callTool("resolve_symbol", map[string]interface{}{
			"namespace": "gone",
			"symbol":    "Anything",
		}))
		require.NoError(t, err)

		out := decodeResult(t, result)
		assert.Equal(t, false, out["resolved"])
		assert.Contains(t, out["warnings"], "Could not find match for `Anything` because tag file not found")
	})

	t.Run("parameter errors", func(t *testing.T) {
		_, err := s.handleResolveSymbol(ctx, callTool("resolve_symbol", nil))
		requireMCPError(t, err, ErrorCodeInvalidParams)

		_, err = s.handleResolveSymbol(ctx, callTool("resolve_symbol", map[string]interface{}{"symbol": "X"}))
		requireMCPError(t, err, ErrorCodeInvalidParams)

		_, err = s.handleResolveSymbol(ctx, callTool("resolve_symbol", map[string]interface{}{"namespace": "polyvox", "symbol": "  "}))
		requireMCPError(t, err, ErrorCodeInvalidParams)

		_, err = s.handleResolveSymbol(ctx, callTool("resolve_symbol", map[string]interface{}{"namespace": "other", "symbol": "X"}))
		requireMCPError(t, err, ErrorCodeNamespaceNotFound)
	})
}

func TestHandleIndexAndSearch(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleSearchSymbols(ctx, callTool("search_symbols", map[string]interface{}{"query": "getVoxelAt"}))
	requireMCPError(t, err, ErrorCodeNotIndexed)

	result, err := s.handleIndexTagFiles(ctx, callTool("index_tagfiles", nil))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, float64(1), out["tagfiles_indexed"])
	assert.Equal(t, float64(1), out["tagfiles_failed"])
	assert.Equal(t, float64(4), out["symbols_indexed"]) // Volume, getVoxelAt x2, m_uWidth
	assert.Contains(t, out, "errors")

	result, err = s.handleSearchSymbols(ctx, callTool("search_symbols", map[string]interface{}{
		"query": "getVoxelAt",
		"limit": float64(1),
	}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Equal(t, float64(1), out["count"])
	results := out["results"].([]interface{})
	first := results[0].(map[string]interface{})
	assert.Equal(t, "polyvox", first["namespace"])
	assert.Equal(t, "PolyVox::Volume::getVoxelAt", first["name"])
	assert.Equal(t, "function", first["kind"])

	t.Run("search parameter errors", func(t *testing.T) {
		_, err := s.handleSearchSymbols(ctx, callTool("search_symbols", map[string]interface{}{"query": ""}))
		requireMCPError(t, err, ErrorCodeEmptyQuery)

		_, err = s.handleSearchSymbols(ctx, callTool("search_symbols", map[string]interface{}{"query": "x", "limit": float64(0)}))
		requireMCPError(t, err, ErrorCodeInvalidParams)

		_, err = s.handleSearchSymbols(ctx, callTool("search_symbols", map[string]interface{}{"query": "x", "limit": 101}))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	})

	t.Run("second run skips unchanged tag files", func(t *testing.T) {
		result, err := s.handleIndexTagFiles(ctx, callTool("index_tagfiles", map[string]interface{}{}))
		require.NoError(t, err)
		out := decodeResult(t, result)
		assert.Equal(t, float64(0), out["tagfiles_indexed"])
		assert.Equal(t, float64(1), out["tagfiles_skipped"])

		result, err = s.handleIndexTagFiles(ctx, callTool("index_tagfiles", map[string]interface{}{"force": true}))
		require.NoError(t, err)
		out = decodeResult(t, result)
		assert.Equal(t, float64(1), out["tagfiles_indexed"])
	})
}

func TestHandleIndexTagFiles_Concurrent(t *testing.T) {
	s := newTestServer(t)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.handleIndexTagFiles(context.Background(), callTool("index_tagfiles", nil))
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			requireMCPError(t, err, ErrorCodeIndexingInProgress)
		}
	}
}

func TestHandleGetStatus(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, s.resolver.Preload(ctx))

	result, err := s.handleGetStatus(ctx, callTool("get_status", nil))
	require.NoError(t, err)
	out := decodeResult(t, result)

	cacheInfo := out["cache"].(map[string]interface{})
	assert.Equal(t, s.cache.Version(), cacheInfo["version"])

	entries := cacheInfo["entries"].([]interface{})
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, float64(3), entry["symbols"])
	assert.Equal(t, "no cache entry, building", entry["last_state"])

	unavailable := cacheInfo["unavailable"].(map[string]interface{})
	assert.Len(t, unavailable, 1)

	catalog := out["catalog"].(map[string]interface{})
	assert.Empty(t, catalog["tagfiles"])
}

func TestInvalidate(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.resolver.Preload(context.Background()))
	require.Len(t, s.cache.Status().Entries, 1)

	s.invalidate([]string{s.cfg.TagFiles["polyvox"].TagFile, s.cfg.TagFiles["gone"].TagFile})

	status := s.cache.Status()
	assert.Empty(t, status.Entries)
	assert.Empty(t, status.Unavailable)
}
