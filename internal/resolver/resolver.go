// Package resolver turns documentation role text into links using the
// symbol maps held by a cache.Manager.
package resolver

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/doxylink/internal/arglist"
	"github.com/dshills/doxylink/internal/cache"
	"github.com/dshills/doxylink/internal/symbolmap"
	"github.com/dshills/doxylink/pkg/types"
)

const defaultResultCacheSize = 4096

// Namespace binds a role name to a tag file and the root its files are served under
type Namespace struct {
	Name    string
	TagFile string
	Root    string
}

// Options configures a Resolver
type Options struct {
	Namespaces []Namespace

	// AddFunctionParentheses appends "()" to titles of functions referenced
	// without an argument list
	AddFunctionParentheses bool

	// SourceDir is the documentation source root. Relative roots are linked
	// relative to it from each document's directory.
	SourceDir string

	ResultCacheSize int
}

// Request is one role occurrence
type Request struct {
	Namespace string
	Text      string
	DocPath   string
}

// Link is the outcome of a request. An unresolved link still carries the
// title to render as plain text.
type Link struct {
	Title    string
	URL      string
	Kind     types.Kind
	File     string
	Resolved bool
	Warnings []string
}

type cachedLookup struct {
	symbols *symbolmap.Map
	entry   types.Entry
	err     error
}

// Resolver resolves role text against configured namespaces. It is safe for
// concurrent use.
type Resolver struct {
	cache      *cache.Manager
	opts       Options
	namespaces map[string]Namespace
	order      []string
	logger     *log.Logger

	results  *lru.Cache[[32]byte, cachedLookup]
	reported sync.Map
}

// New creates a Resolver. Roots are normalized to end in a separator.
func New(mgr *cache.Manager, opts Options, logger *log.Logger) (*Resolver, error) {
	if mgr == nil {
		return nil, errors.New("cache manager is required")
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	size := opts.ResultCacheSize
	if size <= 0 {
		size = defaultResultCacheSize
	}
	results, err := lru.New[[32]byte, cachedLookup](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	r := &Resolver{
		cache:      mgr,
		opts:       opts,
		namespaces: make(map[string]Namespace, len(opts.Namespaces)),
		logger:     logger,
		results:    results,
	}
	for _, ns := range opts.Namespaces {
		if ns.Name == "" || ns.TagFile == "" {
			return nil, fmt.Errorf("namespace %q needs a name and a tag file", ns.Name)
		}
		if !strings.HasSuffix(ns.Root, "/") && !strings.HasSuffix(ns.Root, `\`) {
			ns.Root += "/"
		}
		if _, dup := r.namespaces[ns.Name]; !dup {
			r.order = append(r.order, ns.Name)
		}
		r.namespaces[ns.Name] = ns
	}
	return r, nil
}

// Namespaces returns the configured namespaces in configuration order
func (r *Resolver) Namespaces() []Namespace {
	out := make([]Namespace, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.namespaces[name])
	}
	return out
}

// Cache returns the manager backing this resolver
func (r *Resolver) Cache() *cache.Manager {
	return r.cache
}

// Preload loads the tag file of every namespace concurrently. Tag files that
// cannot be loaded are reported once and otherwise ignored.
func (r *Resolver) Preload(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	seen := make(map[string]bool)
	for _, name := range r.order {
		ns := r.namespaces[name]
		if seen[ns.TagFile] {
			continue
		}
		seen[ns.TagFile] = true

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := r.cache.Get(ns.TagFile); err != nil {
				r.reportUnavailable(ns.TagFile)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *Resolver) reportUnavailable(tagFile string) {
	if _, loaded := r.reported.LoadOrStore(filepath.Clean(tagFile), struct{}{}); loaded {
		return
	}
	r.logger.Printf("Could not find tag file %s. Make sure your `doxylink` config variable is set correctly.", tagFile)
}

// Resolve produces a link for one role occurrence
func (r *Resolver) Resolve(req Request) Link {
	_, title, part := SplitExplicitTitle(req.Text)
	part = Unescape(part)
	link := Link{Title: title}

	ns, ok := r.namespaces[req.Namespace]
	if !ok {
		link.Warnings = append(link.Warnings, fmt.Sprintf("Unknown doxylink namespace `%s`", req.Namespace))
		return link
	}

	symbols, err := r.cache.Get(ns.TagFile)
	if err != nil {
		r.reportUnavailable(ns.TagFile)
		link.Warnings = append(link.Warnings, fmt.Sprintf("Could not find match for `%s` because tag file not found", part))
		return link
	}

	entry, err := r.lookup(ns.Name, symbols, part)
	if err != nil {
		link.Warnings = append(link.Warnings,
			fmt.Sprintf("Error while parsing `%s`. Is not a well-formed C++ function call or symbol. "+
				"If this is not the case, it is a doxylink bug so please report it. Error reported was: %v", part, err),
			fmt.Sprintf("Could not find match for `%s` in `%s` tag file", part, ns.TagFile),
		)
		return link
	}

	link.URL = r.buildURL(ns.Root, entry.File, req.DocPath)
	link.Kind = entry.Kind
	link.File = entry.File
	link.Resolved = true

	if entry.Kind == types.KindFunction && r.opts.AddFunctionParentheses {
		if _, args, err := arglist.Normalize(title); err == nil && args == "" {
			link.Title = title + "()"
		}
	}
	return link
}

// lookup consults the result cache. Results computed against a map that has
// since been rebuilt are recomputed.
func (r *Resolver) lookup(namespace string, symbols *symbolmap.Map, query string) (types.Entry, error) {
	key := sha256.Sum256([]byte(namespace + "\x00" + query))
	if hit, ok := r.results.Get(key); ok && hit.symbols == symbols {
		return hit.entry, hit.err
	}

	entry, err := symbols.Lookup(query)
	r.results.Add(key, cachedLookup{symbols: symbols, entry: entry, err: err})
	return entry, err
}

// buildURL joins root and file. Absolute and URL roots are used as is; other
// roots are relative to the source directory, seen from the document's directory.
func (r *Resolver) buildURL(root, file, docPath string) string {
	if filepath.IsAbs(root) || hasScheme(root) {
		return root + file
	}
	return r.relativeToSource(docPath) + "/" + root + file
}

func hasScheme(root string) bool {
	u, err := url.Parse(root)
	return err == nil && u.Scheme != ""
}

func (r *Resolver) relativeToSource(docPath string) string {
	if docPath == "" {
		return "."
	}
	srcDir, err := filepath.Abs(r.sourceDir())
	if err != nil {
		return "."
	}
	docDir, err := filepath.Abs(filepath.Dir(docPath))
	if err != nil {
		return "."
	}
	rel, err := filepath.Rel(docDir, srcDir)
	if err != nil {
		return "."
	}
	return path.Clean(filepath.ToSlash(rel))
}

func (r *Resolver) sourceDir() string {
	if r.opts.SourceDir == "" {
		return "."
	}
	return r.opts.SourceDir
}
