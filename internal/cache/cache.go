package cache

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/singleflight"

	"github.com/dshills/doxylink/internal/symbolmap"
	"github.com/dshills/doxylink/internal/tagfile"
	"github.com/dshills/doxylink/pkg/types"
)

// SchemaVersion is the version of the resolver that built a cache entry.
// Entries built by any other version are rebuilt.
const SchemaVersion = "1.2.0"

// State is the outcome of checking a cache entry against its tag file
type State string

const (
	StateMissing         State = "no cache entry, building"
	StateStale           State = "cache entry is out of date, rebuilding"
	StateVersionMismatch State = "cache schema version doesn't match, rebuilding"
	StateFresh           State = "cache entry is up to date"
)

// StatFunc returns the modification time of a tag file
type StatFunc func(path string) (time.Time, error)

// LoadFunc parses a tag file into a symbol map
type LoadFunc func(path string) (*symbolmap.Map, error)

// Entry is one cached symbol map together with what it was built from
type Entry struct {
	Map     *symbolmap.Map
	ModTime time.Time
	Version string
	BuiltAt time.Time
}

// EntryStatus describes a cache entry for status reports
type EntryStatus struct {
	Path      string
	Symbols   int
	Skipped   int
	ModTime   time.Time
	Version   string
	BuiltAt   time.Time
	LastState State
}

// Status is a snapshot of the manager
type Status struct {
	Entries     []EntryStatus
	Unavailable map[string]string
}

type slot struct {
	entry Entry
	state State
}

// Manager owns the symbol maps of every tag file referenced during a process.
// It is safe for concurrent use.
type Manager struct {
	mu          sync.Mutex
	entries     map[string]*slot
	unavailable map[string]error
	group       singleflight.Group

	stat    StatFunc
	load    LoadFunc
	now     func() time.Time
	version *semver.Version
	logger  *log.Logger
}

// Option configures a Manager
type Option func(*Manager) error

// WithStat replaces the modification time reader
func WithStat(fn StatFunc) Option {
	return func(m *Manager) error {
		m.stat = fn
		return nil
	}
}

// WithLoader replaces the tag file loader
func WithLoader(fn LoadFunc) Option {
	return func(m *Manager) error {
		m.load = fn
		return nil
	}
}

// WithClock replaces the clock used for build timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) error {
		m.now = now
		return nil
	}
}

// WithVersion overrides SchemaVersion. The version must be valid semver.
func WithVersion(version string) Option {
	return func(m *Manager) error {
		v, err := semver.NewVersion(version)
		if err != nil {
			return fmt.Errorf("invalid cache version %q: %w", version, err)
		}
		m.version = v
		return nil
	}
}

// WithLogger sets the logger for cache checks and parser warnings
func WithLogger(logger *log.Logger) Option {
	return func(m *Manager) error {
		if logger != nil {
			m.logger = logger
		}
		return nil
	}
}

// New creates an empty Manager
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		entries:     make(map[string]*slot),
		unavailable: make(map[string]error),
		stat:        statModTime,
		now:         time.Now,
		version:     semver.MustParse(SchemaVersion),
		logger:      log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if m.load == nil {
		m.load = ParseLoader(m.logger)
	}
	return m, nil
}

// ParseLoader returns a LoadFunc that parses tag files from disk, logging
// members it has to skip
func ParseLoader(logger *log.Logger) LoadFunc {
	parser := tagfile.New(logger)
	return func(path string) (*symbolmap.Map, error) {
		result, err := parser.ParseFile(path)
		if err != nil {
			return nil, err
		}
		return symbolmap.New(result), nil
	}
}

func statModTime(path string) (time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Version returns the version stamped on entries built by this manager
func (m *Manager) Version() string {
	return m.version.String()
}

// Get returns the symbol map for a tag file, building or rebuilding it when
// there is no entry, the file changed, or the entry came from another version.
// A tag file that cannot be read fails with *types.SourceUnavailableError, and
// keeps failing without touching the filesystem until it is invalidated.
func (m *Manager) Get(path string) (*symbolmap.Map, error) {
	key := filepath.Clean(path)

	m.mu.Lock()
	if err, ok := m.unavailable[key]; ok {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(key, func() (interface{}, error) {
		return m.refresh(key)
	})
	if err != nil {
		return nil, err
	}
	return v.(*symbolmap.Map), nil
}

// refresh checks the entry for key and rebuilds it if necessary. Calls for the
// same key never overlap.
func (m *Manager) refresh(key string) (*symbolmap.Map, error) {
	m.mu.Lock()
	current := m.entries[key]
	m.mu.Unlock()

	modTime, err := m.stat(key)
	if err != nil {
		return nil, m.markUnavailable(key, err)
	}

	state := StateMissing
	if current != nil {
		switch {
		case !m.sameVersion(current.entry.Version):
			state = StateVersionMismatch
		case modTime.After(current.entry.ModTime):
			state = StateStale
		default:
			state = StateFresh
		}
	}
	m.logger.Printf("Checking tag file cache for %s: %s", key, state)

	if state == StateFresh {
		m.mu.Lock()
		current.state = state
		m.mu.Unlock()
		return current.entry.Map, nil
	}

	symbols, err := m.load(key)
	if err != nil {
		return nil, m.markUnavailable(key, err)
	}

	built := &slot{
		entry: Entry{
			Map:     symbols,
			ModTime: modTime,
			Version: m.version.String(),
			BuiltAt: m.now(),
		},
		state: state,
	}

	m.mu.Lock()
	m.entries[key] = built
	m.mu.Unlock()
	return symbols, nil
}

func (m *Manager) markUnavailable(key string, cause error) error {
	err := &types.SourceUnavailableError{Path: key, Err: cause}

	m.mu.Lock()
	delete(m.entries, key)
	m.unavailable[key] = err
	m.mu.Unlock()
	return err
}

func (m *Manager) sameVersion(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return v.Equal(m.version)
}

// Adopt installs an entry built elsewhere, such as one restored from a
// previous build environment. It is checked like any other entry on the next Get.
func (m *Manager) Adopt(path string, entry Entry) error {
	if entry.Map == nil {
		return errors.New("adopted cache entry has no symbol map")
	}
	key := filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = &slot{entry: entry}
	delete(m.unavailable, key)
	return nil
}

// Lookup returns the stored entry for a tag file without checking it
func (m *Manager) Lookup(path string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.entries[filepath.Clean(path)]
	if !ok {
		return Entry{}, false
	}
	return s.entry, true
}

// Invalidate drops the entry and any unavailable marker for a tag file
func (m *Manager) Invalidate(path string) {
	key := filepath.Clean(path)

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	delete(m.unavailable, key)
}

// Reset drops every entry and unavailable marker
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*slot)
	m.unavailable = make(map[string]error)
}

// Status reports entries sorted by path and the tag files known to be unavailable
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		Entries:     make([]EntryStatus, 0, len(m.entries)),
		Unavailable: make(map[string]string, len(m.unavailable)),
	}
	for path, s := range m.entries {
		st.Entries = append(st.Entries, EntryStatus{
			Path:      path,
			Symbols:   s.entry.Map.Len(),
			Skipped:   s.entry.Map.Skipped(),
			ModTime:   s.entry.ModTime,
			Version:   s.entry.Version,
			BuiltAt:   s.entry.BuiltAt,
			LastState: s.state,
		})
	}
	sort.Slice(st.Entries, func(i, j int) bool {
		return st.Entries[i].Path < st.Entries[j].Path
	})
	for path, err := range m.unavailable {
		st.Unavailable[path] = err.Error()
	}
	return st
}
