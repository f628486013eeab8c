package tagfile

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/doxylink/internal/arglist"
	"github.com/dshills/doxylink/pkg/types"
)

// ErrMalformedTagFile is returned when the document is not a readable tag file
var ErrMalformedTagFile = errors.New("malformed tag file")

// Result is the raw symbol data extracted from one tag file
type Result struct {
	// Keys lists every qualified name in first-registration order
	Keys []string
	// Targets maps qualified names to an Entry or an *OverloadSet
	Targets map[string]types.Target

	// Skipped holds members whose argument list could not be normalized
	Skipped []types.ParseError

	Compounds int
	Members   int
	Overloads int
}

func newResult() *Result {
	return &Result{
		Targets: make(map[string]types.Target),
	}
}

// set registers or replaces a target. A replaced name keeps its position.
func (r *Result) set(key string, target types.Target) {
	if _, exists := r.Targets[key]; !exists {
		r.Keys = append(r.Keys, key)
	}
	r.Targets[key] = target
}

// Parser reads Doxygen tag files
type Parser struct {
	logger *log.Logger
}

// New creates a new Parser. A nil logger discards diagnostics.
func New(logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Parser{logger: logger}
}

type xmlCompound struct {
	Kind     string      `xml:"kind,attr"`
	Name     string      `xml:"name"`
	Filename string      `xml:"filename"`
	Members  []xmlMember `xml:"member"`
}

type xmlMember struct {
	Kind       string `xml:"kind,attr"`
	Name       string `xml:"name"`
	AnchorFile string `xml:"anchorfile"`
	Anchor     string `xml:"anchor"`
	Arglist    string `xml:"arglist"`
}

// deferredMember is a function-like member whose argument list is normalized
// after the whole document has been read
type deferredMember struct {
	symbol  string
	arglist string
	kind    string
	link    string
}

// ParseFile opens and parses a tag file
func (p *Parser) ParseFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tag file: %w", err)
	}
	defer func() { _ = f.Close() }()

	result, err := p.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return result, nil
}

// Parse reads a tag file document. Only <compound> elements directly under the
// root element are considered.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	result := newResult()
	var deferred []deferredMember

	dec := xml.NewDecoder(r)
	depth := 0
	sawRoot := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTagFile, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				sawRoot = true
				continue
			}
			if depth != 2 {
				continue
			}

			if t.Name.Local == "compound" {
				var c xmlCompound
				if err := dec.DecodeElement(&c, &t); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrMalformedTagFile, err)
				}
				deferred = p.addCompound(result, c, deferred)
			} else if err := dec.Skip(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedTagFile, err)
			}
			// DecodeElement and Skip both consume the end element
			depth--
		case xml.EndElement:
			depth--
		}
	}

	if !sawRoot {
		return nil, fmt.Errorf("%w: no root element", ErrMalformedTagFile)
	}

	p.addOverloads(result, deferred)
	return result, nil
}

// addCompound registers a compound and its plain members, and returns the
// function-like members for later overload processing
func (p *Parser) addCompound(result *Result, c xmlCompound, deferred []deferredMember) []deferredMember {
	kind := types.Kind(c.Kind)
	if !kind.IsCompound() {
		return deferred
	}

	name := strings.TrimSpace(c.Name)
	filename := strings.TrimSpace(c.Filename)
	if name == "" {
		result.Skipped = append(result.Skipped, types.ParseError{Message: "compound without a name", Symbol: c.Kind})
		p.logger.Printf("Skipping %s compound without a name", c.Kind)
		return deferred
	}

	// Doxygen leaves the extension off <filename> for file compounds
	if kind == types.KindFile && filepath.Ext(filename) == "" {
		filename += ".html"
	}

	result.set(name, types.Entry{Kind: kind, File: filename})
	result.Compounds++

	for _, m := range c.Members {
		memberName := strings.TrimSpace(m.Name)
		if memberName == "" {
			result.Skipped = append(result.Skipped, types.ParseError{Message: "member without a name", Symbol: name})
			p.logger.Printf("Skipping %s member of %s without a name", m.Kind, name)
			continue
		}

		// Old tag files (qt.tag) leave out <anchorfile>; the compound page is used instead
		anchorFile := strings.TrimSpace(m.AnchorFile)
		if anchorFile == "" {
			anchorFile = filename
		}
		link := anchorFile
		if anchor := strings.TrimSpace(m.Anchor); anchor != "" {
			link = anchorFile + "#" + anchor
		}

		symbol := name + "::" + memberName
		memberKind := types.Kind(m.Kind)
		result.Members++

		if m.Arglist != "" && memberKind.CarriesOverloads() {
			deferred = append(deferred, deferredMember{
				symbol:  symbol,
				arglist: m.Arglist,
				kind:    m.Kind,
				link:    link,
			})
			continue
		}
		result.set(symbol, types.Entry{Kind: memberKind, File: link})
	}

	return deferred
}

// addOverloads normalizes deferred members into overload sets. A member whose
// argument list cannot be parsed is skipped, never the whole file.
func (p *Parser) addOverloads(result *Result, deferred []deferredMember) {
	for _, m := range deferred {
		_, normalized, err := arglist.Normalize(m.symbol + m.arglist)
		if err != nil {
			var perr *types.ParseError
			if errors.As(err, &perr) {
				skipped := *perr
				skipped.Symbol = m.symbol
				result.Skipped = append(result.Skipped, skipped)
			} else {
				result.Skipped = append(result.Skipped, types.ParseError{Text: m.arglist, Message: err.Error(), Symbol: m.symbol})
			}
			p.logger.Printf("Skipping %s %s%s. Error reported from parser was: %v", m.kind, m.symbol, m.arglist, err)
			continue
		}

		set, ok := result.Targets[m.symbol].(*types.OverloadSet)
		if !ok {
			set = types.NewOverloadSet()
			result.set(m.symbol, set)
		}
		set.Add(normalized, m.link)
		result.Overloads++
	}
}
