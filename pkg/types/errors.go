package types

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors shared by the parser, the symbol map and the cache
var (
	ErrSourceUnavailable = errors.New("tag file unavailable")
	ErrLookup            = errors.New("lookup failed")
)

// LookupReason says why a query could not be resolved to exactly one entry
type LookupReason string

const (
	ReasonNotFound        LookupReason = "not found"
	ReasonAmbiguous       LookupReason = "ambiguous"
	ReasonArglistMismatch LookupReason = "argument list mismatch"
	ReasonMalformed       LookupReason = "malformed query"
)

// LookupError reports a query that has no unique resolvable match
type LookupError struct {
	Query       string
	Symbol      string
	Arglist     string
	Reason      LookupReason
	Suggestions []string
	Err         error // underlying cause, e.g. a *ParseError
}

// Error implements the error interface
func (e *LookupError) Error() string {
	var b strings.Builder
	switch e.Reason {
	case ReasonNotFound:
		b.WriteString("could not find a match")
	case ReasonAmbiguous:
		b.WriteString("could not find an unambiguous match")
	case ReasonArglistMismatch:
		b.WriteString("argument list match not found")
	default:
		b.WriteString(string(e.Reason))
	}

	if q := e.subject(); q != "" {
		fmt.Fprintf(&b, " for %q", q)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

func (e *LookupError) subject() string {
	if e.Query != "" {
		return e.Query
	}
	return e.Symbol + e.Arglist
}

// Unwrap returns the underlying cause
func (e *LookupError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrLookup) match any lookup failure
func (e *LookupError) Is(target error) bool {
	return target == ErrLookup
}

// SourceUnavailableError reports a tag file that could not be read or parsed
type SourceUnavailableError struct {
	Path string
	Err  error
}

// Error implements the error interface
func (e *SourceUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tag file %s unavailable", e.Path)
	}
	return fmt.Sprintf("tag file %s unavailable: %v", e.Path, e.Err)
}

// Unwrap returns the underlying I/O or parse error
func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrSourceUnavailable) match
func (e *SourceUnavailableError) Is(target error) bool {
	return target == ErrSourceUnavailable
}
