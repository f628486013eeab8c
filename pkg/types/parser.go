package types

import "fmt"

// ParseError represents malformed argument-list text
type ParseError struct {
	Text    string // the text being parsed
	Pos     int    // byte offset of the offending token in Text
	Message string
	Symbol  string // qualified member name, set when raised while reading a tag file
}

// Error implements the error interface
func (pe *ParseError) Error() string {
	if pe.Symbol != "" {
		return fmt.Sprintf("%s: %s at offset %d in %q", pe.Symbol, pe.Message, pe.Pos, pe.Text)
	}
	return fmt.Sprintf("%s at offset %d in %q", pe.Message, pe.Pos, pe.Text)
}
