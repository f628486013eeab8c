// Package types provides shared type definitions for doxylink.
//
// These are the values that flow between the tag file parser, the symbol map,
// the cache and the documentation-facing resolver.
//
// # Core Types
//
// Entry is a resolved destination, a symbol kind plus a root-relative file with
// an optional anchor:
//
//	entry := types.Entry{
//	    Kind: types.KindClass,
//	    File: "classPolyVox_1_1Array.html",
//	}
//
// OverloadSet groups the overloads of one qualified function name, keyed by
// normalized argument list:
//
//	set := types.NewOverloadSet()
//	set.Add("(int)", "classFoo.html#a1")
//	set.Add("(double)", "classFoo.html#a2")
//	entry, err := set.Select("(int)")
//
// Both implement Target, which is what a symbol map stores per name.
//
// # Errors
//
// ParseError reports malformed argument-list text. LookupError reports a query
// without a unique match and carries a LookupReason ("not found", "ambiguous",
// "argument list mismatch", "malformed query"). SourceUnavailableError reports
// a tag file that cannot be read. None of them should ever abort a
// documentation build; callers turn them into warnings:
//
//	if errors.Is(err, types.ErrLookup) {
//	    warnings = append(warnings, err.Error())
//	}
package types
