// Package arglist normalizes C++ argument lists so that differently formatted
// but equivalent signatures compare equal.
//
// Tag files spell the same overload in many ways: "(const QString &str)",
// "(QString const& str = QString())" and "( const QString& )" all name one
// function. Normalize reduces each to "(const QString&)".
//
// # Rules
//
//   - parameter names and default values are dropped
//   - declarators keep their shape: "void (*cb)(int)" -> "void(*)(int)", "int v[4]" -> "int[4]"
//   - a parameter pack follows its type: "Args &&... args" -> "Args&&..."
//   - pointer and reference markers are attached to the type: "int *" -> "int*"
//   - a const/volatile on the base type always comes first: "T const&" -> "const T&"
//   - a const after a pointer stays there: "char * const" -> "char* const"
//   - template arguments are normalized recursively: "vector<int>" -> "vector< int >"
//   - trailing cv- and ref-qualifiers on the method are kept: "(int) const &"
//   - varargs become a final "..." argument
//
// Only as much C++ as appears in argument lists is understood. Anything else
// is a *types.ParseError carrying the offending text and offset.
package arglist
