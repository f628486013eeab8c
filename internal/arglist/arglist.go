package arglist

import (
	"fmt"
	"strings"

	"github.com/dshills/doxylink/pkg/types"
)

// Normalize splits a symbol reference into its qualified name and a canonical
// form of its argument list. A symbol without parentheses has an empty
// argument list.
//
//	Normalize("Foo::bar(const std::string &s, int n = 4) const")
//	// "Foo::bar", "(const std::string&, int) const"
func Normalize(symbol string) (string, string, error) {
	// The call operator's own parentheses belong to its name
	from := 0
	if i := strings.Index(symbol, "operator()"); i >= 0 {
		from = i + len("operator()")
	}

	open := strings.IndexByte(symbol[from:], '(')
	if open < 0 {
		return symbol, "", nil
	}
	open += from

	name := symbol[:open]
	rest := symbol[open:]

	// The overwhelmingly common empty signatures need no parsing
	if strings.HasPrefix(rest, "()") {
		compact := strings.ReplaceAll(rest, " override", "")
		compact = strings.ReplaceAll(compact, " final", "")
		compact = strings.ReplaceAll(compact, " ", "")
		switch compact {
		case "()", "()=0", "()=default":
			return name, "()", nil
		case "()const", "()const=0":
			return name, "() const", nil
		}
	}

	closing := strings.LastIndexByte(rest, ')')
	if closing < 0 {
		return "", "", &types.ParseError{
			Text:    symbol,
			Pos:     len(symbol),
			Message: "missing closing parenthesis",
		}
	}
	suffix := rest[closing+1:]
	list := rest[:closing+1]

	toks, err := tokenize(list, open, symbol)
	if err != nil {
		return "", "", err
	}

	p := &parser{toks: toks, text: symbol}
	args, err := p.parseArglist()
	if err != nil {
		return "", "", err
	}

	return name, "(" + strings.Join(args, ", ") + ")" + qualifiers(suffix), nil
}

// qualifiers returns the canonical cv- and ref-qualifiers of a member function
// from the text after its argument list, e.g. " const &&". Trailing return
// types, exception specifications and "= 0" are ignored.
func qualifiers(suffix string) string {
	for _, stop := range []string{"->", "noexcept", "throw", "="} {
		if i := strings.Index(suffix, stop); i >= 0 {
			suffix = suffix[:i]
		}
	}

	var out string
	for _, word := range strings.Fields(strings.NewReplacer("&", " & ").Replace(suffix)) {
		if cvQualifiers[word] && !strings.Contains(out, word) {
			out += " " + word
		}
	}
	switch refs := strings.Count(suffix, "&"); {
	case refs >= 2:
		out += " &&"
	case refs == 1:
		out += " &"
	}
	return out
}

// Equal reports whether two argument lists normalize to the same text
func Equal(a, b string) (bool, error) {
	_, na, err := Normalize("f" + a)
	if err != nil {
		return false, err
	}
	_, nb, err := Normalize("f" + b)
	if err != nil {
		return false, err
	}
	return na == nb, nil
}

var (
	cvQualifiers = map[string]bool{"const": true, "volatile": true}

	elaborated = map[string]bool{
		"struct": true, "class": true, "union": true, "enum": true, "typename": true,
	}

	// Words that combine into a single builtin type: "unsigned long int"
	builtinWords = map[string]bool{
		"unsigned": true, "signed": true, "short": true, "long": true,
		"int": true, "char": true, "double": true, "float": true, "bool": true,
		"void": true, "wchar_t": true, "char8_t": true, "char16_t": true, "char32_t": true,
		"auto": true,
	}
)

type parser struct {
	toks []token
	i    int
	text string
}

func (p *parser) peek() token {
	return p.toks[p.i]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isPunct(s string) bool {
	t := p.peek()
	return t.kind == tokPunct && t.text == s
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return &types.ParseError{
		Text:    p.text,
		Pos:     t.pos,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *parser) expect(s string) error {
	t := p.next()
	if t.kind != tokPunct || t.text != s {
		return p.errorf(t, "expected %q, found %s", s, describe(t))
	}
	return nil
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

// parseArglist parses a complete argument list; nothing may follow it
func (p *parser) parseArglist() ([]string, error) {
	args, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s after argument list", describe(t))
	}
	return args, nil
}

// parseParams parses "(" [argument {"," argument} ["," "..."] | "..."] ")"
func (p *parser) parseParams() ([]string, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}

	var args []string
	switch {
	case p.isPunct(")"):
	case p.peek().kind == tokEllipsis:
		p.next()
		args = append(args, "...")
	default:
		for {
			arg, err := p.parseArgument()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if !p.isPunct(",") {
				break
			}
			p.next()
			if p.peek().kind == tokEllipsis {
				p.next()
				args = append(args, "...")
				break
			}
		}
	}

	if err := p.expect(")"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseArgument parses a type, its declarator and an optional default value.
// Parameter names are dropped; the declarator shape is kept, so
// "void (*cb)(int)" becomes "void(*)(int)" and "int v[4]" becomes "int[4]".
func (p *parser) parseArgument() (string, error) {
	typ, err := p.parseType()
	if err != nil {
		return "", err
	}
	decl, err := p.parseDeclarator()
	if err != nil {
		return "", err
	}

	if p.isPunct("=") {
		eq := p.next()
		if err := p.skipDefault(eq); err != nil {
			return "", err
		}
	}

	return typ + decl, nil
}

// parseDeclarator parses what follows a type: a parameter pack "...", a name,
// a parenthesized pointer or reference declarator, array extents and function
// parameter lists. It returns the declarator without names.
func (p *parser) parseDeclarator() (string, error) {
	var b strings.Builder

	if p.peek().kind == tokEllipsis {
		p.next()
		b.WriteString("...")
	}

	switch t := p.peek(); {
	case t.kind == tokIdent:
		p.next()
	case p.isPunct("(") && p.startsNestedDeclarator():
		p.next()
		b.WriteString("(")
		b.WriteString(p.parsePointerChain())
		inner, err := p.parseDeclarator()
		if err != nil {
			return "", err
		}
		b.WriteString(inner)
		if err := p.expect(")"); err != nil {
			return "", err
		}
		b.WriteString(")")
	}

	for {
		switch {
		case p.isPunct("["):
			extent, err := p.parseExtent()
			if err != nil {
				return "", err
			}
			b.WriteString(extent)
		case p.isPunct("("):
			params, err := p.parseParams()
			if err != nil {
				return "", err
			}
			b.WriteString("(" + strings.Join(params, ", ") + ")")
			for {
				n := p.peek()
				if n.kind != tokIdent || (!cvQualifiers[n.text] && n.text != "noexcept") {
					break
				}
				if n.text != "noexcept" {
					b.WriteString(" " + n.text)
				}
				p.next()
			}
		default:
			return b.String(), nil
		}
	}
}

// startsNestedDeclarator reports whether the "(" at the current position opens
// a declarator such as "(*cb)", "(&arr)" or "(Class::*fn)" rather than a
// parameter list.
func (p *parser) startsNestedDeclarator() bool {
	if p.i+1 >= len(p.toks) {
		return false
	}
	n := p.toks[p.i+1]
	if n.kind == tokPunct && (n.text == "*" || n.text == "&") {
		return true
	}
	if n.kind == tokIdent && strings.HasSuffix(n.text, "::") && p.i+2 < len(p.toks) {
		m := p.toks[p.i+2]
		return m.kind == tokPunct && m.text == "*"
	}
	return false
}

// parsePointerChain parses "*", "&", "&&" and "Class::*" with their
// cv-qualifiers, written without spaces before each operator
func (p *parser) parsePointerChain() string {
	var chain strings.Builder
	for {
		switch t := p.peek(); {
		case p.isPunct("*") || p.isPunct("&"):
			chain.WriteString(p.next().text)
		case t.kind == tokIdent && strings.HasSuffix(t.text, "::") &&
			p.i+1 < len(p.toks) && p.toks[p.i+1].kind == tokPunct && p.toks[p.i+1].text == "*":
			chain.WriteString(p.next().text + p.next().text)
		default:
			return chain.String()
		}
		for {
			n := p.peek()
			if n.kind != tokIdent || !cvQualifiers[n.text] {
				break
			}
			chain.WriteString(" " + n.text)
			p.next()
		}
	}
}

// parseExtent parses "[" expression "]" and returns it without spaces
func (p *parser) parseExtent() (string, error) {
	open := p.next()
	var b strings.Builder
	b.WriteString("[")
	depth := 1
	for {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return "", p.errorf(open, "unbalanced %q", "[")
		case t.kind == tokPunct && t.text == "[":
			depth++
		case t.kind == tokPunct && t.text == "]":
			depth--
			if depth == 0 {
				b.WriteString("]")
				return b.String(), nil
			}
		}
		b.WriteString(t.text)
	}
}

// parseType parses cv-qualifiers, the base type and the pointer/reference
// chain, and returns the canonical spelling.
func (p *parser) parseType() (string, error) {
	var (
		isConst, isVolatile bool
		elab                string
		base                string
	)

	setCV := func(word string) {
		if word == "const" {
			isConst = true
		} else {
			isVolatile = true
		}
	}

	// Leading qualifiers: "const", "volatile", "struct", "typename"...
	for {
		t := p.peek()
		if t.kind != tokIdent {
			break
		}
		if cvQualifiers[t.text] {
			setCV(t.text)
			p.next()
			continue
		}
		if elaborated[t.text] {
			if elab == "" {
				elab = t.text
			}
			p.next()
			continue
		}
		break
	}

	t := p.peek()
	switch {
	case t.kind == tokIdent && builtinWords[t.text]:
		words := []string{p.next().text}
		for {
			n := p.peek()
			if n.kind != tokIdent {
				break
			}
			if cvQualifiers[n.text] {
				setCV(n.text)
				p.next()
				continue
			}
			if !builtinWords[n.text] {
				break
			}
			words = append(words, p.next().text)
		}
		base = strings.Join(words, " ")
	case t.kind == tokIdent:
		base = p.next().text
		if p.isPunct("<") {
			args, err := p.parseTemplate()
			if err != nil {
				return "", err
			}
			base += args
			// Nested name after a template: vector<int>::iterator
			if n := p.peek(); n.kind == tokIdent && strings.HasPrefix(n.text, "::") {
				base += p.next().text
			}
		}
	default:
		return "", p.errorf(t, "expected a type, found %s", describe(t))
	}

	// East const: "T const &"
	for {
		n := p.peek()
		if n.kind != tokIdent || !cvQualifiers[n.text] {
			break
		}
		setCV(n.text)
		p.next()
	}

	chain := p.parsePointerChain()

	var b strings.Builder
	if isConst {
		b.WriteString("const ")
	}
	if isVolatile {
		b.WriteString("volatile ")
	}
	if elab != "" {
		b.WriteString(elab + " ")
	}
	b.WriteString(base)
	b.WriteString(chain)
	return b.String(), nil
}

// parseTemplate parses "<" [arg {"," arg}] ">" and returns "< a, b >".
// Arguments that are not types (sizes, expressions) are kept token by token;
// function types such as "void(const int&)" are normalized like arguments.
func (p *parser) parseTemplate() (string, error) {
	open := p.next()
	if p.isPunct(">") {
		p.next()
		return "<>", nil
	}

	var args []string
	for {
		arg, err := p.parseTemplateArg()
		if err != nil {
			return "", err
		}
		args = append(args, arg)

		if p.isPunct(",") {
			p.next()
			continue
		}
		if p.isPunct(">") {
			p.next()
			break
		}
		if p.peek().kind == tokEOF {
			return "", p.errorf(open, "unbalanced template brackets")
		}
		return "", p.errorf(p.peek(), "unexpected %s in template argument list", describe(p.peek()))
	}
	return "< " + strings.Join(args, ", ") + " >", nil
}

func (p *parser) parseTemplateArg() (string, error) {
	start := p.i
	if typ, err := p.parseType(); err == nil {
		if decl, err := p.parseDeclarator(); err == nil && (p.isPunct(",") || p.isPunct(">")) {
			return typ + decl, nil
		}
	}
	p.i = start

	var words []string
	depth := 0
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return "", p.errorf(t, "unbalanced template brackets")
		}
		if t.kind == tokPunct {
			switch t.text {
			case "(", "[", "{", "<":
				depth++
			case ")", "]", "}":
				depth--
			case ">":
				if depth == 0 {
					return strings.Join(words, " "), nil
				}
				depth--
			case ",":
				if depth == 0 {
					return strings.Join(words, " "), nil
				}
			}
			if depth < 0 {
				return "", p.errorf(t, "unbalanced %q in template argument", t.text)
			}
		}
		words = append(words, p.next().text)
	}
}

// skipDefault consumes a default value up to the next top-level "," or ")".
// "<" only opens a template argument list after a name, so "1 < 2" is a
// comparison; a ")" that closes no group always ends the value.
func (p *parser) skipDefault(eq token) error {
	depth, angle := 0, 0
	consumed := 0
	var prev token
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return p.errorf(t, "unbalanced parentheses in default value")
		}
		if t.kind == tokPunct {
			switch t.text {
			case "(", "[", "{":
				depth++
			case "<":
				if consumed > 0 && prev.kind == tokIdent {
					angle++
				}
			case ">":
				if angle > 0 {
					angle--
				}
			case "]", "}":
				if depth > 0 {
					depth--
				}
			case ")":
				if depth == 0 {
					if consumed == 0 {
						return p.errorf(eq, "missing default value")
					}
					return nil
				}
				depth--
			case ",":
				if depth == 0 && angle == 0 {
					if consumed == 0 {
						return p.errorf(eq, "missing default value")
					}
					return nil
				}
			}
		}
		prev = p.next()
		consumed++
	}
}
