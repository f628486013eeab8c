package arglist

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/doxylink/pkg/types"
)

func TestNormalize_NoArglist(t *testing.T) {
	name, args, err := Normalize("PolyVox::Volume")
	require.NoError(t, err)
	assert.Equal(t, "PolyVox::Volume", name)
	assert.Empty(t, args)

	name, args, err = Normalize("Functor::operator()")
	require.NoError(t, err)
	assert.Equal(t, "Functor::operator()", name)
	assert.Empty(t, args)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantName string
		wantArgs string
	}{
		{"empty", "foo()", "foo", "()"},
		{"empty const", "foo() const", "foo", "() const"},
		{"pure virtual", "foo() = 0", "foo", "()"},
		{"defaulted", "Foo::Foo() = default", "Foo::Foo", "()"},
		{"const override", "foo() const override", "foo", "() const"},
		{"const pure virtual", "foo() const = 0", "foo", "() const"},
		{"empty noexcept", "foo() noexcept", "foo", "()"},
		{"single builtin", "foo(int)", "foo", "(int)"},
		{"named parameters", "foo(int a, double b)", "foo", "(int, double)"},
		{"const reference", "foo(const QString &str)", "foo", "(const QString&)"},
		{"east const with default", "foo(QString const& str = QString())", "foo", "(const QString&)"},
		{"padded", "foo( const QString& )", "foo", "(const QString&)"},
		{"const pointer", "foo(char * const p)", "foo", "(char* const)"},
		{"pointer to const pointer", "foo(const char* const* argv)", "foo", "(const char* const*)"},
		{"rvalue reference", "foo(std::string && s)", "foo", "(std::string&&)"},
		{"multi word builtin", "foo(unsigned long int x)", "foo", "(unsigned long int)"},
		{"template", "foo(std::vector<int> &v)", "foo", "(std::vector< int >&)"},
		{"template with two args", "foo(std::map<int, std::string> const &m)", "foo", "(const std::map< int, std::string >&)"},
		{"template with size", "foo(Array<3, float> a)", "foo", "(Array< 3, float >)"},
		{"nested template", "foo(std::vector<std::vector<int>> v)", "foo", "(std::vector< std::vector< int > >)"},
		{"nested name after template", "foo(std::vector<int>::iterator it)", "foo", "(std::vector< int >::iterator)"},
		{"varargs", "foo(int, ...)", "foo", "(int, ...)"},
		{"only varargs", "foo(...)", "foo", "(...)"},
		{"function pointer", "foo(void (*cb)(int), int x)", "foo", "(void(*)(int), int)"},
		{"unnamed function pointer", "foo(void(*)(const int &))", "foo", "(void(*)(const int&))"},
		{"member function pointer", "foo(void (Sig::*slot)(int) const)", "foo", "(void(Sig::*)(int) const)"},
		{"function type", "foo(int cb(double))", "foo", "(int(double))"},
		{"array", "foo(int a[3])", "foo", "(int[3])"},
		{"multidimensional array", "foo(float m[4][ 4 ])", "foo", "(float[4][4])"},
		{"pack of forwarding references", "emplace(Args &&... args)", "emplace", "(Args&&...)"},
		{"pack by value", "foo(Ts... ts)", "foo", "(Ts...)"},
		{"unnamed pack", "foo(const Ts&...)", "foo", "(const Ts&...)"},
		{"function type template argument", "foo(std::function< void(int const &)> f)", "foo", "(std::function< void(const int&) >)"},
		{"less-than in default", "foo(int x = 1 < 2)", "foo", "(int)"},
		{"less-than in default before another argument", "foo(int x = 1 < 2, int y)", "foo", "(int, int)"},
		{"template call in default", "foo(std::vector<int> v = std::vector<int>(), int n = 0)", "foo", "(std::vector< int >, int)"},
		{"lvalue ref-qualifier", "Foo::get() &", "Foo::get", "() &"},
		{"rvalue ref-qualifier", "Foo::get(int) &&", "Foo::get", "(int) &&"},
		{"const ref-qualifier", "Foo::get(int) const& noexcept", "Foo::get", "(int) const &"},
		{"ref-qualified pure virtual", "Foo::get(int) && = 0", "Foo::get", "(int) &&"},
		{"numeric defaults", "foo(int x = -1, bool b = false)", "foo", "(int, bool)"},
		{"string default with comma", `foo(const char *s = "a,b")`, "foo", "(const char*)"},
		{"comparison in default", "foo(bool b = a > c, int n)", "foo", "(bool, int)"},
		{"trailing const", "Foo::bar(int) const", "Foo::bar", "(int) const"},
		{"elaborated type", "foo(struct stat *buf)", "foo", "(struct stat*)"},
		{"volatile", "foo(volatile int *p)", "foo", "(volatile int*)"},
		{"call operator", "Functor::operator()(int x) const", "Functor::operator()", "(int) const"},
		{"subscript operator", "Array::operator[](uint32_t uIndex)", "Array::operator[]", "(uint32_t)"},
		{"reference to array", "Array::resize(const uint32_t(&pDimensions)[noOfDims])", "Array::resize", "(const uint32_t(&)[noOfDims])"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestNormalize_EquivalentFormatting(t *testing.T) {
	groups := [][]string{
		{"f(const int *p)", "f(int const* p)", "f( const int*p )", "f(int   const *)"},
		{"f(const QString &s, int n = 4)", "f(QString const& s, int n)", "f(const QString&,int)"},
		{"f(std::vector< int > const & v)", "f(const std::vector<int>& v)"},
		{"f(unsigned int x) const", "f(unsigned int) const"},
		{"f(std::function< void(const int &)> cb)", "f(std::function<void(int const&)>)"},
		{"f(void (*cb)(int))", "f(void(*)(int x))", "f(void ( * )( int ))"},
		{"f(Args &&... args)", "f(Args&&...)", "f(Args && ...args)"},
		{"f(int v[4])", "f(int[ 4 ])"},
		{"f() const &", "f()const&"},
	}

	for _, group := range groups {
		_, want, err := Normalize(group[0])
		require.NoError(t, err)
		for _, other := range group[1:] {
			_, got, err := Normalize(other)
			require.NoError(t, err, other)
			assert.Equal(t, want, got, "%s vs %s", group[0], other)
		}
	}
}

func TestNormalize_DistinctOverloads(t *testing.T) {
	inputs := []string{
		"f(int)",
		"f(double)",
		"f(int) const",
		"f(int*)",
		"f(int&)",
		"f(const int&)",
		"f(unsigned int)",
		"f(unsigned long)",
		"f(char* const)",
		"f(const char*)",
		"f(std::vector< int >)",
		"f(std::vector< double >)",
		"f(int, int)",
		"f(int, ...)",
		"f(void(*)(int))",
		"f(void(*)(double))",
		"f(void)",
		"f(int[4])",
		"f(int[8])",
		"f(T(&)[N])",
		"f(T)",
		"f(int) &",
		"f(int) &&",
		"f(Ts...)",
		"f(std::function< void(int) >)",
		"f(std::function< void(double) >)",
	}

	seen := make(map[string]string)
	for _, in := range inputs {
		_, args, err := Normalize(in)
		require.NoError(t, err)
		if prev, dup := seen[args]; dup {
			t.Errorf("%s and %s both normalize to %s", prev, in, args)
		}
		seen[args] = in
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantPos int
	}{
		{"missing closing parenthesis", "foo(int", 7},
		{"extra closing parenthesis", "foo(int))", 8},
		{"missing type", "foo((int)", 4},
		{"invalid character", "foo(int @)", 8},
		{"empty argument", "foo(,)", 4},
		{"unbalanced template", "foo(vector<int x)", 16},
		{"missing default", "foo(int x = )", 10},
		{"unterminated string", `foo(const char* s = "abc)`, 20},
		{"unbalanced array extent", "foo(int a[3)", 9},
		{"unclosed list after function pointer", "foo(void (*cb)(int)", 19},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Normalize(tt.input)
			require.Error(t, err)

			var perr *types.ParseError
			require.True(t, errors.As(err, &perr), "expected *types.ParseError, got %T", err)
			assert.Equal(t, tt.input, perr.Text)
			assert.Equal(t, tt.wantPos, perr.Pos)
			assert.NotEmpty(t, perr.Message)
		})
	}
}

func TestEqual(t *testing.T) {
	same, err := Equal("(const int &x)", "(int const&)")
	require.NoError(t, err)
	assert.True(t, same)

	same, err = Equal("(int)", "(long)")
	require.NoError(t, err)
	assert.False(t, same)

	_, err = Equal("(int", "(int)")
	assert.Error(t, err)
}
