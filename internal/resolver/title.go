package resolver

import "strings"

// SplitExplicitTitle splits role text of the form "title <target>". Text
// without an explicit title is both title and target. A "<" preceded by a
// backslash does not start a target.
func SplitExplicitTitle(text string) (explicit bool, title, target string) {
	if strings.HasSuffix(text, ">") {
		for i := 1; i < len(text)-1; i++ {
			if text[i] != '<' || text[i-1] == '\\' {
				continue
			}
			t := strings.TrimRight(text[:i], " \t\r\n")
			if t == "" {
				continue
			}
			return true, Unescape(t), text[i+1 : len(text)-1]
		}
	}
	return false, Unescape(text), text
}

// Unescape removes backslash escapes: "\<" becomes "<" and "\\" becomes "\"
func Unescape(text string) string {
	if !strings.Contains(text, `\`) {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	escaped := false
	for _, r := range text {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
