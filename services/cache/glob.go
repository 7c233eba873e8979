package cache

import (
	"regexp"
	"strings"
)

// compileGlob turns a Redis MATCH pattern into an anchored regexp. Like Redis,
// '/' is an ordinary character: '*' and '?' match across it.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	p := []rune(pattern)
	var b strings.Builder
	b.WriteString(`(?s)^`)
	for i := 0; i < len(p); i++ {
		switch p[i] {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		case '\\':
			if i+1 < len(p) {
				i++
			}
			b.WriteString(regexp.QuoteMeta(string(p[i])))
		case '[':
			end := closingBracket(p, i+1)
			if end <= i+1 {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(classExpr(p[i+1 : end]))
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(p[i])))
		}
	}
	b.WriteString(`$`)
	return regexp.Compile(b.String())
}

func closingBracket(p []rune, from int) int {
	for j := from; j < len(p); j++ {
		switch p[j] {
		case '\\':
			j++
		case ']':
			return j
		}
	}
	return -1
}

// classExpr converts the body of a [...] group. A leading '^' negates it and
// a-z ranges pass through.
func classExpr(class []rune) string {
	var b strings.Builder
	b.WriteString(`[`)
	if class[0] == '^' {
		b.WriteString(`^`)
		class = class[1:]
	}
	for i := 0; i < len(class); i++ {
		ch := class[i]
		switch {
		case ch == '\\' && i+1 < len(class):
			i++
			b.WriteString(classLiteral(class[i]))
		case ch == '-' && i > 0 && i+1 < len(class):
			b.WriteRune('-')
		default:
			b.WriteString(classLiteral(ch))
		}
	}
	b.WriteString(`]`)
	return b.String()
}

func classLiteral(ch rune) string {
	switch ch {
	case ']', '[', '^', '-', '\\':
		return `\` + string(ch)
	}
	return string(ch)
}
