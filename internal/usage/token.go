package usage

import "strings"

type tokKind int

const (
	tokEOF tokKind = iota
	tokIdent
	tokNumber
	tokString
	tokTemplate
	tokPunct
)

type token struct {
	kind tokKind
	text string
	line int
}

// multiPunct lists multi-character operators, longest first so the lexer
// matches greedily.
var multiPunct = []string{
	"===", "!==", "**=", "...", "=>", "==", "!=", "<=", ">=",
	"&&", "||", "??", "?.", "++", "--", "+=", "-=", "*=", "/=", "%=",
	"&=", "|=", "^=", "<<", ">>",
}

// lex tokenizes the whole source, discarding comments and whitespace.
// It is deliberately forgiving: anything unrecognized becomes a
// single-character punct token and the parser decides what to do.
func lex(src string) []token {
	var toks []token
	line := 1
	i := 0
	n := len(src)

	for i < n {
		ch := src[i]

		if ch == '\n' {
			line++
			i++
			continue
		}
		if ch == ' ' || ch == '\t' || ch == '\r' {
			i++
			continue
		}

		// Comments.
		if ch == '/' && i+1 < n && src[i+1] == '/' {
			for i < n && src[i] != '\n' {
				i++
			}
			continue
		}
		if ch == '/' && i+1 < n && src[i+1] == '*' {
			i += 2
			for i+1 < n && !(src[i] == '*' && src[i+1] == '/') {
				if src[i] == '\n' {
					line++
				}
				i++
			}
			i += 2
			continue
		}

		// Strings.
		if ch == '\'' || ch == '"' {
			start := i
			i++
			for i < n && src[i] != ch {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			i++
			text := src[start:min(i, n)]
			toks = append(toks, token{kind: tokString, text: unquote(text), line: line})
			continue
		}

		// Template strings, including nested ${} interpolations. The
		// whole template becomes one token; interpolated calls are not
		// statement-level calls, so the contract does not reach them.
		if ch == '`' {
			start := i
			i++
			depth := 0
			for i < n {
				switch {
				case src[i] == '\\':
					i++
				case src[i] == '\n':
					line++
				case src[i] == '$' && i+1 < n && src[i+1] == '{':
					depth++
					i++
				case src[i] == '}' && depth > 0:
					depth--
				case src[i] == '`' && depth == 0:
					i++
					toks = append(toks, token{kind: tokTemplate, text: src[start:i], line: line})
					goto next
				}
				i++
			}
			toks = append(toks, token{kind: tokTemplate, text: src[start:], line: line})
		next:
			continue
		}

		// Identifiers and keywords.
		if isIdentStart(ch) {
			start := i
			for i < n && isIdentPart(src[i]) {
				i++
			}
			toks = append(toks, token{kind: tokIdent, text: src[start:i], line: line})
			continue
		}

		// Numbers.
		if ch >= '0' && ch <= '9' {
			start := i
			for i < n && (isIdentPart(src[i]) || src[i] == '.') {
				i++
			}
			toks = append(toks, token{kind: tokNumber, text: src[start:i], line: line})
			continue
		}

		// Multi-character punctuation.
		matched := false
		for _, p := range multiPunct {
			if strings.HasPrefix(src[i:], p) {
				toks = append(toks, token{kind: tokPunct, text: p, line: line})
				i += len(p)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		toks = append(toks, token{kind: tokPunct, text: string(ch), line: line})
		i++
	}

	toks = append(toks, token{kind: tokEOF, line: line})
	return toks
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch == '$' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch >= 0x80
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}
