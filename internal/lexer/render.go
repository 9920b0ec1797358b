package lexer

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Unquote decodes the raw value of a TokenTypeString lexeme.
// Supported escapes: \n \t \r \0 \\ \' \". Any other escaped rune is kept
// together with its backslash. The result is NFC-normalized, matching the
// normalization of canonical JSON.
func Unquote(raw string) (string, error) {
	if len(raw) < 2 || raw[0] != raw[len(raw)-1] || (raw[0] != '\'' && raw[0] != '"') {
		return "", fmt.Errorf("not a quoted string: %s", raw)
	}

	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return norm.NFC.String(body), nil
	}

	var sb strings.Builder
	escaped := false
	for _, r := range body {
		if !escaped {
			if r == '\\' {
				escaped = true
				continue
			}
			sb.WriteRune(r)
			continue
		}

		escaped = false
		switch r {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		case '\\', '\'', '"':
			sb.WriteRune(r)
		default:
			sb.WriteByte('\\')
			sb.WriteRune(r)
		}
	}
	if escaped {
		return "", fmt.Errorf("dangling escape in %s", raw)
	}
	return norm.NFC.String(sb.String()), nil
}

// Render joins lexemes back into text with normalized spacing: binary
// operators are surrounded by single spaces, commas and colons are followed
// by one, and nothing is placed inside brackets or around calls, subscripts,
// attribute dots or keyword-argument equals signs. Rendering is independent of
// the whitespace in the original input, so `x+1` and `x + 1` render alike.
func Render(lexemes []Lexeme) string {
	return render(lexemes, nil)
}

// RenderArgument renders lexemes taken from inside a call's argument list,
// so keyword arguments keep their tight `k=v` form.
func RenderArgument(lexemes []Lexeme) string {
	return render(lexemes, []TokenType{TokenTypeLeftParen})
}

func render(lexemes []Lexeme, open []TokenType) string {
	var sb strings.Builder
	prevUnary := false

	for i, cur := range lexemes {
		if cur.Kind == TokenTypeEOF {
			break
		}

		if i > 0 && needsSpace(lexemes[i-1], cur, prevUnary, open) {
			sb.WriteByte(' ')
		}
		sb.WriteString(cur.Value)

		prevUnary = isUnary(lexemes, i)

		switch cur.Kind {
		case TokenTypeLeftParen, TokenTypeLeftBracket, TokenTypeLeftBrace:
			open = append(open, cur.Kind)
		case TokenTypeRightParen, TokenTypeRightBracket, TokenTypeRightBrace:
			if len(open) > 0 {
				open = open[:len(open)-1]
			}
		}
	}
	return sb.String()
}

// isUnary reports whether the lexeme at i is a prefix sign.
func isUnary(lexemes []Lexeme, i int) bool {
	cur := lexemes[i]
	if cur.Kind != TokenTypeMinus && !(cur.Kind == TokenTypeOperator && (cur.Value == "+" || cur.Value == "~")) {
		return false
	}
	return i == 0 || !lexemes[i-1].IsValueEnd()
}

func needsSpace(prev, cur Lexeme, prevUnary bool, open []TokenType) bool {
	innermost := TokenTypeEOF
	if len(open) > 0 {
		innermost = open[len(open)-1]
	}

	switch {
	case prevUnary:
		return false
	case prev.Kind == TokenTypeLeftParen, prev.Kind == TokenTypeLeftBracket, prev.Kind == TokenTypeLeftBrace,
		prev.Kind == TokenTypeDot:
		return false
	case cur.Kind == TokenTypeRightParen, cur.Kind == TokenTypeRightBracket, cur.Kind == TokenTypeRightBrace,
		cur.Kind == TokenTypeComma, cur.Kind == TokenTypeColon, cur.Kind == TokenTypeDot:
		return false
	case cur.Kind == TokenTypeLeftParen, cur.Kind == TokenTypeLeftBracket:
		// call or subscript
		return !prev.IsValueEnd() || prev.Kind == TokenTypeNone || prev.Kind == TokenTypeBool ||
			prev.Kind == TokenTypeInteger || prev.Kind == TokenTypeFloat
	case innermost == TokenTypeLeftParen && (isKeywordEquals(prev) || isKeywordEquals(cur)):
		return false
	case innermost == TokenTypeLeftBracket && prev.Kind == TokenTypeColon:
		// slice
		return false
	}
	return true
}

func isKeywordEquals(l Lexeme) bool {
	return l.Kind == TokenTypeOperator && l.Value == "="
}
